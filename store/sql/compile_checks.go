package sqlstore

type compileCheckEntity struct {
	ID int64 `bun:"id,pk,autoincrement"`
}

func (e *compileCheckEntity) GetID() int64 { return e.ID }

type compileCheckView struct {
	ID int64 `bun:"id"`
}

var (
	_ ModelRepository[compileCheckView, struct{}, struct{}] = (*Accessor[*compileCheckEntity, compileCheckView, struct{}, struct{}])(nil)
	_ ModelRepository[compileCheckView, struct{}, struct{}] = (*CachedAccessor[compileCheckView, struct{}, struct{}])(nil)
)
