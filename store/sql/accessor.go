package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-botbase/core"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ModelRepository is the read/write surface shared by Accessor and
// CachedAccessor. A missing row is reported as a nil model and a nil error.
type ModelRepository[R, C, U any] interface {
	ReadModel(ctx context.Context, id int64) (*R, error)
	CreateModel(ctx context.Context, input C) (*R, error)
	UpdateModel(ctx context.Context, id int64, input U) (*R, error)
	DeleteModel(ctx context.Context, id int64) (*R, error)
	QueryModel(ctx context.Context, criteria ...SelectCriteria) ([]R, error)
}

type Accessor[E core.Identifiable, R, C, U any] struct {
	db       *bun.DB
	mapping  Mapping[E, R, C, U]
	columns  []string
	resource string
	logger   core.Logger
	metrics  core.MetricsRecorder
}

type accessorSettings struct {
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
}

type AccessorOption func(*accessorSettings)

func WithLogger(logger core.Logger) AccessorOption {
	return func(s *accessorSettings) {
		s.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) AccessorOption {
	return func(s *accessorSettings) {
		s.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) AccessorOption {
	return func(s *accessorSettings) {
		s.metrics = recorder
	}
}

func NewAccessor[E core.Identifiable, R, C, U any](
	db *bun.DB,
	mapping Mapping[E, R, C, U],
	opts ...AccessorOption,
) (*Accessor[E, R, C, U], error) {
	if db == nil {
		return nil, notConfigured("sqlstore: bun db is required")
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	settings := accessorSettings{}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}
	if settings.metrics == nil {
		settings.metrics = core.NopMetricsRecorder{}
	}

	accessor := &Accessor[E, R, C, U]{
		db:       db,
		mapping:  mapping,
		resource: strings.TrimSpace(mapping.Resource),
		logger:   core.ResolveLogger("sqlstore", settings.loggerProvider, settings.logger),
		metrics:  settings.metrics,
	}

	entityType := structType(reflect.TypeOf(mapping.NewEntity()))
	if entityType == nil {
		return nil, invalidMapping("sqlstore: entity must be a pointer to a struct model")
	}
	if accessor.resource == "" {
		accessor.resource = db.Table(entityType).Name
	}
	if mapping.Project == nil {
		readType := structType(reflect.TypeFor[R]())
		if readType == nil {
			return nil, invalidMapping("sqlstore: read model must be a struct when no projection is given")
		}
		for _, field := range db.Table(readType).Fields {
			accessor.columns = append(accessor.columns, field.Name)
		}
		if len(accessor.columns) == 0 {
			return nil, invalidMapping("sqlstore: read model has no columns")
		}
	}
	return accessor, nil
}

// NewAccessorFromPersistence accepts a *bun.DB or anything exposing DB() *bun.DB,
// such as a go-persistence-bun client.
func NewAccessorFromPersistence[E core.Identifiable, R, C, U any](
	client any,
	mapping Mapping[E, R, C, U],
	opts ...AccessorOption,
) (*Accessor[E, R, C, U], error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewAccessor(db, mapping, opts...)
}

func (a *Accessor[E, R, C, U]) Resource() string {
	if a == nil {
		return ""
	}
	return a.resource
}

func (a *Accessor[E, R, C, U]) ReadModel(ctx context.Context, id int64) (out *R, err error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	defer a.observe(ctx, time.Now(), "read_model", &err)

	out, err = a.readModel(ctx, a.db, id)
	return out, a.storeError(ctx, err)
}

func (a *Accessor[E, R, C, U]) CreateModel(ctx context.Context, input C) (out *R, err error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	defer a.observe(ctx, time.Now(), "create_model", &err)

	entity, err := a.mapping.FromCreate(input)
	if err != nil {
		return nil, err
	}
	if _, err := a.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, a.storeError(ctx, err)
	}
	out, err = a.readModel(ctx, a.db, entity.GetID())
	return out, a.storeError(ctx, err)
}

// UpdateModel loads, mutates and saves the entity in one transaction. A missing
// id returns nil without touching the store.
func (a *Accessor[E, R, C, U]) UpdateModel(ctx context.Context, id int64, input U) (out *R, err error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	defer a.observe(ctx, time.Now(), "update_model", &err)

	err = a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		entity, found, err := a.findEntity(ctx, tx, id)
		if err != nil || !found {
			return err
		}
		if err := a.mapping.ApplyUpdate(entity, input); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx); err != nil {
			return err
		}
		out, err = a.readModel(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, a.storeError(ctx, err)
	}
	return out, nil
}

// DeleteModel removes the row and returns its projection as it was before the
// delete.
func (a *Accessor[E, R, C, U]) DeleteModel(ctx context.Context, id int64) (out *R, err error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	defer a.observe(ctx, time.Now(), "delete_model", &err)

	err = a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		entity, found, err := a.findEntity(ctx, tx, id)
		if err != nil || !found {
			return err
		}
		captured, err := a.readModel(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model(entity).WherePK().Exec(ctx); err != nil {
			return err
		}
		out = captured
		return nil
	})
	if err != nil {
		return nil, a.storeError(ctx, err)
	}
	return out, nil
}

// QueryModel projects every row matching criteria. Without criteria it returns
// all rows in store order. The result is never nil.
func (a *Accessor[E, R, C, U]) QueryModel(ctx context.Context, criteria ...SelectCriteria) (out []R, err error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	defer a.observe(ctx, time.Now(), "query_model", &err)

	q := a.projection(a.db)
	for _, criterion := range criteria {
		if criterion != nil {
			q = criterion(q)
		}
	}
	out = make([]R, 0)
	if err := q.Scan(ctx, &out); err != nil {
		return nil, a.storeError(ctx, err)
	}
	if out == nil {
		out = []R{}
	}
	return out, nil
}

func (a *Accessor[E, R, C, U]) readModel(ctx context.Context, idb bun.IDB, id int64) (*R, error) {
	var out R
	err := a.projection(idb).
		Where("?TableAlias.? = ?", bun.Ident(a.mapping.idColumn()), id).
		Limit(1).
		Scan(ctx, &out)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (a *Accessor[E, R, C, U]) findEntity(ctx context.Context, idb bun.IDB, id int64) (E, bool, error) {
	entity := a.mapping.NewEntity()
	err := idb.NewSelect().
		Model(entity).
		Where("?TableAlias.? = ?", bun.Ident(a.mapping.idColumn()), id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		var zero E
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return entity, true, nil
}

func (a *Accessor[E, R, C, U]) projection(idb bun.IDB) *bun.SelectQuery {
	q := idb.NewSelect().Model(a.mapping.NewEntity())
	if a.mapping.Project != nil {
		return a.mapping.Project(q)
	}
	return q.Column(a.columns...)
}

func (a *Accessor[E, R, C, U]) ready(ctx context.Context) error {
	if a == nil || a.db == nil {
		return notConfigured("sqlstore: accessor is not configured")
	}
	if ctx == nil {
		return notConfigured("sqlstore: context is required")
	}
	return ctx.Err()
}

// storeError keeps store failures as they are, but makes sure a cancelled or
// expired context is visible through errors.Is even when the driver reports
// its own interruption error.
func (a *Accessor[E, R, C, U]) storeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	ctxErr := ctx.Err()
	if ctxErr == nil || errors.Is(err, ctxErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ctxErr, err)
}

func (a *Accessor[E, R, C, U]) observe(ctx context.Context, startedAt time.Time, operation string, errPtr *error) {
	var err error
	if errPtr != nil {
		err = *errPtr
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	tags := map[string]string{
		"operation": operation,
		"resource":  a.resource,
		"status":    status,
	}
	core.RecordCounter(ctx, a.metrics, core.MetricStoreOperationTotal, 1, tags)
	core.RecordHistogram(ctx, a.metrics, core.MetricStoreOperationDuration, float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		core.LogError(ctx, a.logger, "sqlstore "+operation+" failed", map[string]any{
			"resource": a.resource,
			"error":    err.Error(),
		})
		return
	}
	core.LogDebug(ctx, a.logger, "sqlstore "+operation+" succeeded", map[string]any{
		"resource": a.resource,
	})
}

func structType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil
	}
	return typ
}

func notConfigured(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(500).
		WithTextCode(core.ErrorNotConfigured)
}

func invalidMapping(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(400).
		WithTextCode(core.ErrorBadInput)
}
