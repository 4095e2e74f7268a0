package botbase

import (
	"github.com/goliatone/go-botbase/command"
	"github.com/goliatone/go-botbase/core"
	"github.com/goliatone/go-botbase/query"
	sqlstore "github.com/goliatone/go-botbase/store/sql"
	goerrors "github.com/goliatone/go-errors"
)

type Commands[R, C, U any] struct {
	Create *command.CreateModelCommand[R, C, U]
	Update *command.UpdateModelCommand[R, C, U]
	Delete *command.DeleteModelCommand[R, C, U]
}

type Queries[R any] struct {
	Read  *query.ReadModelQuery[R]
	Query *query.QueryModelQuery[R]
}

// ModelFacade exposes one model repository through go-command handlers.
type ModelFacade[R, C, U any] struct {
	repository sqlstore.ModelRepository[R, C, U]
	commands   Commands[R, C, U]
	queries    Queries[R]
}

func NewModelFacade[R, C, U any](repository sqlstore.ModelRepository[R, C, U]) (*ModelFacade[R, C, U], error) {
	if repository == nil {
		return nil, goerrors.New("botbase: model repository is required", goerrors.CategoryInternal).
			WithCode(500).
			WithTextCode(core.ErrorNotConfigured)
	}
	return &ModelFacade[R, C, U]{
		repository: repository,
		commands: Commands[R, C, U]{
			Create: command.NewCreateModelCommand[R, C, U](repository),
			Update: command.NewUpdateModelCommand[R, C, U](repository),
			Delete: command.NewDeleteModelCommand[R, C, U](repository),
		},
		queries: Queries[R]{
			Read:  query.NewReadModelQuery[R](repository),
			Query: query.NewQueryModelQuery[R](repository),
		},
	}, nil
}

func (f *ModelFacade[R, C, U]) Commands() Commands[R, C, U] {
	if f == nil {
		return Commands[R, C, U]{}
	}
	return f.commands
}

func (f *ModelFacade[R, C, U]) Queries() Queries[R] {
	if f == nil {
		return Queries[R]{}
	}
	return f.queries
}

func (f *ModelFacade[R, C, U]) Repository() sqlstore.ModelRepository[R, C, U] {
	if f == nil {
		return nil
	}
	return f.repository
}
