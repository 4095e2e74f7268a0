// Package botbase bundles the reusable pieces of a bot backend: an HTTP
// request executor with a uniform result envelope, a generic CRUD accessor
// over bun, and the command/query adapters that expose it.
package botbase

import (
	"context"

	"github.com/goliatone/go-botbase/core"
	sqlstore "github.com/goliatone/go-botbase/store/sql"
	"github.com/goliatone/go-botbase/transport"
	persistence "github.com/goliatone/go-persistence-bun"
)

type Config = core.Config
type HTTPConfig = core.HTTPConfig
type LocalizationConfig = core.LocalizationConfig
type PersistenceConfig = core.PersistenceConfig

type Result[T any] = core.Result[T]

type Executor = transport.Executor
type ExecutorOption = transport.Option
type Request = transport.Request
type Header = transport.Header
type Headers = transport.Headers
type Method = transport.Method
type FormContent = transport.FormContent
type RawContent = transport.RawContent

type Mapping[E core.Identifiable, R, C, U any] = sqlstore.Mapping[E, R, C, U]
type Accessor[E core.Identifiable, R, C, U any] = sqlstore.Accessor[E, R, C, U]
type ModelRepository[R, C, U any] = sqlstore.ModelRepository[R, C, U]
type SelectCriteria = sqlstore.SelectCriteria

const (
	MethodGet    = transport.MethodGet
	MethodPost   = transport.MethodPost
	MethodPut    = transport.MethodPut
	MethodDelete = transport.MethodDelete
)

var (
	WithHTTPClient      = transport.WithHTTPClient
	WithCodec           = transport.WithCodec
	WithLocalizer       = transport.WithLocalizer
	WithLogger          = transport.WithLogger
	WithLoggerProvider  = transport.WithLoggerProvider
	WithMetricsRecorder = transport.WithMetricsRecorder
	WithAuthSchemes     = transport.WithAuthSchemes

	WithConfigDefaults  = core.WithConfigDefaults
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver

	SelectBy       = sqlstore.SelectBy
	SelectWhere    = sqlstore.SelectWhere
	OrderBy        = sqlstore.OrderBy
	OrderByColumn  = sqlstore.OrderByColumn
	SelectPaginate = sqlstore.SelectPaginate
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func LoadConfig(ctx context.Context, runtime Config, opts ...core.ConfigOption) (Config, error) {
	return core.LoadConfig(ctx, runtime, opts...)
}

// NewExecutor builds an executor from cfg.HTTP whose generic failure message
// is localized for cfg.Localization.DefaultLocale. Options given by the
// caller take precedence.
func NewExecutor(cfg Config, opts ...ExecutorOption) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	localizer := core.NewCatalogLocalizer(cfg.Localization.DefaultLocale)
	all := make([]ExecutorOption, 0, len(opts)+1)
	all = append(all, transport.WithLocalizer(localizer))
	all = append(all, opts...)
	return transport.NewExecutor(cfg.HTTP, all...)
}

func PerformRequest[TOut any](ctx context.Context, executor *Executor, req Request) Result[TOut] {
	return transport.PerformRequest[TOut](ctx, executor, req)
}

func NewPersistenceClient(cfg Config) (*persistence.Client, error) {
	return sqlstore.NewPersistenceClient(cfg.Persistence)
}

func NewAccessor[E core.Identifiable, R, C, U any](
	client any,
	mapping Mapping[E, R, C, U],
	opts ...sqlstore.AccessorOption,
) (*Accessor[E, R, C, U], error) {
	return sqlstore.NewAccessorFromPersistence(client, mapping, opts...)
}
