package sqlstore

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-botbase/core"
	goerrors "github.com/goliatone/go-errors"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const modelCacheKeyPrefix = "go-botbase::model::v1"

var errModelNotFound = errors.New("sqlstore: model not found")

// CachedAccessor serves ReadModel through a cache service and drops the cached
// entry whenever the same id is created, updated or deleted. Missing rows are
// never cached. QueryModel always reaches the store.
type CachedAccessor[R, C, U any] struct {
	base      ModelRepository[R, C, U]
	cache     repositorycache.CacheService
	namespace string
	idOf      func(R) int64
}

// NewCachedAccessor wraps base. idOf extracts the id from a read model so that
// CreateModel can invalidate the new row's key; it may be nil when read
// models are never created through this accessor.
func NewCachedAccessor[R, C, U any](
	base ModelRepository[R, C, U],
	cacheService repositorycache.CacheService,
	namespace string,
	idOf func(R) int64,
) (*CachedAccessor[R, C, U], error) {
	if base == nil {
		return nil, notConfigured("sqlstore: base model repository is required")
	}
	if cacheService == nil {
		return nil, notConfigured("sqlstore: model cache service is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		if named, ok := base.(interface{ Resource() string }); ok {
			namespace = strings.TrimSpace(named.Resource())
		}
	}
	if namespace == "" {
		return nil, goerrors.New("sqlstore: cache namespace is required", goerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode(core.ErrorBadInput)
	}
	return &CachedAccessor[R, C, U]{
		base:      base,
		cache:     cacheService,
		namespace: namespace,
		idOf:      idOf,
	}, nil
}

// ModelCacheKey returns go-botbase::model::v1::<namespace>::<id> with the
// namespace URL-path escaped.
func ModelCacheKey(namespace string, id int64) string {
	return strings.Join([]string{
		modelCacheKeyPrefix,
		url.PathEscape(strings.TrimSpace(namespace)),
		strconv.FormatInt(id, 10),
	}, "::")
}

func (c *CachedAccessor[R, C, U]) ReadModel(ctx context.Context, id int64) (*R, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	model, err := repositorycache.GetOrFetch(ctx, c.cache, ModelCacheKey(c.namespace, id), func(ctx context.Context) (R, error) {
		fetched, fetchErr := c.base.ReadModel(ctx, id)
		if fetchErr != nil {
			var zero R
			return zero, fetchErr
		}
		if fetched == nil {
			var zero R
			return zero, errModelNotFound
		}
		return *fetched, nil
	})
	if err != nil {
		if errors.Is(err, errModelNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &model, nil
}

func (c *CachedAccessor[R, C, U]) CreateModel(ctx context.Context, input C) (*R, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	created, err := c.base.CreateModel(ctx, input)
	if err != nil {
		return nil, err
	}
	if created != nil && c.idOf != nil {
		if err := c.invalidate(ctx, c.idOf(*created)); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (c *CachedAccessor[R, C, U]) UpdateModel(ctx context.Context, id int64, input U) (*R, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	updated, err := c.base.UpdateModel(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if err := c.invalidate(ctx, id); err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *CachedAccessor[R, C, U]) DeleteModel(ctx context.Context, id int64) (*R, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	deleted, err := c.base.DeleteModel(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.invalidate(ctx, id); err != nil {
		return nil, err
	}
	return deleted, nil
}

func (c *CachedAccessor[R, C, U]) QueryModel(ctx context.Context, criteria ...SelectCriteria) ([]R, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.base.QueryModel(ctx, criteria...)
}

func (c *CachedAccessor[R, C, U]) invalidate(ctx context.Context, id int64) error {
	return c.cache.Delete(ctx, ModelCacheKey(c.namespace, id))
}

func (c *CachedAccessor[R, C, U]) ready() error {
	if c == nil || c.base == nil || c.cache == nil {
		return notConfigured("sqlstore: cached accessor is not configured")
	}
	return nil
}
