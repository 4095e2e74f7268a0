package query

import (
	"context"
	"strings"

	sqlstore "github.com/goliatone/go-botbase/store/sql"
)

type ModelReader[R any] interface {
	ReadModel(ctx context.Context, id int64) (*R, error)
	QueryModel(ctx context.Context, criteria ...sqlstore.SelectCriteria) ([]R, error)
}

type ReadModelQuery[R any] struct {
	reader ModelReader[R]
}

func NewReadModelQuery[R any](reader ModelReader[R]) *ReadModelQuery[R] {
	return &ReadModelQuery[R]{reader: reader}
}

// Query returns nil without error when the row does not exist.
func (q *ReadModelQuery[R]) Query(ctx context.Context, msg ReadModelMessage) (*R, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: model reader is required")
	}
	if err := checkMessage(q.reader, msg.Resource, msg); err != nil {
		return nil, err
	}
	return q.reader.ReadModel(ctx, msg.ID)
}

type QueryModelQuery[R any] struct {
	reader ModelReader[R]
}

func NewQueryModelQuery[R any](reader ModelReader[R]) *QueryModelQuery[R] {
	return &QueryModelQuery[R]{reader: reader}
}

func (q *QueryModelQuery[R]) Query(ctx context.Context, msg QueryModelMessage) ([]R, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: model reader is required")
	}
	if err := checkMessage(q.reader, msg.Resource, msg); err != nil {
		return nil, err
	}
	return q.reader.QueryModel(ctx, msg.criteria()...)
}

func checkMessage(reader any, resource string, msg interface{ Validate() error }) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	resource = strings.TrimSpace(resource)
	if resource == "" {
		return nil
	}
	named, ok := reader.(interface{ Resource() string })
	if !ok {
		return nil
	}
	if expected := named.Resource(); expected != "" && expected != resource {
		return queryResourceMismatchError(expected, resource)
	}
	return nil
}
