package query

import (
	"strings"

	sqlstore "github.com/goliatone/go-botbase/store/sql"
)

const (
	TypeReadModel  = "botbase.query.model.read"
	TypeQueryModel = "botbase.query.model.list"
)

type ReadModelMessage struct {
	Resource string
	ID       int64
}

func (ReadModelMessage) Type() string { return TypeReadModel }

func (m ReadModelMessage) Validate() error {
	if err := validateResource(m.Resource); err != nil {
		return err
	}
	if m.ID <= 0 {
		return queryValidationError("id", "must be a positive integer")
	}
	return nil
}

// QueryModelMessage lists rows matching Criteria. Limit and Offset are applied
// after the criteria when positive.
type QueryModelMessage struct {
	Resource string
	Criteria []sqlstore.SelectCriteria
	Limit    int
	Offset   int
}

func (QueryModelMessage) Type() string { return TypeQueryModel }

func (m QueryModelMessage) Validate() error {
	if err := validateResource(m.Resource); err != nil {
		return err
	}
	if m.Limit < 0 {
		return queryValidationError("limit", "must not be negative")
	}
	if m.Offset < 0 {
		return queryValidationError("offset", "must not be negative")
	}
	return nil
}

func (m QueryModelMessage) criteria() []sqlstore.SelectCriteria {
	out := make([]sqlstore.SelectCriteria, 0, len(m.Criteria)+1)
	out = append(out, m.Criteria...)
	if m.Limit > 0 || m.Offset > 0 {
		out = append(out, sqlstore.SelectPaginate(m.Limit, m.Offset))
	}
	return out
}

func validateResource(resource string) error {
	if resource != "" && strings.TrimSpace(resource) == "" {
		return queryValidationError("resource", "must not be blank")
	}
	return nil
}
