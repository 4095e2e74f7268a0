package sqlstore

import (
	"strings"

	"github.com/goliatone/go-botbase/core"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// SelectCriteria narrows or orders a projection query. Criteria built with
// go-repository-bun helpers can be passed as is.
type SelectCriteria = repository.SelectCriteria

var allowedOperators = map[string]struct{}{
	"=":        {},
	"<>":       {},
	"!=":       {},
	"<":        {},
	"<=":       {},
	">":        {},
	">=":       {},
	"LIKE":     {},
	"NOT LIKE": {},
	"IN":       {},
	"NOT IN":   {},
}

// SelectBy filters on column using one of the allowed comparison operators.
// IN and NOT IN expect a slice value. Unknown columns or operators fail the
// query with a bad input error.
func SelectBy(column string, operator string, value any) SelectCriteria {
	column = strings.TrimSpace(column)
	operator = strings.ToUpper(strings.Join(strings.Fields(operator), " "))
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if column == "" {
			return q.Err(invalidCriteria("sqlstore: criteria column is required", map[string]any{"operator": operator}))
		}
		if _, ok := allowedOperators[operator]; !ok {
			return q.Err(invalidCriteria("sqlstore: unsupported criteria operator", map[string]any{
				"column":   column,
				"operator": operator,
			}))
		}
		switch operator {
		case "IN", "NOT IN":
			return q.Where("?TableAlias.? "+operator+" (?)", bun.Ident(column), bun.In(value))
		}
		if text, ok := value.(string); ok {
			return repository.SelectBy(column, operator, text)(q)
		}
		return q.Where("?TableAlias.? "+operator+" ?", bun.Ident(column), value)
	}
}

func SelectWhere(expr string, args ...any) SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(expr, args...)
	}
}

// OrderBy appends order expressions such as "name DESC". Expressions that are
// not a plain column plus direction are ignored.
func OrderBy(exprs ...string) SelectCriteria {
	return repository.OrderBy(exprs...)
}

func OrderByColumn(column string, descending bool) SelectCriteria {
	column = strings.TrimSpace(column)
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if column == "" {
			return q.Err(invalidCriteria("sqlstore: order column is required", map[string]any{"direction": direction}))
		}
		return q.OrderExpr("?TableAlias.? "+direction, bun.Ident(column))
	}
}

// SelectPaginate limits the result window. Non-positive values leave the
// limit or offset unset.
func SelectPaginate(limit int, offset int) SelectCriteria {
	return repository.SelectPaginate(limit, offset)
}

func invalidCriteria(message string, metadata map[string]any) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(400).
		WithTextCode(core.ErrorBadInput).
		WithMetadata(metadata)
}
