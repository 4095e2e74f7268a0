package sqlstore

import (
	"strings"

	"github.com/goliatone/go-botbase/core"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const defaultIDColumn = "id"

// Mapping is the explicit registry between an entity E and its read (R),
// create (C) and update (U) shapes. Read shapes are always produced by a query
// level projection, never by converting a loaded entity.
type Mapping[E core.Identifiable, R, C, U any] struct {
	// NewEntity returns an empty bun model pointer.
	NewEntity func() E
	// FromCreate builds a new, not yet persisted entity.
	FromCreate func(input C) (E, error)
	// ApplyUpdate mutates entity in place.
	ApplyUpdate func(entity E, input U) error
	// Project selects the columns of R. When nil the column list is derived
	// from R's bun schema.
	Project func(q *bun.SelectQuery) *bun.SelectQuery
	// IDColumn defaults to "id".
	IDColumn string
	// Resource names the model in logs and metrics. Defaults to the table name.
	Resource string
}

func (m Mapping[E, R, C, U]) Validate() error {
	var fields []goerrors.FieldError
	if m.NewEntity == nil {
		fields = append(fields, goerrors.FieldError{Field: "new_entity", Message: "is required"})
	}
	if m.FromCreate == nil {
		fields = append(fields, goerrors.FieldError{Field: "from_create", Message: "is required"})
	}
	if m.ApplyUpdate == nil {
		fields = append(fields, goerrors.FieldError{Field: "apply_update", Message: "is required"})
	}
	if len(fields) == 0 {
		return nil
	}
	return goerrors.NewValidation("sqlstore: incomplete model mapping", fields...).
		WithCode(400).
		WithTextCode(core.ErrorBadInput)
}

func (m Mapping[E, R, C, U]) idColumn() string {
	if column := strings.TrimSpace(m.IDColumn); column != "" {
		return column
	}
	return defaultIDColumn
}
