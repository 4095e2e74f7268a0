package command

import "strings"

const (
	TypeCreateModel = "botbase.command.model.create"
	TypeUpdateModel = "botbase.command.model.update"
	TypeDeleteModel = "botbase.command.model.delete"
)

// CreateModelMessage asks for a new row built from Input. Resource is optional;
// when set it must name the resource the command was built for.
type CreateModelMessage[C any] struct {
	Resource string
	Input    C
}

func (CreateModelMessage[C]) Type() string { return TypeCreateModel }

func (m CreateModelMessage[C]) Validate() error {
	return validateResource(m.Resource)
}

type UpdateModelMessage[U any] struct {
	Resource string
	ID       int64
	Input    U
}

func (UpdateModelMessage[U]) Type() string { return TypeUpdateModel }

func (m UpdateModelMessage[U]) Validate() error {
	if err := validateResource(m.Resource); err != nil {
		return err
	}
	return validateID(m.ID)
}

type DeleteModelMessage struct {
	Resource string
	ID       int64
}

func (DeleteModelMessage) Type() string { return TypeDeleteModel }

func (m DeleteModelMessage) Validate() error {
	if err := validateResource(m.Resource); err != nil {
		return err
	}
	return validateID(m.ID)
}

func validateResource(resource string) error {
	if resource != "" && strings.TrimSpace(resource) == "" {
		return commandValidationError("resource", "must not be blank")
	}
	return nil
}

func validateID(id int64) error {
	if id <= 0 {
		return commandValidationError("id", "must be a positive integer")
	}
	return nil
}
