package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"
)

// ModelWriter is the mutating half of a model repository. Update and delete
// report a missing id as a nil model.
type ModelWriter[R, C, U any] interface {
	CreateModel(ctx context.Context, input C) (*R, error)
	UpdateModel(ctx context.Context, id int64, input U) (*R, error)
	DeleteModel(ctx context.Context, id int64) (*R, error)
}

type CreateModelCommand[R, C, U any] struct {
	writer ModelWriter[R, C, U]
}

func NewCreateModelCommand[R, C, U any](writer ModelWriter[R, C, U]) *CreateModelCommand[R, C, U] {
	return &CreateModelCommand[R, C, U]{writer: writer}
}

func (c *CreateModelCommand[R, C, U]) Execute(ctx context.Context, msg CreateModelMessage[C]) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: model writer is required")
	}
	if err := checkMessage(c.writer, msg.Resource, msg); err != nil {
		return err
	}
	out, err := c.writer.CreateModel(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateModelCommand[R, C, U any] struct {
	writer ModelWriter[R, C, U]
}

func NewUpdateModelCommand[R, C, U any](writer ModelWriter[R, C, U]) *UpdateModelCommand[R, C, U] {
	return &UpdateModelCommand[R, C, U]{writer: writer}
}

func (c *UpdateModelCommand[R, C, U]) Execute(ctx context.Context, msg UpdateModelMessage[U]) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: model writer is required")
	}
	if err := checkMessage(c.writer, msg.Resource, msg); err != nil {
		return err
	}
	out, err := c.writer.UpdateModel(ctx, msg.ID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteModelCommand[R, C, U any] struct {
	writer ModelWriter[R, C, U]
}

func NewDeleteModelCommand[R, C, U any](writer ModelWriter[R, C, U]) *DeleteModelCommand[R, C, U] {
	return &DeleteModelCommand[R, C, U]{writer: writer}
}

func (c *DeleteModelCommand[R, C, U]) Execute(ctx context.Context, msg DeleteModelMessage) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: model writer is required")
	}
	if err := checkMessage(c.writer, msg.Resource, msg); err != nil {
		return err
	}
	out, err := c.writer.DeleteModel(ctx, msg.ID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func checkMessage(writer any, resource string, msg interface{ Validate() error }) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	resource = strings.TrimSpace(resource)
	if resource == "" {
		return nil
	}
	named, ok := writer.(interface{ Resource() string })
	if !ok {
		return nil
	}
	if expected := named.Resource(); expected != "" && expected != resource {
		return commandResourceMismatchError(expected, resource)
	}
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
