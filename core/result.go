package core

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Result is the uniform envelope returned by request execution. A failed
// result never carries a model; ErrorMessage is only set on failure.
type Result[T any] struct {
	Succeeded       bool   `json:"succeeded"`
	ErrorMessage    string `json:"error_message,omitempty"`
	BusinessMessage string `json:"business_message,omitempty"`
	Model           *T     `json:"model,omitempty"`

	// Cause keeps the underlying error when ErrorMessage is a generic,
	// user facing message.
	Cause error `json:"-"`
}

func NewResult[T any]() Result[T] {
	return Result[T]{Succeeded: true}
}

func Success[T any](model *T) Result[T] {
	return Result[T]{Succeeded: true, Model: model}
}

func Failure[T any](message string, cause error) Result[T] {
	message = strings.TrimSpace(message)
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return Result[T]{
		Succeeded:    false,
		ErrorMessage: message,
		Cause:        cause,
	}
}

// Fill sets every public field at once. The model is dropped and the error
// message cleared when they would break the envelope invariants.
func (r *Result[T]) Fill(succeeded bool, errorMessage string, businessMessage string, model *T) {
	if r == nil {
		return
	}
	r.Succeeded = succeeded
	r.BusinessMessage = businessMessage
	if succeeded {
		r.ErrorMessage = ""
		r.Model = model
		return
	}
	r.ErrorMessage = errorMessage
	r.Model = nil
}

func (r Result[T]) WithBusinessMessage(message string) Result[T] {
	r.BusinessMessage = message
	return r
}

// Err returns the preserved cause of a failed result, or nil on success.
func (r Result[T]) Err() error {
	if r.Succeeded {
		return nil
	}
	if r.Cause != nil {
		return r.Cause
	}
	return NewError(r.ErrorMessage, goerrors.CategoryInternal, ErrorInternal)
}
