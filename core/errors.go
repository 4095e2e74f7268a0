package core

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput          = "BOTBASE_BAD_INPUT"
	ErrorUnsupportedMethod = "BOTBASE_UNSUPPORTED_METHOD"
	ErrorTransportFailure  = "BOTBASE_TRANSPORT_FAILURE"
	ErrorDecodeFailure     = "BOTBASE_DECODE_FAILURE"
	ErrorNotConfigured     = "BOTBASE_NOT_CONFIGURED"
	ErrorCanceled          = "BOTBASE_CANCELED"
	ErrorInternal          = "BOTBASE_INTERNAL_ERROR"
)

func NewError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func WrapError(source error, category goerrors.Category, textCode string, message string) *goerrors.Error {
	if source == nil {
		return NewError(message, category, textCode)
	}
	wrapped := goerrors.Wrap(source, category, message)
	if strings.TrimSpace(wrapped.TextCode) == "" {
		wrapped.TextCode = textCode
	}
	return ensureErrorEnvelope(wrapped)
}

// MapError normalizes any error into a go-errors envelope with an HTTP code
// and a text code.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ensureErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryOperation, "operation canceled").
				WithTextCode(ErrorCanceled),
		)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

// HasTextCode reports whether err wraps a go-errors envelope with textCode.
func HasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryExternal:
		return ErrorTransportFailure
	case goerrors.CategoryMethodNotAllowed:
		return ErrorUnsupportedMethod
	default:
		return ErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
