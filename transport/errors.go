package transport

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-botbase/core"
	goerrors "github.com/goliatone/go-errors"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ErrorBadInput
	case goerrors.CategoryMethodNotAllowed:
		return core.ErrorUnsupportedMethod
	case goerrors.CategoryExternal:
		return core.ErrorTransportFailure
	default:
		return core.ErrorInternal
	}
}

func statusError(res *http.Response, metadata map[string]any) *goerrors.Error {
	text := strings.TrimSpace(http.StatusText(res.StatusCode))
	if text == "" {
		text = "Unknown"
	}
	return transportError(
		fmt.Sprintf("response status code does not indicate success: %d (%s)", res.StatusCode, text),
		goerrors.CategoryExternal,
		http.StatusBadGateway,
		metadata,
	)
}

// IsTransportFailure reports whether err came from the network exchange
// itself: a failed round trip, a non success status, or an unreadable body.
func IsTransportFailure(err error) bool {
	return core.HasTextCode(err, core.ErrorTransportFailure)
}

// transportMessage is the message surfaced to callers for transport failures.
// It prefers the underlying network error over the wrapping context.
func transportMessage(err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return err.Error()
	}
	if rich.Source != nil {
		return rich.Source.Error()
	}
	return rich.Message
}
