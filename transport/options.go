package transport

import (
	"strings"

	"github.com/goliatone/go-botbase/core"
)

type Option func(*Executor)

func WithHTTPClient(client HTTPDoer) Option {
	return func(e *Executor) {
		e.client = client
	}
}

func WithCodec(codec core.Codec) Option {
	return func(e *Executor) {
		e.codec = codec
	}
}

func WithLocalizer(localizer core.Localizer) Option {
	return func(e *Executor) {
		e.localizer = localizer
	}
}

func WithLogger(logger core.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(e *Executor) {
		e.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(e *Executor) {
		e.metrics = recorder
	}
}

// WithAuthSchemes replaces the header keys routed to the Authorization header.
func WithAuthSchemes(schemes ...string) Option {
	return func(e *Executor) {
		e.authSchemes = nil
		for _, scheme := range schemes {
			if scheme = strings.TrimSpace(scheme); scheme != "" {
				e.authSchemes = append(e.authSchemes, scheme)
			}
		}
	}
}
