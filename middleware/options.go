package middleware

import (
	"strings"

	"github.com/goliatone/go-botbase/core"
	"github.com/google/uuid"
)

const (
	HeaderRequestID     = "X-Request-ID"
	DefaultMaxBodyBytes = int64(64 << 10)
)

type Option func(*settings)

type settings struct {
	loggerProvider core.LoggerProvider
	maxBodyBytes   int64
	newRequestID   func() string
	skip           func(path string) bool
}

func defaultSettings() settings {
	return settings{
		maxBodyBytes: DefaultMaxBodyBytes,
		newRequestID: uuid.NewString,
	}
}

// WithMaxBodyBytes caps how much of each body is logged. Zero disables body
// logging; negative values are ignored.
func WithMaxBodyBytes(limit int64) Option {
	return func(s *settings) {
		if limit >= 0 {
			s.maxBodyBytes = limit
		}
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(s *settings) {
		s.loggerProvider = provider
	}
}

func WithRequestIDGenerator(generator func() string) Option {
	return func(s *settings) {
		if generator != nil {
			s.newRequestID = generator
		}
	}
}

// WithSkipPaths leaves requests under any of the given path prefixes unlogged.
func WithSkipPaths(prefixes ...string) Option {
	return func(s *settings) {
		cleaned := make([]string, 0, len(prefixes))
		for _, prefix := range prefixes {
			if prefix = strings.TrimSpace(prefix); prefix != "" {
				cleaned = append(cleaned, prefix)
			}
		}
		if len(cleaned) == 0 {
			return
		}
		s.skip = func(path string) bool {
			for _, prefix := range cleaned {
				if strings.HasPrefix(path, prefix) {
					return true
				}
			}
			return false
		}
	}
}
