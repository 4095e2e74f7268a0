package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// Identifiable is implemented by persisted entities keyed by an integer id.
type Identifiable interface {
	GetID() int64
}

// Codec encodes request payloads and decodes response bodies.
type Codec interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte, target any) error
}

// Localizer resolves a message key to a human readable string. Implementations
// return the key itself when no translation exists.
type Localizer interface {
	Localize(ctx context.Context, key string, args ...any) string
}
