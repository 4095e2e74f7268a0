package transport

import (
	"context"
	"sync"

	"github.com/goliatone/go-botbase/core"
)

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu      *sync.Mutex
	records *[]capturedLog
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) core.Logger {
	return l
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := map[string]any{}
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]capturedLog, len(*l.records))
	copy(out, *l.records)
	return out
}

func (l *captureLogger) find(msg string) []capturedLog {
	var out []capturedLog
	for _, record := range l.snapshot() {
		if record.msg == msg {
			out = append(out, record)
		}
	}
	return out
}

type panicLogger struct{}

func (panicLogger) Trace(string, ...any)                    { panic("trace") }
func (panicLogger) Debug(string, ...any)                    { panic("debug") }
func (panicLogger) Info(string, ...any)                     { panic("info") }
func (panicLogger) Warn(string, ...any)                     { panic("warn") }
func (panicLogger) Error(string, ...any)                    { panic("error") }
func (panicLogger) Fatal(string, ...any)                    { panic("fatal") }
func (l panicLogger) WithContext(context.Context) core.Logger { return l }

type capturedMetric struct {
	name string
	tags map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedMetric
	histograms []capturedMetric
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, _ int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedMetric{name: name, tags: tags})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, _ float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedMetric{name: name, tags: tags})
}

type failingCodec struct {
	core.Codec
	err error
}

func (c failingCodec) Marshal(any) ([]byte, error) {
	return nil, c.err
}
