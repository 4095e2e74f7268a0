package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-botbase/core"
)

type requestIDKey struct{}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

type exchangeLogger struct {
	logger   core.Logger
	settings settings
}

func newExchangeLogger(logger core.Logger, opts []Option) *exchangeLogger {
	cfg := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &exchangeLogger{
		logger:   core.ResolveLogger("middleware", cfg.loggerProvider, logger),
		settings: cfg,
	}
}

func (l *exchangeLogger) skipped(r *http.Request) bool {
	return l.settings.skip != nil && r.URL != nil && l.settings.skip(r.URL.Path)
}

func (l *exchangeLogger) requestID(r *http.Request) string {
	if requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID)); requestID != "" {
		return requestID
	}
	return l.settings.newRequestID()
}

// captureRequestBody reads at most the logging cap from the body and puts the
// consumed prefix back in front of the remaining stream.
func (l *exchangeLogger) captureRequestBody(r *http.Request) (string, bool) {
	if r.Body == nil || r.Body == http.NoBody || l.settings.maxBodyBytes == 0 {
		return "", false
	}
	prefix, err := io.ReadAll(io.LimitReader(r.Body, l.settings.maxBodyBytes+1))
	truncated := int64(len(prefix)) > l.settings.maxBodyBytes
	r.Body = &replayBody{
		Reader: io.MultiReader(bytes.NewReader(prefix), r.Body),
		closer: r.Body,
	}
	if err != nil {
		core.LogWarn(r.Context(), l.logger, "request body could not be captured", map[string]any{
			"error": err.Error(),
		})
	}
	if truncated {
		prefix = prefix[:l.settings.maxBodyBytes]
	}
	return string(prefix), truncated
}

func (l *exchangeLogger) logRequest(ctx context.Context, r *http.Request, requestID string, body string, truncated bool) {
	fields := map[string]any{
		"request_id": requestID,
		"method":     r.Method,
		"path":       r.URL.Path,
		"query":      r.URL.RawQuery,
	}
	core.LogInfo(ctx, l.logger, "http request received", fields)

	if l.settings.maxBodyBytes == 0 {
		return
	}
	core.LogInfo(ctx, l.logger, "http request body", map[string]any{
		"request_id": requestID,
		"body":       body,
		"truncated":  truncated,
	})
}

func (l *exchangeLogger) logResponse(ctx context.Context, requestID string, status int, capture *bodyCapture, startedAt time.Time) {
	fields := map[string]any{
		"request_id":  requestID,
		"status":      status,
		"bytes":       capture.written,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
	if l.settings.maxBodyBytes > 0 {
		fields["body"] = capture.String()
		fields["truncated"] = capture.truncated()
	}
	core.LogInfo(ctx, l.logger, "http response sent", fields)
}

type replayBody struct {
	io.Reader
	closer io.Closer
}

func (b *replayBody) Close() error {
	return b.closer.Close()
}

// bodyCapture keeps the first limit bytes written through it and counts the
// rest.
type bodyCapture struct {
	limit   int64
	buf     bytes.Buffer
	written int64
}

func (c *bodyCapture) record(p []byte) {
	c.written += int64(len(p))
	remaining := c.limit - int64(c.buf.Len())
	if remaining <= 0 {
		return
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	c.buf.Write(p)
}

func (c *bodyCapture) String() string {
	return c.buf.String()
}

func (c *bodyCapture) truncated() bool {
	return c.written > int64(c.buf.Len())
}
