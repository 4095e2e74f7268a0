package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-botbase/core"
)

// GinRequestResponseLogger is the gin flavour of RequestResponseLogger. The
// request id is also stored on the gin context under HeaderRequestID.
func GinRequestResponseLogger(logger core.Logger, opts ...Option) gin.HandlerFunc {
	exchange := newExchangeLogger(logger, opts)
	return func(c *gin.Context) {
		if exchange.skipped(c.Request) {
			c.Next()
			return
		}
		startedAt := time.Now()
		requestID := exchange.requestID(c.Request)
		ctx := ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(HeaderRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		body, truncated := exchange.captureRequestBody(c.Request)
		exchange.logRequest(ctx, c.Request, requestID, body, truncated)

		writer := &ginResponseRecorder{
			ResponseWriter: c.Writer,
			capture:        &bodyCapture{limit: exchange.settings.maxBodyBytes},
		}
		c.Writer = writer
		c.Next()

		exchange.logResponse(ctx, requestID, c.Writer.Status(), writer.capture, startedAt)
	}
}

type ginResponseRecorder struct {
	gin.ResponseWriter
	capture *bodyCapture
}

func (w *ginResponseRecorder) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.capture.record(p[:n])
	return n, err
}

func (w *ginResponseRecorder) WriteString(s string) (int, error) {
	n, err := w.ResponseWriter.WriteString(s)
	w.capture.record([]byte(s[:n]))
	return n, err
}
