package middleware

import (
	"net/http"
	"time"

	"github.com/goliatone/go-botbase/core"
)

// RequestResponseLogger returns net/http middleware that logs the path, query
// and body of each request and the status and body of its response.
func RequestResponseLogger(logger core.Logger, opts ...Option) func(http.Handler) http.Handler {
	exchange := newExchangeLogger(logger, opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exchange.skipped(r) {
				next.ServeHTTP(w, r)
				return
			}
			startedAt := time.Now()
			requestID := exchange.requestID(r)
			ctx := ContextWithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)
			w.Header().Set(HeaderRequestID, requestID)

			body, truncated := exchange.captureRequestBody(r)
			exchange.logRequest(ctx, r, requestID, body, truncated)

			recorder := &responseRecorder{
				ResponseWriter: w,
				capture:        &bodyCapture{limit: exchange.settings.maxBodyBytes},
			}
			next.ServeHTTP(recorder, r)
			exchange.logResponse(ctx, requestID, recorder.statusCode(), recorder.capture, startedAt)
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status  int
	capture *bodyCapture
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.capture.record(p[:n])
	return n, err
}

func (r *responseRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *responseRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
