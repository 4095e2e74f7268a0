package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-botbase/core"
	goerrors "github.com/goliatone/go-errors"
)

type user struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type capturedRequest struct {
	method string
	header http.Header
	body   string
}

func newRecordingServer(t *testing.T, status int, response string) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []capturedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{method: r.Method, header: r.Header.Clone(), body: string(body)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]capturedRequest, len(requests))
		copy(out, requests)
		return out
	}
}

func newTestExecutor(t *testing.T, cfg core.HTTPConfig, opts ...Option) *Executor {
	t.Helper()
	executor, err := NewExecutor(cfg, opts...)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	return executor
}

func TestPerformRequest_SuccessDecodesModel(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `{"id":7,"name":"nightbot"}`)
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))

	result := Get[user](context.Background(), executor, server.URL+"/users/7")
	if !result.Succeeded {
		t.Fatalf("expected success, got %#v", result)
	}
	if result.ErrorMessage != "" {
		t.Fatalf("expected empty error message on success, got %q", result.ErrorMessage)
	}
	if result.Model == nil || result.Model.ID != 7 || result.Model.Name != "nightbot" {
		t.Fatalf("unexpected model %#v", result.Model)
	}
	if got := requests()[0].header.Get("Accept"); got != ContentTypeJSON {
		t.Fatalf("expected forced Accept header, got %q", got)
	}
}

func TestPerformRequest_HeaderInjection(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `{}`)
	executor := newTestExecutor(t, core.HTTPConfig{UserAgent: "botbase-test"}, WithHTTPClient(server.Client()))

	result := PerformRequest[user](context.Background(), executor, Request{
		URI:    server.URL,
		Method: MethodGet,
		Headers: Headers{
			{Key: "OAuth", Value: "abc"},
			{Key: "X-Custom", Value: "custom-value"},
			{Key: "Accept", Value: "text/html"},
		},
	})
	if !result.Succeeded {
		t.Fatalf("expected success, got %#v", result)
	}

	header := requests()[0].header
	if got := header.Get("Authorization"); got != "OAuth abc" {
		t.Fatalf("expected OAuth authorization, got %q", got)
	}
	if got := header.Get("X-Custom"); got != "custom-value" {
		t.Fatalf("expected literal X-Custom header, got %q", got)
	}
	if got := header.Get("Accept"); got != ContentTypeJSON {
		t.Fatalf("expected Accept to be forced regardless of caller input, got %q", got)
	}
	if got := header.Get("User-Agent"); got != "botbase-test" {
		t.Fatalf("expected configured user agent, got %q", got)
	}
}

func TestPerformRequest_BearerSchemeAndCustomSchemes(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `{}`)

	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))
	_ = Get[user](context.Background(), executor, server.URL, Header{Key: "bearer", Value: "token-1"})
	if got := requests()[0].header.Get("Authorization"); got != "Bearer token-1" {
		t.Fatalf("expected canonical Bearer scheme, got %q", got)
	}

	custom := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()), WithAuthSchemes("Basic"))
	_ = Get[user](context.Background(), custom, server.URL,
		Header{Key: "Basic", Value: "dXNlcjpwYXNz"},
		Header{Key: "OAuth", Value: "literal"},
	)
	header := requests()[1].header
	if got := header.Get("Authorization"); got != "Basic dXNlcjpwYXNz" {
		t.Fatalf("expected custom scheme authorization, got %q", got)
	}
	if got := header.Get("OAuth"); got != "literal" {
		t.Fatalf("expected OAuth to be a literal header once schemes are replaced, got %q", got)
	}
}

func TestPerformRequest_GetAndDeleteNeverSendBody(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `{}`)
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))

	for _, method := range []Method{MethodGet, MethodDelete} {
		result := PerformRequest[user](context.Background(), executor, Request{
			URI:     server.URL,
			Method:  method,
			Content: user{ID: 1, Name: "ignored"},
		})
		if !result.Succeeded {
			t.Fatalf("%s: expected success, got %#v", method, result)
		}
	}

	for _, request := range requests() {
		if request.body != "" {
			t.Fatalf("%s: expected empty body, got %q", request.method, request.body)
		}
		if request.header.Get("Content-Type") != "" {
			t.Fatalf("%s: expected no content type, got %q", request.method, request.header.Get("Content-Type"))
		}
	}
}

func TestPerformRequest_PostAndPutEncodeContentByType(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `{"id":1,"name":"ok"}`)
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))
	ctx := context.Background()

	payload := user{ID: 3, Name: "moobot"}
	_ = Post[user](ctx, executor, server.URL, payload)
	_ = Put[user](ctx, executor, server.URL, FormContent{"name": {"a b"}, "id": {"3"}})
	_ = Post[user](ctx, executor, server.URL, url.Values{"scope": {"chat:read"}})
	_ = Put[user](ctx, executor, server.URL, RawContent{Body: "raw text"})
	_ = Post[user](ctx, executor, server.URL, RawContent{Body: "<xml/>", ContentType: "application/xml"})

	expectedJSON, err := core.NewJSONCodec().Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	got := requests()
	if len(got) != 5 {
		t.Fatalf("expected 5 requests, got %d", len(got))
	}
	cases := []struct {
		method      string
		body        string
		contentType string
	}{
		{method: http.MethodPost, body: string(expectedJSON), contentType: ContentTypeJSON},
		{method: http.MethodPut, body: "id=3&name=a+b", contentType: ContentTypeForm},
		{method: http.MethodPost, body: "scope=chat%3Aread", contentType: ContentTypeForm},
		{method: http.MethodPut, body: "raw text", contentType: ContentTypeText},
		{method: http.MethodPost, body: "<xml/>", contentType: "application/xml"},
	}
	for index, tc := range cases {
		if got[index].method != tc.method {
			t.Fatalf("request %d: expected method %s, got %s", index, tc.method, got[index].method)
		}
		if got[index].body != tc.body {
			t.Fatalf("request %d: expected body %q, got %q", index, tc.body, got[index].body)
		}
		if ct := got[index].header.Get("Content-Type"); ct != tc.contentType {
			t.Fatalf("request %d: expected content type %q, got %q", index, tc.contentType, ct)
		}
	}
}

func TestPerformRequest_NonSuccessStatusIsTransportFailure(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusNotFound, `{"id":9,"name":"should not decode"}`)
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))

	result := Get[user](context.Background(), executor, server.URL)
	if result.Succeeded {
		t.Fatalf("expected failure")
	}
	if result.Model != nil {
		t.Fatalf("expected nil model on failure, got %#v", result.Model)
	}
	if result.ErrorMessage != "response status code does not indicate success: 404 (Not Found)" {
		t.Fatalf("unexpected transport message %q", result.ErrorMessage)
	}
	if !IsTransportFailure(result.Err()) {
		t.Fatalf("expected transport failure cause, got %v", result.Err())
	}
}

func TestPerformRequest_ConnectionRefusedKeepsTransportMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := server.URL
	server.Close()

	executor := newTestExecutor(t, core.HTTPConfig{})
	result := Post[user](context.Background(), executor, target, user{Name: "x"})
	if result.Succeeded || result.Model != nil {
		t.Fatalf("expected failed envelope without model, got %#v", result)
	}
	if strings.TrimSpace(result.ErrorMessage) == "" {
		t.Fatalf("expected non-empty transport message")
	}
	if result.ErrorMessage == "An unexpected error occurred." {
		t.Fatalf("expected the transport message instead of the generic fallback")
	}
	if !IsTransportFailure(result.Cause) {
		t.Fatalf("expected transport failure cause, got %v", result.Cause)
	}
}

func TestPerformRequest_DecodeFailureIsNormalized(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `{"id":"not-a-number"`)
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))

	result := Get[user](context.Background(), executor, server.URL)
	if result.Succeeded || result.Model != nil {
		t.Fatalf("expected failed envelope, got %#v", result)
	}
	if result.ErrorMessage != "An unexpected error occurred." {
		t.Fatalf("expected generic localized message, got %q", result.ErrorMessage)
	}
	if !core.HasTextCode(result.Cause, core.ErrorDecodeFailure) {
		t.Fatalf("expected decode failure cause, got %v", result.Cause)
	}
}

func TestPerformRequest_LocalizesGenericMessage(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `not json`)
	localizer := core.NewCatalogLocalizer("en")
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()), WithLocalizer(localizer))

	ctx := core.ContextWithLocale(context.Background(), "fr-FR")
	result := Get[user](ctx, executor, server.URL)
	if result.ErrorMessage != "Une erreur inattendue s'est produite." {
		t.Fatalf("expected french generic message, got %q", result.ErrorMessage)
	}
}

func TestPerformRequest_UnsupportedMethodSendsNothing(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))

	result := PerformRequest[user](context.Background(), executor, Request{URI: server.URL, Method: "PATCH"})
	if result.Succeeded {
		t.Fatalf("expected failure for unsupported method")
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no request to be sent, got %d", hits.Load())
	}
	if !core.HasTextCode(result.Cause, core.ErrorUnsupportedMethod) {
		t.Fatalf("expected unsupported method cause, got %v", result.Cause)
	}
	if result.ErrorMessage != "An unexpected error occurred." {
		t.Fatalf("expected generic message, got %q", result.ErrorMessage)
	}
}

func TestPerformRequest_EmptyBodySucceedsWithoutModel(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusNoContent, "")
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))

	result := Delete[user](context.Background(), executor, server.URL+"/users/1")
	if !result.Succeeded || result.Model != nil || result.ErrorMessage != "" {
		t.Fatalf("expected empty success envelope, got %#v", result)
	}
}

func TestPerformRequest_EncodeFailureKeepsCause(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `{}`)
	sentinel := errors.New("cannot encode")
	executor := newTestExecutor(t, core.HTTPConfig{},
		WithHTTPClient(server.Client()),
		WithCodec(failingCodec{Codec: core.NewJSONCodec(), err: sentinel}),
	)

	result := Post[user](context.Background(), executor, server.URL, user{Name: "x"})
	if result.Succeeded {
		t.Fatalf("expected failure")
	}
	if !errors.Is(result.Cause, sentinel) {
		t.Fatalf("expected encode cause to be preserved, got %v", result.Cause)
	}
	if len(requests()) != 0 {
		t.Fatalf("expected no request to be sent")
	}
}

func TestPerformRequest_ResponseLimit(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `{"id":1,"name":"too long"}`)
	executor := newTestExecutor(t, core.HTTPConfig{MaxResponseBodyBytes: 4}, WithHTTPClient(server.Client()))

	result := Get[user](context.Background(), executor, server.URL)
	if result.Succeeded {
		t.Fatalf("expected failure for oversized body")
	}
	var rich *goerrors.Error
	if !goerrors.As(result.Cause, &rich) {
		t.Fatalf("expected go-errors cause, got %T", result.Cause)
	}
	if rich.Category != goerrors.CategoryExternal || rich.Code != http.StatusBadGateway {
		t.Fatalf("unexpected cause envelope category=%s code=%d", rich.Category, rich.Code)
	}
}

func TestPerformRequest_CancellationAndTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	canceled := Get[user](ctx, executor, server.URL)
	if canceled.Succeeded || !errors.Is(canceled.Err(), context.Canceled) {
		t.Fatalf("expected canceled failure, got %#v", canceled)
	}

	bounded := newTestExecutor(t, core.HTTPConfig{Timeout: 20 * time.Millisecond}, WithHTTPClient(server.Client()))
	timedOut := Get[user](context.Background(), bounded, server.URL)
	if timedOut.Succeeded || !errors.Is(timedOut.Err(), context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %#v", timedOut)
	}
	if timedOut.ErrorMessage == "" {
		t.Fatalf("expected transport message for timeout")
	}
}

func TestPerformRequest_LogsRequestDetailsWithRedaction(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `{"id":1,"name":"logged"}`)
	logger := newCaptureLogger()
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()), WithLogger(logger))

	_ = Post[user](context.Background(), executor, server.URL+"/users", user{Name: "logged"},
		Header{Key: "Bearer", Value: "secret-token"},
		Header{Key: "X-Custom", Value: "visible"},
	)

	if records := logger.find("transport outbound request"); len(records) != 1 || records[0].fields["uri"] != server.URL+"/users" {
		t.Fatalf("expected outbound uri log, got %#v", records)
	}
	if records := logger.find("transport outbound body"); len(records) != 1 {
		t.Fatalf("expected outbound body log, got %#v", records)
	}
	if records := logger.find("transport inbound body"); len(records) != 1 || records[0].fields["body"] != `{"id":1,"name":"logged"}` {
		t.Fatalf("expected inbound body log, got %#v", records)
	}

	headers := map[string]any{}
	for _, record := range logger.find("transport outbound header") {
		headers[fmt.Sprint(record.fields["header"])] = record.fields["value"]
	}
	if headers["Authorization"] != core.RedactedValue {
		t.Fatalf("expected authorization to be redacted, got %#v", headers["Authorization"])
	}
	if headers["X-Custom"] != "visible" {
		t.Fatalf("expected custom header to be logged, got %#v", headers["X-Custom"])
	}
}

func TestPerformRequest_PanickingLoggerDoesNotAffectResult(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `{"id":2,"name":"safe"}`)
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()), WithLogger(panicLogger{}))

	result := Get[user](context.Background(), executor, server.URL)
	if !result.Succeeded || result.Model == nil || result.Model.Name != "safe" {
		t.Fatalf("expected logging failures to be ignored, got %#v", result)
	}
}

func TestPerformRequest_RecordsMetrics(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusAccepted, `{}`)
	recorder := &captureMetricsRecorder{}
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()), WithMetricsRecorder(recorder))

	_ = Put[user](context.Background(), executor, server.URL, user{Name: "m"})

	if len(recorder.counters) != 1 || recorder.counters[0].name != core.MetricTransportRequestTotal {
		t.Fatalf("expected request counter, got %#v", recorder.counters)
	}
	if recorder.counters[0].tags["method"] != http.MethodPut || recorder.counters[0].tags["status"] != "202" {
		t.Fatalf("unexpected counter tags %#v", recorder.counters[0].tags)
	}
	if len(recorder.histograms) != 1 || recorder.histograms[0].name != core.MetricTransportRequestDuration {
		t.Fatalf("expected duration histogram, got %#v", recorder.histograms)
	}
}

func TestPerformRequest_ConcurrentCallsKeepHeadersIsolated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"name":%q}`, r.Header.Get("Authorization"))
	}))
	defer server.Close()
	executor := newTestExecutor(t, core.HTTPConfig{}, WithHTTPClient(server.Client()))

	var wg sync.WaitGroup
	errs := make(chan string, 20)
	for index := 0; index < 20; index++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			token := fmt.Sprintf("token-%d", index)
			result := Get[user](context.Background(), executor, server.URL, Header{Key: "OAuth", Value: token})
			if !result.Succeeded || result.Model == nil || result.Model.Name != "OAuth "+token {
				errs <- fmt.Sprintf("call %d saw %#v", index, result.Model)
			}
		}(index)
	}
	wg.Wait()
	close(errs)
	for message := range errs {
		t.Fatalf("header leaked across calls: %s", message)
	}
}

func TestNewExecutor_RejectsNegativeLimits(t *testing.T) {
	if _, err := NewExecutor(core.HTTPConfig{Timeout: -time.Second}); !core.HasTextCode(err, core.ErrorBadInput) {
		t.Fatalf("expected bad input for negative timeout, got %v", err)
	}
	if _, err := NewExecutor(core.HTTPConfig{MaxResponseBodyBytes: -1}); !core.HasTextCode(err, core.ErrorBadInput) {
		t.Fatalf("expected bad input for negative body limit, got %v", err)
	}
}

func TestPerformRequest_NilExecutorAndMissingURI(t *testing.T) {
	result := PerformRequest[user](context.Background(), nil, Request{URI: "http://example.invalid", Method: MethodGet})
	if result.Succeeded || !core.HasTextCode(result.Cause, core.ErrorNotConfigured) {
		t.Fatalf("expected not configured failure, got %#v", result)
	}

	executor := newTestExecutor(t, core.HTTPConfig{})
	missing := PerformRequest[user](context.Background(), executor, Request{Method: MethodGet})
	if missing.Succeeded || !core.HasTextCode(missing.Cause, core.ErrorBadInput) {
		t.Fatalf("expected bad input failure, got %#v", missing)
	}
}

func TestHeadersFromMap_SortsKeys(t *testing.T) {
	headers := HeadersFromMap(map[string]string{"X-B": "2", "OAuth": "abc", "X-A": "1"})
	if len(headers) != 3 || headers[0].Key != "OAuth" || headers[1].Key != "X-A" || headers[2].Key != "X-B" {
		t.Fatalf("unexpected header order %#v", headers)
	}
	if HeadersFromMap(nil) != nil {
		t.Fatalf("expected nil headers for empty map")
	}
}
