package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-botbase/core"
	goerrors "github.com/goliatone/go-errors"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Executor sends one HTTP exchange per call and wraps the outcome in a
// core.Result. It holds no per call state and is safe for concurrent use.
type Executor struct {
	client               HTTPDoer
	codec                core.Codec
	localizer            core.Localizer
	logger               core.Logger
	loggerProvider       core.LoggerProvider
	metrics              core.MetricsRecorder
	authSchemes          []string
	timeout              time.Duration
	maxResponseBodyBytes int64
	userAgent            string
}

func NewExecutor(cfg core.HTTPConfig, opts ...Option) (*Executor, error) {
	if cfg.Timeout < 0 {
		return nil, transportError(
			"transport: timeout must not be negative",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"timeout": cfg.Timeout.String()},
		)
	}
	if cfg.MaxResponseBodyBytes < 0 {
		return nil, transportError(
			"transport: max response body bytes must not be negative",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"max_response_body_bytes": cfg.MaxResponseBodyBytes},
		)
	}

	executor := &Executor{
		authSchemes:          []string{SchemeOAuth, SchemeBearer},
		timeout:              cfg.Timeout,
		maxResponseBodyBytes: cfg.MaxResponseBodyBytes,
		userAgent:            strings.TrimSpace(cfg.UserAgent),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(executor)
	}

	if executor.client == nil {
		executor.client = &http.Client{}
	}
	if executor.codec == nil {
		executor.codec = core.NewJSONCodec()
	}
	if executor.localizer == nil {
		executor.localizer = core.NewCatalogLocalizer(core.DefaultLocale)
	}
	if executor.metrics == nil {
		executor.metrics = core.NopMetricsRecorder{}
	}
	if executor.maxResponseBodyBytes == 0 {
		executor.maxResponseBodyBytes = core.DefaultMaxResponseBodyBytes
	}
	executor.logger = core.ResolveLogger("transport", executor.loggerProvider, executor.logger)
	return executor, nil
}

// Do performs the exchange described by req. A non success status is reported
// as an error together with the response that carried it.
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	if e == nil || e.client == nil {
		return nil, transportError(
			"transport: executor requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := req.Method.Normalize()
	if !method.Supported() {
		return nil, transportError(
			"transport: unsupported http method "+strconv.Quote(string(req.Method)),
			goerrors.CategoryMethodNotAllowed,
			http.StatusMethodNotAllowed,
			map[string]any{"method": string(req.Method)},
		)
	}
	uri := strings.TrimSpace(req.URI)
	if uri == "" {
		return nil, transportError(
			"transport: request uri is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"method": string(method)},
		)
	}
	if _, err := url.ParseRequestURI(uri); err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request uri",
			http.StatusBadRequest,
			map[string]any{"method": string(method), "uri": uri},
		)
	}

	var (
		body        []byte
		contentType string
	)
	if method.carriesBody() {
		encoded, kind, err := e.encodeContent(req.Content)
		if err != nil {
			return nil, err
		}
		body, contentType = encoded, kind
	}

	requestCtx := ctx
	cancel := func() {}
	if e.timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(requestCtx, string(method), uri, reader)
	if err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"method": string(method), "uri": uri},
		)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if e.userAgent != "" {
		httpReq.Header.Set("User-Agent", e.userAgent)
	}
	e.applyHeaders(httpReq, req.Headers)

	e.logOutbound(ctx, httpReq, body)

	startedAt := time.Now()
	httpRes, err := e.client.Do(httpReq)
	if err != nil {
		e.observe(ctx, method, "error", startedAt)
		return nil, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"method": string(method), "uri": uri},
		)
	}
	defer httpRes.Body.Close()
	e.observe(ctx, method, strconv.Itoa(httpRes.StatusCode), startedAt)

	responseBody, err := io.ReadAll(io.LimitReader(httpRes.Body, e.maxResponseBodyBytes+1))
	if err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"method": string(method), "uri": uri, "status_code": httpRes.StatusCode},
		)
	}
	if int64(len(responseBody)) > e.maxResponseBodyBytes {
		return nil, transportError(
			"transport: response body exceeds limit of "+strconv.FormatInt(e.maxResponseBodyBytes, 10)+" bytes",
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{
				"method":           string(method),
				"uri":              uri,
				"status_code":      httpRes.StatusCode,
				"response_limit_b": e.maxResponseBodyBytes,
			},
		)
	}
	core.LogDebug(ctx, e.logger, "transport inbound body", map[string]any{
		"status_code": httpRes.StatusCode,
		"body":        string(responseBody),
	})

	response := &Response{
		StatusCode: httpRes.StatusCode,
		Headers:    httpRes.Header.Clone(),
		Body:       responseBody,
	}
	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		return response, statusError(httpRes, map[string]any{
			"method":      string(method),
			"uri":         uri,
			"status_code": httpRes.StatusCode,
		})
	}
	return response, nil
}

// PerformRequest executes req and decodes a JSON body into TOut. Failures never
// escape as errors: transport failures carry the transport message, anything
// else carries the localized generic message, and both keep the cause.
func PerformRequest[TOut any](ctx context.Context, executor *Executor, req Request) core.Result[TOut] {
	if ctx == nil {
		ctx = context.Background()
	}
	if executor == nil {
		cause := core.NewError("transport: executor is not configured", goerrors.CategoryInternal, core.ErrorNotConfigured)
		return core.Failure[TOut](core.NewCatalogLocalizer(core.DefaultLocale).Localize(ctx, core.MessageUnexpectedError), cause)
	}

	res, err := executor.Do(ctx, req)
	if err != nil {
		return failureResult[TOut](ctx, executor, req, err)
	}
	if len(bytes.TrimSpace(res.Body)) == 0 {
		return core.Success[TOut](nil)
	}

	var model TOut
	if err := executor.codec.Unmarshal(res.Body, &model); err != nil {
		decodeErr := core.WrapError(err, goerrors.CategoryInternal, core.ErrorDecodeFailure, "transport: decode response body")
		return failureResult[TOut](ctx, executor, req, decodeErr)
	}
	return core.Success(&model)
}

func Get[TOut any](ctx context.Context, executor *Executor, uri string, headers ...Header) core.Result[TOut] {
	return PerformRequest[TOut](ctx, executor, Request{URI: uri, Method: MethodGet, Headers: headers})
}

func Post[TOut any](ctx context.Context, executor *Executor, uri string, content any, headers ...Header) core.Result[TOut] {
	return PerformRequest[TOut](ctx, executor, Request{URI: uri, Method: MethodPost, Content: content, Headers: headers})
}

func Put[TOut any](ctx context.Context, executor *Executor, uri string, content any, headers ...Header) core.Result[TOut] {
	return PerformRequest[TOut](ctx, executor, Request{URI: uri, Method: MethodPut, Content: content, Headers: headers})
}

func Delete[TOut any](ctx context.Context, executor *Executor, uri string, headers ...Header) core.Result[TOut] {
	return PerformRequest[TOut](ctx, executor, Request{URI: uri, Method: MethodDelete, Headers: headers})
}

func failureResult[TOut any](ctx context.Context, executor *Executor, req Request, err error) core.Result[TOut] {
	message := executor.localizer.Localize(ctx, core.MessageUnexpectedError)
	if IsTransportFailure(err) {
		message = transportMessage(err)
	}
	core.LogError(ctx, executor.logger, "transport request failed", map[string]any{
		"method": string(req.Method),
		"uri":    strings.TrimSpace(req.URI),
		"error":  err.Error(),
	})
	return core.Failure[TOut](message, err)
}

func (e *Executor) encodeContent(content any) ([]byte, string, error) {
	switch typed := content.(type) {
	case nil:
		return nil, "", nil
	case FormContent:
		return []byte(url.Values(typed).Encode()), ContentTypeForm, nil
	case url.Values:
		return []byte(typed.Encode()), ContentTypeForm, nil
	case RawContent:
		return encodeRaw(typed), rawContentType(typed), nil
	case *RawContent:
		if typed == nil {
			return nil, "", nil
		}
		return encodeRaw(*typed), rawContentType(*typed), nil
	default:
		encoded, err := e.codec.Marshal(content)
		if err != nil {
			return nil, "", core.WrapError(err, goerrors.CategoryBadInput, core.ErrorBadInput, "transport: encode request content")
		}
		return encoded, ContentTypeJSON, nil
	}
}

func encodeRaw(content RawContent) []byte {
	return []byte(content.Body)
}

func rawContentType(content RawContent) string {
	if kind := strings.TrimSpace(content.ContentType); kind != "" {
		return kind
	}
	return ContentTypeText
}

// applyHeaders routes auth scheme keys to Authorization, sets everything else
// verbatim, and forces the JSON Accept header last.
func (e *Executor) applyHeaders(httpReq *http.Request, headers Headers) {
	for _, header := range headers {
		key := strings.TrimSpace(header.Key)
		if key == "" {
			continue
		}
		if scheme, ok := e.authScheme(key); ok {
			httpReq.Header.Set("Authorization", scheme+" "+strings.TrimSpace(header.Value))
			continue
		}
		httpReq.Header.Set(key, header.Value)
	}
	httpReq.Header.Set("Accept", ContentTypeJSON)
}

func (e *Executor) authScheme(key string) (string, bool) {
	for _, scheme := range e.authSchemes {
		if strings.EqualFold(scheme, key) {
			return scheme, true
		}
	}
	return "", false
}

func (e *Executor) logOutbound(ctx context.Context, httpReq *http.Request, body []byte) {
	core.LogInfo(ctx, e.logger, "transport outbound request", map[string]any{
		"method": httpReq.Method,
		"uri":    httpReq.URL.String(),
	})
	if len(body) > 0 {
		core.LogDebug(ctx, e.logger, "transport outbound body", map[string]any{
			"body": string(body),
		})
	}
	keys := make([]string, 0, len(httpReq.Header))
	for key := range httpReq.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		core.LogDebug(ctx, e.logger, "transport outbound header", map[string]any{
			"header": key,
			"value":  core.RedactHeaderValue(key, strings.Join(httpReq.Header.Values(key), ",")),
		})
	}
}

func (e *Executor) observe(ctx context.Context, method Method, status string, startedAt time.Time) {
	tags := map[string]string{
		"method": string(method),
		"status": status,
	}
	core.RecordCounter(ctx, e.metrics, core.MetricTransportRequestTotal, 1, tags)
	core.RecordHistogram(ctx, e.metrics, core.MetricTransportRequestDuration, float64(time.Since(startedAt).Milliseconds()), tags)
}
