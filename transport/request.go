package transport

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

func (m Method) Normalize() Method {
	return Method(strings.ToUpper(strings.TrimSpace(string(m))))
}

func (m Method) Supported() bool {
	switch m.Normalize() {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// carriesBody reports whether the verb transmits request content. GET and
// DELETE drop any supplied content.
func (m Method) carriesBody() bool {
	switch m.Normalize() {
	case MethodPost, MethodPut:
		return true
	default:
		return false
	}
}

const (
	SchemeOAuth  = "OAuth"
	SchemeBearer = "Bearer"

	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeText = "text/plain; charset=utf-8"
)

type Header struct {
	Key   string
	Value string
}

// Headers are applied in order. A later entry with the same key replaces an
// earlier one.
type Headers []Header

// HeadersFromMap builds an ordered header set, sorted by key.
func HeadersFromMap(values map[string]string) Headers {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make(Headers, 0, len(keys))
	for _, key := range keys {
		out = append(out, Header{Key: key, Value: values[key]})
	}
	return out
}

// FormContent is sent form encoded.
type FormContent url.Values

// RawContent is sent verbatim. ContentType defaults to plain text.
type RawContent struct {
	Body        string
	ContentType string
}

// Request describes one outbound exchange. Content is dispatched on its
// runtime type: FormContent or url.Values are form encoded, RawContent is sent
// as is, nil sends nothing, and any other value is JSON encoded.
type Request struct {
	URI     string
	Method  Method
	Content any
	Headers Headers
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}
