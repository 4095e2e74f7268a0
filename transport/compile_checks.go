package transport

import "net/http"

var _ HTTPDoer = (*http.Client)(nil)
