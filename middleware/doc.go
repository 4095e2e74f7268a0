// Package middleware logs inbound HTTP exchanges. The request body is handed
// to the next handler unchanged and the response is forwarded to the client
// as it is written; only a bounded copy of each body reaches the log.
package middleware
