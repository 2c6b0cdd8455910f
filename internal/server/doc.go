// Package server exposes the HTTP and WebSocket API. Handlers return
// structured errors; the errors middleware translates them into JSON
// responses and logs them with request context.
package server
