// Package httpserver builds the http.Server the roster API runs on.
package httpserver

import (
	"net/http"
	"time"
)

// New binds the router to addr. ReadHeaderTimeout guards against
// slow-header clients; per-request deadlines come from the router's
// timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
