package httpserver

import (
	"net/http"
	"time"
)

// New builds the server that fronts the team management API. Per-route
// timeouts live in the router middleware; only the header read timeout is
// set here so a stalled client cannot hold a connection open for free.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
