// Package httpserver builds the service's http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server with timeouts sized for this workload. WriteTimeout
// leaves headroom for the first valid scan of a registrant, which renders
// certificate artifacts inline before responding.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
