// Package httpserver builds the HTTP servers fronting each domain service.
package httpserver

import (
	"net/http"
	"time"
)

// New builds a server for a domain API. Requests here are small JSON
// bodies, so slow reads get cut off early. There is deliberately no write
// timeout: the notifier upgrades /ws on this server and a write deadline
// would apply before the hijack.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
