package api

import (
	"net/http"
	"time"

	"github.com/sparible/storefront/pkg/config"
	"github.com/sparible/storefront/pkg/env"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
)

// NewServer returns the HTTP server cmd/storefront runs. PORT, when set by the
// platform, wins over the configured port. The write timeout spans three
// chained backend calls.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + env.Get("PORT", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      3*cfg.Backend.Timeout + readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}
