package infra

import (
	"net/http"
	"time"
)

// NewHTTPServer builds the API's http.Server with the timeouts from config.
// Callers own the lifecycle: ListenAndServe to start, Shutdown to drain.
func NewHTTPServer(cfg *Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
}
