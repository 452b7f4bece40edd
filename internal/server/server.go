package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"neohub_monitor/internal/config"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	httpServer *http.Server
}

const (
	maxHeaderBytes      = 1 << 20 // 1 MB
	readHeaderTimeout   = 10 * time.Second
	idleTimeout         = 60 * time.Second
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// newHTTPServer builds a configured *http.Server for cfg and handler.
// Zero timeouts fall back to the defaults.
func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	read := cfg.ReadTimeout
	if read <= 0 {
		read = defaultReadTimeout
	}
	write := cfg.WriteTimeout
	if write <= 0 {
		write = defaultWriteTimeout
	}
	return &http.Server{
		Addr:              normalizeAddr(cfg.Port),
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       read,
		WriteTimeout:      write,
		IdleTimeout:       idleTimeout,
	}
}

// normalizeAddr accepts "8080" or ":8080" and defaults to :8080.
func normalizeAddr(port string) string {
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Run starts the HTTP server with cfg and blocks until it stops.
func (s *Server) Run(cfg config.ServerConfig, handler http.Handler) error {
	s.httpServer = newHTTPServer(cfg, handler)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
