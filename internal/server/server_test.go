package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"neohub_monitor/internal/config"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		"9090":  ":9090",
		":9090": ":9090",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewHTTPServer_Timeouts(t *testing.T) {
	srv := newHTTPServer(config.ServerConfig{Port: "9000", ReadTimeout: 5 * time.Second}, http.NotFoundHandler())
	if srv.Addr != ":9000" {
		t.Fatalf("unexpected addr %q", srv.Addr)
	}
	if srv.ReadTimeout != 5*time.Second || srv.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("unexpected timeouts read=%v write=%v", srv.ReadTimeout, srv.WriteTimeout)
	}
	if srv.MaxHeaderBytes != maxHeaderBytes {
		t.Fatalf("unexpected max header bytes %d", srv.MaxHeaderBytes)
	}
}

func TestShutdown_BeforeRun(t *testing.T) {
	var s Server
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
