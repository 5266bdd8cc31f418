package metric

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clickgo/swrouter/errors"
)

// Server exposes a Registry's metrics over HTTP for Prometheus scraping.
// It is independent of the router's own handler surface (router.Router's
// ControlSocket-style handlers); this is strictly the /metrics endpoint.
type Server struct {
	addr     string
	path     string
	registry *Registry

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a metrics HTTP server bound to addr (e.g. ":9090")
// serving registry's metrics at path (default "/metrics" if empty).
func NewServer(addr, path string, registry *Registry) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{addr: addr, path: path, registry: registry}
}

// Start begins serving in the background. It returns once the listener is
// up or an error occurs binding it; shutdown happens via Stop.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.WrapFatalInternal(fmt.Errorf("server already running"), "metric.Server", "Start", s.addr)
	}
	if s.registry == nil {
		return errors.WrapFatalInternal(fmt.Errorf("nil registry"), "metric.Server", "Start", "")
	}

	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(s.registry.PrometheusRegistry(), promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.WrapFatalInternal(err, "metric.Server", "Start", s.addr)
	}

	s.server = &http.Server{Handler: mux}
	go func() {
		_ = s.server.Serve(ln)
	}()

	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	s.server = nil
	if err != nil {
		return errors.WrapTransient(err, "metric.Server", "Stop", s.addr)
	}
	return nil
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.addr
}
