// Package adminhttp exposes liveness and metrics endpoints for a mirroring
// Table over HTTP, for deployment alongside the process that owns the
// Table rather than as part of the client library itself.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	mirror "github.com/prash-mi/hbase-mirror"
)

// MetricsHandler is satisfied by contrib/metrics/vm.Collector.
type MetricsHandler interface {
	Handler(w http.ResponseWriter, r *http.Request)
}

// SinkInspector is satisfied by errorsink.MemorySink.
type SinkInspector interface {
	Len() int
}

// Server wires liveness, drain status, sink depth, and metrics scraping
// into a router for a single mirroring Table.
type Server struct {
	table   *mirror.Table
	metrics MetricsHandler
	sink    SinkInspector
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler exposes GET /metrics in Prometheus exposition format.
func WithMetricsHandler(h MetricsHandler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithSinkInspector exposes the Write-Error Sink's current depth via
// GET /debug/sink.
func WithSinkInspector(sink SinkInspector) Option {
	return func(s *Server) { s.sink = sink }
}

// NewServer builds the admin router for table.
//
// GET /healthz reports 200 while the table has not been closed, and 503
// afterward. GET /metrics and GET /debug/sink are only registered when the
// corresponding Option is given.
func NewServer(table *mirror.Table, opts ...Option) http.Handler {
	s := &Server{table: table}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)
	r.Get("/debug/refs", s.handleRefs)

	if s.metrics != nil {
		r.Get("/metrics", s.metrics.Handler)
	}
	if s.sink != nil {
		r.Get("/debug/sink", s.handleSink)
	}

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if s.table.Closed() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"closed"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRefs(w http.ResponseWriter, _ *http.Request) {
	select {
	case <-s.table.Done():
		writeJSON(w, map[string]bool{"drained": true})
	default:
		writeJSON(w, map[string]bool{"drained": false})
	}
}

func (s *Server) handleSink(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]int{"depth": s.sink.Len()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
