package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 10 * time.Second

// Exporter serves the runtime metrics over HTTP at /metrics.
type Exporter struct {
	addr     string
	server   *http.Server
	registry *prometheus.Registry
}

// NewExporter creates an exporter with all runtime and Go process
// metrics registered.
func NewExporter(addr string) *Exporter {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Exporter{addr: addr, registry: reg}
}

// Start serves until Shutdown or a listener error. Returns
// http.ErrServerClosed on graceful shutdown.
func (e *Exporter) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	e.server = &http.Server{
		Addr:              e.addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return e.server.ListenAndServe()
}

// Shutdown stops the exporter.
func (e *Exporter) Shutdown(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
