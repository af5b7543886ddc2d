// Package metrics exposes Prometheus metrics for the gridtime daemon:
// timer operations by outcome, settings-cache effectiveness and uptime.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Exporter owns the metric registry and serves the text exposition format
// at /metrics.
type Exporter struct {
	registry  *prometheus.Registry
	startTime time.Time

	timerOps     *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

// NewExporter creates an exporter with a private registry.
func NewExporter() *Exporter {
	e := &Exporter{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
		timerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridtime_timer_ops_total",
			Help: "Timer operations by operation and result",
		}, []string{"op", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridtime_settings_cache_lookups_total",
			Help: "Settings cache lookups by outcome",
		}, []string{"outcome"}),
	}

	e.registry.MustRegister(e.timerOps, e.cacheLookups)
	e.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gridtime_uptime_seconds",
		Help: "Seconds since the daemon started",
	}, func() float64 {
		return time.Since(e.startTime).Seconds()
	}))

	return e
}

// RecordTimerOp counts a start/stop outcome ("ok", "conflict", "idle",
// "error").
func (e *Exporter) RecordTimerOp(op, result string) {
	e.timerOps.WithLabelValues(op, result).Inc()
}

// RecordCacheLookup counts a settings cache lookup ("hit" or "miss").
// Satisfies settings.Recorder.
func (e *Exporter) RecordCacheLookup(outcome string) {
	e.cacheLookups.WithLabelValues(outcome).Inc()
}

// ServeHTTP serves the registry in Prometheus text exposition format.
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	families, err := e.registry.Gather()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}
}
