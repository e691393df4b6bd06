// Package metrics exposes planning run metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

const namespace = "mrp"

// Recorder records run outcomes. A nil *Recorder is valid and records nothing.
type Recorder struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	activeRuns      prometheus.Gauge
	plannedOrders   *prometheus.CounterVec
	netRequirements prometheus.Counter
	warningsTotal   *prometheus.CounterVec
}

// NewRecorder creates the run metrics and registers them on reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished MRP runs by final status.",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of MRP runs.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_runs",
				Help:      "MRP runs currently executing.",
			},
		),
		plannedOrders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "planned_orders_total",
				Help:      "Planned orders generated by kind.",
			},
			[]string{"kind"},
		),
		netRequirements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "net_requirements_total",
				Help:      "Net requirements (shortage buckets) found.",
			},
		),
		warningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warnings_total",
				Help:      "Recoverable planning warnings by kind.",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		r.runsTotal, r.runDuration, r.activeRuns, r.plannedOrders, r.netRequirements, r.warningsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RunStarted marks a run as executing
func (r *Recorder) RunStarted() {
	if r == nil {
		return
	}
	r.activeRuns.Inc()
}

// RunFinished records the final status and duration of a run
func (r *Recorder) RunFinished(status entities.RunStatus, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.activeRuns.Dec()
	r.runsTotal.WithLabelValues(string(status)).Inc()
	r.runDuration.Observe(elapsed.Seconds())
}

// ItemPlanned records the output of one item
func (r *Recorder) ItemPlanned(requirements int, orders []*entities.PlannedOrder) {
	if r == nil {
		return
	}
	r.netRequirements.Add(float64(requirements))
	for _, order := range orders {
		r.plannedOrders.WithLabelValues(string(order.Kind)).Inc()
	}
}

// Warning records one run warning
func (r *Recorder) Warning(kind entities.WarningKind) {
	if r == nil {
		return
	}
	r.warningsTotal.WithLabelValues(string(kind)).Inc()
}

// RunsTotal returns the finished-run counter for status
func (r *Recorder) RunsTotal(status entities.RunStatus) prometheus.Counter {
	return r.runsTotal.WithLabelValues(string(status))
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
