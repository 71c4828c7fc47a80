package metrics

import (
	"github.com/mikey/linkguard/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exports URL check statistics to Prometheus
type Recorder struct {
	Checks        *prometheus.CounterVec
	Flags         *prometheus.CounterVec
	RedirectHops  prometheus.Histogram
	CheckDuration prometheus.Histogram
	QueueDepth    prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		Checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkguard_checks_total",
				Help: "Total URL checks by outcome",
			},
			[]string{"outcome"},
		),
		Flags: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkguard_flags_total",
				Help: "Total flagged URLs by category",
			},
			[]string{"category"},
		),
		RedirectHops: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linkguard_redirect_hops",
				Help:    "Requests made per followed redirect chain",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
			},
		),
		CheckDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linkguard_check_duration_seconds",
				Help:    "Time spent checking one URL",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkguard_pool_queue_depth",
				Help: "URL checks waiting for a worker",
			},
		),
	}
}

// ObserveCheck records one delivered report
func (r *Recorder) ObserveCheck(report core.Report) {
	r.Checks.WithLabelValues(report.Outcome.String()).Inc()
	r.CheckDuration.Observe(report.Duration.Seconds())
	if report.Hops > 0 {
		r.RedirectHops.Observe(float64(report.Hops))
	}
	if report.Result.Flagged() {
		r.Flags.WithLabelValues(report.Result.Category.Name()).Inc()
	}
}

// SetQueueDepth records the dispatch pool backlog
func (r *Recorder) SetQueueDepth(depth int) {
	r.QueueDepth.Set(float64(depth))
}
