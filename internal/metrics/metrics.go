// Package metrics records resolution outcomes as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/cartpilot/internal/engine"
	"github.com/roach88/cartpilot/internal/ir"
)

// Recorder implements engine.Observer on its own registry, so several
// pipelines (and tests) never collide on the global default registry.
type Recorder struct {
	registry *prometheus.Registry

	resolutionsTotal   *prometheus.CounterVec
	failuresTotal      *prometheus.CounterVec
	issuesTotal        prometheus.Counter
	unmatchedTotal     *prometheus.CounterVec
	completenessRatio  prometheus.Histogram
	resolutionDuration prometheus.Histogram
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartpilot_resolutions_total",
				Help: "Number of successful resolutions by scenario.",
			},
			[]string{"scenario"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartpilot_resolution_failures_total",
				Help: "Number of failed resolutions by error code.",
			},
			[]string{"code"},
		),
		issuesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cartpilot_compatibility_issues_total",
				Help: "Total number of incompatible component pairs found.",
			},
		),
		unmatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cartpilot_unmatched_components_total",
				Help: "Number of times a component had no matching catalog product.",
			},
			[]string{"component"},
		),
		completenessRatio: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cartpilot_completeness_ratio",
				Help:    "Completeness score of resolved carts.",
				Buckets: []float64{0, 0.25, 0.5, 0.75, 0.9, 1},
			},
		),
		resolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cartpilot_resolution_duration_seconds",
				Help:    "Time taken to resolve a goal, including catalog load.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	r.registry.MustRegister(
		r.resolutionsTotal,
		r.failuresTotal,
		r.issuesTotal,
		r.unmatchedTotal,
		r.completenessRatio,
		r.resolutionDuration,
	)
	return r
}

// ObserveResolution implements engine.Observer.
func (r *Recorder) ObserveResolution(res *ir.Result, elapsed time.Duration) {
	r.resolutionsTotal.WithLabelValues(string(res.Metadata.ParsedIntent.Scenario)).Inc()
	r.issuesTotal.Add(float64(res.Metadata.CompatibilityIssuesCount))
	for _, c := range res.Metadata.UnmatchedComponents {
		r.unmatchedTotal.WithLabelValues(string(c)).Inc()
	}
	r.completenessRatio.Observe(res.CompletenessScore)
	r.resolutionDuration.Observe(elapsed.Seconds())
}

// ObserveFailure implements engine.Observer.
func (r *Recorder) ObserveFailure(err *engine.PipelineError, elapsed time.Duration) {
	r.failuresTotal.WithLabelValues(string(err.Code)).Inc()
	r.resolutionDuration.Observe(elapsed.Seconds())
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteText writes all metrics in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
