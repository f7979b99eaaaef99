package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "assetpipe"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	artifacts      *prom.CounterVec
	cleanupRemoved prom.Counter
	cleanupWarn    prom.Counter
	rebuilds       *prom.CounterVec
	coalesced      *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A nil registry
// gets a private one so tests can construct recorders freely.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual stage invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total orchestrated build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		artifacts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Artifacts produced per stage",
		}, []string{"stage"}),
		cleanupRemoved: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_removed_files_total",
			Help:      "Output files removed by cleanup",
		}),
		cleanupWarn: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_warnings_total",
			Help:      "Output files cleanup could not remove",
		}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "incremental_rebuilds_total",
			Help:      "Rebuilds triggered by change events",
		}, []string{"stage", "scope"}),
		coalesced: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "coalesced_events_total",
			Help:      "Change events superseded inside the debounce window",
		}, []string{"stage"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.artifacts, pr.cleanupRemoved, pr.cleanupWarn, pr.rebuilds, pr.coalesced)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddArtifacts(stage string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.artifacts.WithLabelValues(stage).Add(float64(n))
}

func (p *PrometheusRecorder) IncCleanup(removed, warnings int) {
	if p == nil {
		return
	}
	p.cleanupRemoved.Add(float64(removed))
	p.cleanupWarn.Add(float64(warnings))
}

func (p *PrometheusRecorder) IncRebuild(stage string, scope RebuildScope) {
	if p == nil {
		return
	}
	p.rebuilds.WithLabelValues(stage, string(scope)).Inc()
}

func (p *PrometheusRecorder) IncCoalescedEvent(stage string) {
	if p == nil {
		return
	}
	p.coalesced.WithLabelValues(stage).Inc()
}
