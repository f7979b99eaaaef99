// Package metrics provides the observability hooks for assetpipe builds.
//
// Components receive a Recorder through dependency injection. NoopRecorder is the default
// and costs nothing; PrometheusRecorder is swapped in when metrics are enabled, and
// HTTPHandler exposes its registry (the watch command serves it on metrics.addr).
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	orch := build.NewOrchestrator().WithRecorder(recorder)
package metrics
