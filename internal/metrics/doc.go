// Package metrics provides the observability hooks of the asset pipeline.
//
// Components receive a Recorder through their constructors. NoopRecorder is
// the default; the dev server swaps in a PrometheusRecorder when
// server.metrics is enabled and exposes it at /__metrics:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/__metrics", metrics.HTTPHandler(reg))
package metrics
