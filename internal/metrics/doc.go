// Package metrics provides build, stage and render metrics for the site builder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so collecting metrics never requires nil checks:
//
//	builder := build.NewBuilder(deps) // NoopRecorder
//	builder = builder.WithRecorder(metrics.NewPrometheusRecorder(prom.NewRegistry()))
//
// The Prometheus recorder can be scraped over HTTP (watch mode) or written
// to a node_exporter textfile after a one-shot build.
package metrics
