// Package prometheus exposes goOTT engine metrics as a prometheus.Collector.
//
// Counter names are prefixed goott_*_total; the verify latency histogram is
// goott_verify_latency_seconds. The collector reads Engine.MetricsSnapshot on
// each scrape and never mutates engine state.
package prometheus
