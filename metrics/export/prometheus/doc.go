// Package prometheus renders client metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts a [cookai.Client] and exposes an [http.Handler]
// that renders all counters and histograms. Counter names are prefixed
// cookai_*_total; the single histogram is cookai_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate client state.
package prometheus
