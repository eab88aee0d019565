// Package metric provides Prometheus metrics infrastructure for
// NeuroStreams.
//
// A MetricsRegistry owns a private prometheus.Registry preloaded with
// the core platform metrics (service status, message counters,
// processing durations, NATS connection state) and the atlas counters
// shared by the lookup service and the annotator
// (neurostreams_atlas_lookups_total, neurostreams_atlas_unknown_regions_total).
//
// Components register their own collectors under a service.metric key:
//
//	registry := metric.NewMetricsRegistry()
//	err := registry.RegisterCollector("annotator", "dropped_total", droppedCounter)
//
// Duplicate keys and Prometheus-level conflicts are rejected as
// invalid rather than panicking, so a misconfigured component cannot
// take down the process.
//
// The Server exposes the registry over HTTP (promhttp with OpenMetrics
// enabled) together with a trivial /health endpoint:
//
//	srv := metric.NewServer(9090, "/metrics", registry)
//	go func() { _ = srv.Start() }()
//	defer srv.Stop()
package metric
