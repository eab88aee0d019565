// Package neurostreams is a streaming platform for resting-state
// network analysis of cortical parcellation data.
//
// The core of the platform is the restingstate package: the static
// region-to-network ordering tables for both cerebral hemispheres,
// derived from Kabbara et al. (Sci Rep 7, 2936, 2017) on the
// Desikan-Killiany atlas. Around that reference data the platform
// provides:
//
//   - processor/annotate: subscribes to raw region observations on
//     NATS, labels each with its resting-state network, and republishes
//     the result. Observations for regions outside the parcellation are
//     counted and dropped, never guessed.
//   - service/lookup: answers region-to-network queries and full
//     ordering-table requests over NATS request/reply.
//   - output/websocket: broadcasts labeled observations to websocket
//     clients for live visualization.
//
// Supporting infrastructure: natsclient (connection management with a
// circuit breaker and JetStream access), metric (Prometheus registry
// and exposition server), config (JSON configuration with environment
// overrides), errors (classified errors), pkg/retry (bounded
// exponential backoff), and component (lifecycle management).
//
// The cmd/neurostreams binary wires everything together from a single
// JSON configuration file.
package neurostreams
