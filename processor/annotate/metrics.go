package annotateprocessor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/restingstate"
)

// serviceLabel is the value for the core metrics' service label.
const serviceLabel = "annotate-processor"

// annotateMetrics holds Prometheus metrics for the annotator.
type annotateMetrics struct {
	core *metric.Metrics

	annotationsTotal   *prometheus.CounterVec // by network
	droppedTotal       *prometheus.CounterVec // by reason
	annotationDuration prometheus.Histogram
}

// newAnnotateMetrics creates and registers annotator metrics with the
// provided registry.
func newAnnotateMetrics(registry *metric.MetricsRegistry) (*annotateMetrics, error) {
	if registry == nil {
		return nil, nil // metrics disabled
	}

	m := &annotateMetrics{
		core: registry.CoreMetrics(),

		annotationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "annotate",
			Name:      "annotations_total",
			Help:      "Total observations labeled with a network, by network",
		}, []string{"network"}),

		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "annotate",
			Name:      "dropped_total",
			Help:      "Total observations dropped without publishing, by reason",
		}, []string{"reason"}), // reason: invalid, unknown_region, hemisphere, marshal, publish

		annotationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neurostreams",
			Subsystem: "annotate",
			Name:      "annotation_duration_seconds",
			Help:      "Time from lookup to publish for one observation",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}

	if err := registry.RegisterCollector("annotate", "annotations_total", m.annotationsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCollector("annotate", "dropped_total", m.droppedTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCollector("annotate", "annotation_duration", m.annotationDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *annotateMetrics) recordReceived() {
	if m == nil {
		return
	}
	m.core.RecordMessageReceived(serviceLabel, "observation")
}

func (m *annotateMetrics) recordRunning(running bool) {
	if m == nil {
		return
	}
	status := 0
	if running {
		status = 2
	}
	m.core.RecordServiceStatus(serviceLabel, status)
	m.core.RecordHealthStatus(serviceLabel, running)
}

func (m *annotateMetrics) recordAnnotation(network restingstate.Network, duration time.Duration) {
	if m == nil {
		return
	}
	m.annotationsTotal.WithLabelValues(network.String()).Inc()
	m.annotationDuration.Observe(duration.Seconds())
	m.core.RecordMessageProcessed(serviceLabel, "observation", "annotated")
	m.core.RecordProcessingDuration(serviceLabel, "annotate", duration)
}

func (m *annotateMetrics) recordLookup(hemisphere restingstate.Hemisphere, network restingstate.Network) {
	if m == nil {
		return
	}
	m.core.RecordLookup(hemisphere.String(), network.String())
}

func (m *annotateMetrics) recordUnknownRegion(hemisphere restingstate.Hemisphere) {
	if m == nil {
		return
	}
	m.core.RecordUnknownRegion(hemisphere.String())
	m.recordDrop("unknown_region")
}

func (m *annotateMetrics) recordDrop(reason string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(reason).Inc()
	m.core.RecordMessageProcessed(serviceLabel, "observation", "dropped")
	m.core.RecordError(serviceLabel, reason)
}
