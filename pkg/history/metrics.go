package history

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts history decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics creates unregistered collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "bpmx"
	}
	return &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "events_total",
				Help:      "History events seen by a level, by event type and decision.",
			}, []string{"level", "type", "produced"},
		),
	}
}

// Register registers the collectors. Registering the same Metrics twice is not an error.
func (m *Metrics) Register(r prometheus.Registerer) error {
	if err := r.Register(m.decisions); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// Decisions exposes the underlying counter vector.
func (m *Metrics) Decisions() *prometheus.CounterVec {
	return m.decisions
}

func (m *Metrics) observe(level string, t EventType, produced bool) {
	m.decisions.WithLabelValues(level, string(t), strconv.FormatBool(produced)).Inc()
}

type instrumentedLevel struct {
	Level
	metrics *Metrics
}

// Instrument wraps l so every decision is counted in m.
func Instrument(l Level, m *Metrics) Level {
	if m == nil {
		return l
	}
	return &instrumentedLevel{Level: l, metrics: m}
}

func (i *instrumentedLevel) IsHistoryEventProduced(t EventType, entity Entity) bool {
	produced := i.Level.IsHistoryEventProduced(t, entity)
	i.metrics.observe(i.Level.Name(), t, produced)
	return produced
}
