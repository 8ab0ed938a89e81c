package stats

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/gsg/prepared"
)

// Namespace prefixes every exported metric.
const Namespace = "gsg"

// Prometheus is a Sink backed by client_golang collectors.
type Prometheus struct {
	events    *prometheus.CounterVec
	resources *prometheus.GaugeVec
}

// NewPrometheus creates the collectors and registers them on reg.
// Collectors already registered by an earlier guardian are reused.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "events_total",
		Help:      "Guardian events by kind.",
	}, []string{"event"})
	resources := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "resources",
		Help:      "Live prepared resources by kind.",
	}, []string{"kind"})

	var err error
	if events, err = register(reg, events); err != nil {
		return nil, err
	}
	if resources, err = register(reg, resources); err != nil {
		return nil, err
	}
	return &Prometheus{events: events, resources: resources}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Count implements Sink.
func (p *Prometheus) Count(event Event, n int) {
	p.events.WithLabelValues(string(event)).Add(float64(n))
}

// SetResources implements Sink.
func (p *Prometheus) SetResources(kind prepared.Kind, n int) {
	p.resources.WithLabelValues(kind.String()).Set(float64(n))
}

// Events returns the event counter vector.
func (p *Prometheus) Events() *prometheus.CounterVec { return p.events }

// Resources returns the resource gauge vector.
func (p *Prometheus) Resources() *prometheus.GaugeVec { return p.resources }
