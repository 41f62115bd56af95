package matcher

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeMatched  = "matched"
	outcomePartial  = "partial"
	outcomeOverflow = "overflow"
	outcomeForeign  = "foreign"
)

// Metrics exports composite dispatch counters to Prometheus. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Sets      *prometheus.CounterVec
	Fallbacks prometheus.Counter
}

// NewMetrics creates the matcher metrics and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "devsync",
				Subsystem: "matcher",
				Name:      "sets_total",
				Help:      "Frame sets emitted by composite matchers, by outcome",
			},
			[]string{"matcher", "outcome"},
		),
		Fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "devsync",
				Subsystem: "matcher",
				Name:      "default_fallbacks_total",
				Help:      "Matcher trees built with the default topology instead of the requested one",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Sets, m.Fallbacks)
	}
	return m
}

func (m *Metrics) observe(matcher, outcome string) {
	if m == nil {
		return
	}
	m.Sets.WithLabelValues(matcher, outcome).Inc()
}

func (m *Metrics) fallback() {
	if m == nil {
		return
	}
	m.Fallbacks.Inc()
}
