package notification

import "github.com/prometheus/client_golang/prometheus"

// Email outcomes
const (
	outcomeSent   = "sent"
	outcomeFailed = "failed"
)

// Metrics counts the fanout side effects. A nil *Metrics records nothing.
type Metrics struct {
	NotificationsCreated *prometheus.CounterVec
	EmailsSent           *prometheus.CounterVec
}

// NewMetrics creates the fanout counters and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "academia_notifications_created_total",
				Help: "Total number of notifications created by the fanout",
			},
			[]string{"event"},
		),
		EmailsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "academia_emails_sent_total",
				Help: "Total number of fanout emails, by outcome",
			},
			[]string{"event", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NotificationsCreated, m.EmailsSent)
	}
	return m
}

func (m *Metrics) notificationsCreated(event string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.NotificationsCreated.WithLabelValues(event).Add(float64(n))
}

func (m *Metrics) emailsSent(event, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.EmailsSent.WithLabelValues(event, outcome).Add(float64(n))
}
