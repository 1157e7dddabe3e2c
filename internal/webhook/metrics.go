package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks request and delivery counters for the webhook server.
type Metrics struct {
	RequestsServed       *prometheus.CounterVec
	NotificationsSent    prometheus.Counter
	NotificationFailures prometheus.Counter
}

// NewMetrics creates and registers the server's prometheus collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "options_webhook",
				Subsystem: "server",
				Name:      "requests_served",
				Help:      "The total number of webhook requests served per endpoint",
			},
			[]string{"endpoint"},
		),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "options_webhook",
			Subsystem: "server",
			Name:      "notifications_sent",
			Help:      "The total number of messages delivered to the channel",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "options_webhook",
			Subsystem: "server",
			Name:      "notification_failures",
			Help:      "The total number of failed delivery attempts",
		}),
	}

	prometheus.MustRegister(m.RequestsServed)
	prometheus.MustRegister(m.NotificationsSent)
	prometheus.MustRegister(m.NotificationFailures)

	return m
}
