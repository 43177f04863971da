package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2m_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "c2m_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2m_check_ins_total",
			Help: "Total number of gym check-ins",
		},
		[]string{"session_type", "status"},
	)

	CheckOutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "c2m_check_outs_total",
			Help: "Total number of gym check-outs",
		},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2m_webhook_events_total",
			Help: "Total number of payment webhook events received",
		},
		[]string{"type", "status"},
	)

	SessionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2m_sessions_created_total",
			Help: "Total number of class sessions created",
		},
		[]string{"kind"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2m_bookings_total",
			Help: "Total number of class bookings",
		},
		[]string{"status"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2m_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "c2m_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	MembershipsUpdatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2m_memberships_updated_total",
			Help: "Total number of membership ledger mutations",
		},
		[]string{"source"},
	)

	ActiveMemberships = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "c2m_active_memberships",
			Help: "Number of active memberships",
		},
		[]string{"plan"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCheckIn(sessionType, status string) {
	CheckInsTotal.WithLabelValues(sessionType, status).Inc()
}

func RecordCheckOut() {
	CheckOutsTotal.Inc()
}

func RecordWebhookEvent(eventType, status string) {
	WebhookEventsTotal.WithLabelValues(eventType, status).Inc()
}

func RecordSessionCreated(kind string) {
	SessionsCreatedTotal.WithLabelValues(kind).Inc()
}

func RecordBooking(status string) {
	BookingsTotal.WithLabelValues(status).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordMembershipUpdate(source string) {
	MembershipsUpdatedTotal.WithLabelValues(source).Inc()
}
