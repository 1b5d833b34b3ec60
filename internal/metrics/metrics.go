package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_bookings_total",
			Help: "Booking attempts by result",
		},
		[]string{"result"},
	)

	BookingCancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_booking_cancellations_total",
			Help: "Total number of cancelled bookings",
		},
		[]string{"reason"},
	)

	GymTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_gym_transitions_total",
			Help: "Gym status transitions",
		},
		[]string{"from", "to"},
	)

	MembershipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_memberships_total",
			Help: "Membership lifecycle events",
		},
		[]string{"event"},
	)

	MembershipsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymhub_memberships_expired_total",
			Help: "Lapsed memberships persisted as EXPIRED by the sweeper",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_notifications_total",
			Help: "Notifications by kind and status",
		},
		[]string{"kind", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymhub_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	ActivityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_activity_events_total",
			Help: "Activity records by action and publish status",
		},
		[]string{"action", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(result string) {
	BookingsTotal.WithLabelValues(result).Inc()
}

func RecordBookingCancellation(reason string, n int) {
	BookingCancellationsTotal.WithLabelValues(reason).Add(float64(n))
}

func RecordGymTransition(from, to string) {
	GymTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordMembership(event string) {
	MembershipsTotal.WithLabelValues(event).Inc()
}

func RecordExpiredMemberships(n int64) {
	MembershipsExpiredTotal.Add(float64(n))
}

func RecordNotification(kind, status string) {
	NotificationsTotal.WithLabelValues(kind, status).Inc()
}

func RecordActivity(action, status string) {
	ActivityEventsTotal.WithLabelValues(action, status).Inc()
}
