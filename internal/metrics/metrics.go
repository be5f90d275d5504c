package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cleanmarket",
			Name:      "bookings_created_total",
			Help:      "Bookings persisted after confirmed payment.",
		},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cleanmarket",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by event.",
		},
		[]string{"event"},
	)

	refunds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cleanmarket",
			Name:      "refunds_total",
			Help:      "Refund attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers the booking metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, transitions, refunds)
	})
}

func IncBookingCreated() { bookingsCreated.Inc() }

// IncTransition counts a successful transition event (accept, decline,
// cancel, complete).
func IncTransition(event string) { transitions.WithLabelValues(event).Inc() }

// IncRefund counts a refund attempt outcome (processed, failed).
func IncRefund(outcome string) { refunds.WithLabelValues(outcome).Inc() }
