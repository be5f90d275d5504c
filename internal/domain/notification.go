package domain

import "time"

// NotificationKind identifies the booking event a notification reports.
type NotificationKind string

const (
	NotifBookingRequested NotificationKind = "booking_requested"
	NotifBookingAccepted  NotificationKind = "booking_accepted"
	NotifBookingDeclined  NotificationKind = "booking_declined"
	NotifBookingCancelled NotificationKind = "booking_cancelled"
	NotifBookingCompleted NotificationKind = "booking_completed"
)

// Notification is an in-app message to one party about a booking event.
// Delivery is fire-and-forget; a lost notification never blocks a
// transition.
type Notification struct {
	ID          int64            `json:"id"`
	RecipientID string           `json:"recipient_id"`
	BookingID   string           `json:"booking_id"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
