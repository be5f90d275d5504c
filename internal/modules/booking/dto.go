package booking

import "cleanmarket/internal/domain"

type CreateBookingRequest struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	CustomerPhone string `json:"customer_phone"`

	BusinessID   string `json:"business_id" binding:"required"`
	BusinessName string `json:"business_name" binding:"required"`

	ServiceID   string `json:"service_id" binding:"required"`
	ServiceName string `json:"service_name" binding:"required"`
	Category    string `json:"category"`

	RequestedDate string `json:"requested_date" binding:"required"`
	RequestedTime string `json:"requested_time" binding:"required"`

	// Gross amount in pence. Must equal the amount captured on the
	// payment intent.
	TotalCost int64 `json:"total_cost" binding:"required,gt=0"`

	SpecialInstructions string `json:"special_instructions"`

	// Client secret of the intent created via the payments endpoint and
	// completed by the payer before this request.
	PaymentClientSecret string `json:"payment_client_secret" binding:"required"`
}

type UpdateStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	ResponseMessage string `json:"response_message"`
}

type CancelBookingRequest struct {
	CancelledBy        string `json:"cancelled_by" binding:"required"`
	CancellationReason string `json:"cancellation_reason" binding:"required"`
}

// RefundOutcome reports what happened to the money during a cancellation,
// separately from whether the cancellation itself took effect.
type RefundOutcome struct {
	Attempted bool                `json:"attempted"`
	Status    domain.RefundStatus `json:"status,omitempty"`
	RefundID  string              `json:"refund_id,omitempty"`
}

type CancelResult struct {
	Booking *domain.BookingRequest `json:"booking"`
	Refund  RefundOutcome          `json:"refund"`
}
