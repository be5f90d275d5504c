package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingDeclined  BookingStatus = "declined"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingDeclined, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingDeclined, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// transitions is the single source of truth for the booking state machine.
// A pending request is declined, not cancelled, by the business; the
// pending -> cancelled edge exists for admin-initiated cancellation only
// and the service layer enforces the actor restriction.
var transitions = map[BookingStatus][]BookingStatus{
	BookingPending:  {BookingAccepted, BookingDeclined, BookingCancelled},
	BookingAccepted: {BookingCompleted, BookingCancelled},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type CancelActor string

const (
	CancelledByCustomer CancelActor = "customer"
	CancelledByBusiness CancelActor = "business"
	CancelledByAdmin    CancelActor = "admin"
)

func (a CancelActor) Valid() bool {
	switch a {
	case CancelledByCustomer, CancelledByBusiness, CancelledByAdmin:
		return true
	}
	return false
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundFailed    RefundStatus = "failed"
)

// SettlementMode records where a payment's funds were routed at intent
// creation time, so the refund path does not have to re-derive it.
type SettlementMode string

const (
	// SettlementConnected routes funds to the business's connected account
	// minus the platform's application fee.
	SettlementConnected SettlementMode = "connected"
	// SettlementPlatform keeps funds on the platform account; payout to the
	// business happens manually downstream. Degraded mode, not a failure.
	SettlementPlatform SettlementMode = "platform"
)

type Settlement struct {
	Mode      SettlementMode `json:"mode"`
	AccountID string         `json:"account_id,omitempty"`
}

// PaymentRecord is the slice of processor state the booking carries. The
// intent id is the only handle ever passed back to the processor.
type PaymentRecord struct {
	PaymentIntentID  string     `json:"payment_intent_id,omitempty"`
	CardLast4        string     `json:"card_last4,omitempty"`
	CardBrand        string     `json:"card_brand,omitempty"`
	Amount           int64      `json:"amount"`
	PlatformFee      int64      `json:"platform_fee"`
	BusinessEarnings int64      `json:"business_earnings"`
	Captured         bool       `json:"captured"`
	Settlement       Settlement `json:"settlement"`
}

// BookingRequest is a customer's paid request to purchase a service slot
// from a business. It is created only after payment confirmation and never
// physically deleted; decline and cancellation are terminal statuses.
type BookingRequest struct {
	ID string `json:"id"`

	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	BusinessID    string `json:"business_id"`
	BusinessName  string `json:"business_name"`

	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	Category    string `json:"category"`

	// Customer-chosen at creation, immutable thereafter.
	RequestedDate string `json:"requested_date"` // 2006-01-02
	RequestedTime string `json:"requested_time"` // 15:04

	// Pence. PlatformFee + BusinessEarnings == TotalCost exactly.
	TotalCost        int64 `json:"total_cost"`
	PlatformFee      int64 `json:"platform_fee"`
	BusinessEarnings int64 `json:"business_earnings"`

	Status BookingStatus `json:"status"`

	SpecialInstructions string      `json:"special_instructions,omitempty"`
	ResponseMessage     string      `json:"response_message,omitempty"`
	CancellationReason  string      `json:"cancellation_reason,omitempty"`
	CancelledBy         CancelActor `json:"cancelled_by,omitempty"`

	Payment PaymentRecord `json:"payment"`

	RefundStatus RefundStatus `json:"refund_status,omitempty"`
	RefundID     string       `json:"refund_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
