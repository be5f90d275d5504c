package booking

import (
	"context"

	"cleanmarket/internal/cache"
	"cleanmarket/internal/domain"
	"cleanmarket/internal/modules/payment"
	"cleanmarket/internal/repository"
)

// BookingRepository is the durable store for booking requests.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.BookingRequest) error
	GetByID(ctx context.Context, id string) (*domain.BookingRequest, error)
	ListByBusiness(ctx context.Context, businessID string) ([]domain.BookingRequest, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.BookingRequest, error)
	UpdateStatus(ctx context.Context, id string, newStatus domain.BookingStatus, fields repository.StatusUpdate) (*domain.BookingRequest, error)
	SetRefundOutcome(ctx context.Context, id string, status domain.RefundStatus, refundID string) error
}

// PaymentGateway is the processor boundary; no processor types cross it.
// Intent creation belongs to the payments endpoint; the engine only ever
// verifies an already-completed charge or refunds it.
type PaymentGateway interface {
	Confirm(ctx context.Context, clientSecret string) (*payment.Confirmation, error)
	Refund(ctx context.Context, paymentIntentID string, settlement domain.Settlement) (*payment.RefundResult, error)
}

// NotificationSender delivers status-change messages. Fire-and-forget:
// the engine never fails a transition over a notification error.
type NotificationSender interface {
	NotifyBookingRequested(ctx context.Context, b *domain.BookingRequest) error
	NotifyBookingAccepted(ctx context.Context, b *domain.BookingRequest) error
	NotifyBookingDeclined(ctx context.Context, b *domain.BookingRequest) error
	NotifyBookingCancelled(ctx context.Context, b *domain.BookingRequest, refunded bool) error
	NotifyBookingCompleted(ctx context.Context, b *domain.BookingRequest) error
}

// ListCache is the read-through cache over per-viewer booking lists.
type ListCache interface {
	GetByBusiness(ctx context.Context, businessID string, load cache.Loader) ([]domain.BookingRequest, error)
	GetByCustomer(ctx context.Context, customerID string, load cache.Loader) ([]domain.BookingRequest, error)
	Invalidate(ctx context.Context, businessID, customerID string)
}
