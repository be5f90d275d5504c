package notification

import (
	"context"
	"fmt"

	"cleanmarket/internal/domain"
	"cleanmarket/internal/repository"

	"github.com/rs/zerolog"
)

// Service delivers status-change messages to booking counterparties: an
// in-app notification row always, an email when SMTP is configured and a
// recipient email is known. Delivery is best-effort by contract; callers
// in the lifecycle engine ignore the returned error.
type Service struct {
	repo   *repository.NotificationRepository
	mailer *Mailer
	log    zerolog.Logger
}

func NewService(repo *repository.NotificationRepository, mailer *Mailer, log zerolog.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, log: log}
}

func (s *Service) notify(ctx context.Context, recipientID, recipientEmail, bookingID string, kind domain.NotificationKind, title, message string) error {
	n := &domain.Notification{
		RecipientID: recipientID,
		BookingID:   bookingID,
		Kind:        kind,
		Title:       title,
		Message:     message,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error().Err(err).
			Str("booking_id", bookingID).
			Str("kind", string(kind)).
			Msg("failed to persist notification")
		return err
	}

	if s.mailer != nil && recipientEmail != "" {
		go func() {
			if err := s.mailer.Send(recipientEmail, title, message); err != nil {
				s.log.Warn().Err(err).
					Str("booking_id", bookingID).
					Str("kind", string(kind)).
					Msg("notification email failed")
			}
		}()
	}
	return nil
}

func (s *Service) NotifyBookingRequested(ctx context.Context, b *domain.BookingRequest) error {
	return s.notify(ctx, b.BusinessID, "", b.ID, domain.NotifBookingRequested,
		"New booking request",
		fmt.Sprintf("%s requested %s on %s at %s.", b.CustomerName, b.ServiceName, b.RequestedDate, b.RequestedTime))
}

func (s *Service) NotifyBookingAccepted(ctx context.Context, b *domain.BookingRequest) error {
	msg := fmt.Sprintf("%s accepted your booking for %s on %s.", b.BusinessName, b.ServiceName, b.RequestedDate)
	if b.ResponseMessage != "" {
		msg += " Message: " + b.ResponseMessage
	}
	return s.notify(ctx, b.CustomerID, b.CustomerEmail, b.ID, domain.NotifBookingAccepted,
		"Booking accepted", msg)
}

func (s *Service) NotifyBookingDeclined(ctx context.Context, b *domain.BookingRequest) error {
	return s.notify(ctx, b.CustomerID, b.CustomerEmail, b.ID, domain.NotifBookingDeclined,
		"Booking declined",
		fmt.Sprintf("%s declined your booking for %s. Message: %s", b.BusinessName, b.ServiceName, b.ResponseMessage))
}

// NotifyBookingCancelled tells both parties, including whether the payment
// was returned.
func (s *Service) NotifyBookingCancelled(ctx context.Context, b *domain.BookingRequest, refunded bool) error {
	refundNote := "A refund has been issued to the customer."
	if !refunded {
		refundNote = "The refund could not be processed automatically and needs manual follow-up."
	}
	msg := fmt.Sprintf("Booking for %s on %s was cancelled by the %s. Reason: %s. %s",
		b.ServiceName, b.RequestedDate, b.CancelledBy, b.CancellationReason, refundNote)

	err := s.notify(ctx, b.CustomerID, b.CustomerEmail, b.ID, domain.NotifBookingCancelled, "Booking cancelled", msg)
	if berr := s.notify(ctx, b.BusinessID, "", b.ID, domain.NotifBookingCancelled, "Booking cancelled", msg); err == nil {
		err = berr
	}
	return err
}

func (s *Service) NotifyBookingCompleted(ctx context.Context, b *domain.BookingRequest) error {
	return s.notify(ctx, b.CustomerID, b.CustomerEmail, b.ID, domain.NotifBookingCompleted,
		"Booking completed",
		fmt.Sprintf("Your booking for %s on %s has been completed.", b.ServiceName, b.RequestedDate))
}

func (s *Service) List(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID, limit)
}

func (s *Service) MarkAsRead(ctx context.Context, id int64, recipientID string) error {
	return s.repo.MarkAsRead(ctx, id, recipientID)
}
