package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"cleanmarket/internal/domain"
	"cleanmarket/internal/metrics"
	"cleanmarket/internal/money"
	"cleanmarket/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the booking lifecycle engine: the single writer of booking
// status. Every transition is validated here and again at the store, money
// movements happen before the matching write, and the persisted record
// always reflects what actually happened to the payment.
type Service struct {
	bookings BookingRepository
	gateway  PaymentGateway
	notifs   NotificationSender
	lists    ListCache
	log      zerolog.Logger
}

func NewService(bookings BookingRepository, gateway PaymentGateway, notifs NotificationSender, lists ListCache, log zerolog.Logger) *Service {
	return &Service{
		bookings: bookings,
		gateway:  gateway,
		notifs:   notifs,
		lists:    lists,
		log:      log,
	}
}

// Create persists a booking for a charge the payer has already completed:
// the client obtains an intent from the payments endpoint, pays it
// browser-side, then presents its client secret here. The charge is
// verified against the processor before any row is written; a declined or
// abandoned payment means no booking record exists afterwards.
func (s *Service) Create(ctx context.Context, req CreateBookingRequest) (*domain.BookingRequest, error) {
	if req.TotalCost <= 0 || req.PaymentClientSecret == "" {
		return nil, ErrValidation
	}
	if req.CustomerID == "" || req.BusinessID == "" || req.ServiceID == "" ||
		req.RequestedDate == "" || req.RequestedTime == "" {
		return nil, ErrValidation
	}

	conf, err := s.gateway.Confirm(ctx, req.PaymentClientSecret)
	if err != nil {
		return nil, err
	}
	if conf.Amount != req.TotalCost {
		s.log.Warn().
			Str("payment_intent_id", conf.PaymentIntentID).
			Int64("captured", conf.Amount).
			Int64("total_cost", req.TotalCost).
			Msg("payment amount does not match booking total")
		return nil, ErrPaymentAmountMismatch
	}

	fee, earnings := money.Split(req.TotalCost)

	b := &domain.BookingRequest{
		ID:                  uuid.NewString(),
		CustomerID:          req.CustomerID,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhone:       req.CustomerPhone,
		BusinessID:          req.BusinessID,
		BusinessName:        req.BusinessName,
		ServiceID:           req.ServiceID,
		ServiceName:         req.ServiceName,
		Category:            req.Category,
		RequestedDate:       req.RequestedDate,
		RequestedTime:       req.RequestedTime,
		TotalCost:           req.TotalCost,
		PlatformFee:         fee,
		BusinessEarnings:    earnings,
		Status:              domain.BookingPending,
		SpecialInstructions: req.SpecialInstructions,
		Payment: domain.PaymentRecord{
			PaymentIntentID:  conf.PaymentIntentID,
			CardLast4:        conf.CardLast4,
			CardBrand:        conf.CardBrand,
			Amount:           conf.Amount,
			PlatformFee:      fee,
			BusinessEarnings: earnings,
			Captured:         true,
			Settlement:       conf.Settlement,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		// The charge is captured but the record is not: surface the
		// failure with the intent id so the operator can reconcile.
		s.log.Error().Err(err).
			Str("payment_intent_id", conf.PaymentIntentID).
			Str("customer_id", req.CustomerID).
			Msg("payment captured but booking write failed")
		return nil, s.mapStoreErr(err)
	}

	metrics.IncBookingCreated()
	s.lists.Invalidate(ctx, b.BusinessID, b.CustomerID)
	_ = s.notifs.NotifyBookingRequested(ctx, b)

	s.log.Info().
		Str("booking_id", b.ID).
		Str("business_id", b.BusinessID).
		Int64("total_cost", b.TotalCost).
		Bool("using_connect", b.Payment.Settlement.Mode == domain.SettlementConnected).
		Msg("booking created")
	return b, nil
}

// Accept moves a pending booking to accepted. The response message is
// optional here.
func (s *Service) Accept(ctx context.Context, id, message string) (*domain.BookingRequest, error) {
	b, err := s.bookings.UpdateStatus(ctx, id, domain.BookingAccepted, repository.StatusUpdate{
		ResponseMessage: strings.TrimSpace(message),
	})
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	metrics.IncTransition("accept")
	s.lists.Invalidate(ctx, b.BusinessID, b.CustomerID)
	_ = s.notifs.NotifyBookingAccepted(ctx, b)
	s.log.Info().Str("booking_id", id).Msg("booking accepted")
	return b, nil
}

// Decline moves a pending booking to declined. A non-blank response
// message is a business rule, checked before any external call.
func (s *Service) Decline(ctx context.Context, id, message string) (*domain.BookingRequest, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrResponseMessageRequired
	}

	b, err := s.bookings.UpdateStatus(ctx, id, domain.BookingDeclined, repository.StatusUpdate{
		ResponseMessage: message,
	})
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	metrics.IncTransition("decline")
	s.lists.Invalidate(ctx, b.BusinessID, b.CustomerID)
	_ = s.notifs.NotifyBookingDeclined(ctx, b)
	s.log.Info().Str("booking_id", id).Msg("booking declined")
	return b, nil
}

// Cancel cancels a booking with a best-effort refund. The refund outcome
// is recorded as data and never blocks the cancellation; a booking that
// already carries a refund outcome is never refunded twice.
func (s *Service) Cancel(ctx context.Context, id string, actor domain.CancelActor, reason string) (*CancelResult, error) {
	if !actor.Valid() {
		return nil, ErrValidation
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrCancellationReasonRequired
	}

	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if !domain.CanTransition(b.Status, domain.BookingCancelled) {
		return nil, ErrInvalidTransition
	}
	// Only an admin may cancel a still-pending request; the business
	// declines it instead.
	if actor != domain.CancelledByAdmin && b.Status != domain.BookingAccepted {
		return nil, ErrInvalidTransition
	}

	outcome := RefundOutcome{}
	if b.Payment.PaymentIntentID != "" && b.RefundStatus == "" {
		outcome.Attempted = true
		res, rerr := s.gateway.Refund(ctx, b.Payment.PaymentIntentID, b.Payment.Settlement)
		if rerr != nil {
			outcome.Status = domain.RefundFailed
			metrics.IncRefund("failed")
			s.log.Error().Err(rerr).
				Str("booking_id", id).
				Str("payment_intent_id", b.Payment.PaymentIntentID).
				Msg("refund failed, cancellation proceeds")
		} else {
			outcome.Status = domain.RefundProcessed
			outcome.RefundID = res.RefundID
			metrics.IncRefund("processed")
		}
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingCancelled, repository.StatusUpdate{
		CancellationReason: reason,
		CancelledBy:        actor,
		RefundStatus:       outcome.Status,
		RefundID:           outcome.RefundID,
	})
	if err != nil {
		if outcome.Status == domain.RefundProcessed {
			s.log.Error().Err(err).
				Str("booking_id", id).
				Str("refund_id", outcome.RefundID).
				Msg("refund issued but cancellation write failed")
		}
		return nil, s.mapStoreErr(err)
	}

	metrics.IncTransition("cancel")
	s.lists.Invalidate(ctx, updated.BusinessID, updated.CustomerID)
	_ = s.notifs.NotifyBookingCancelled(ctx, updated, outcome.Status == domain.RefundProcessed)

	s.log.Info().
		Str("booking_id", id).
		Str("cancelled_by", string(actor)).
		Bool("refund_attempted", outcome.Attempted).
		Str("refund_status", string(outcome.Status)).
		Msg("booking cancelled")
	return &CancelResult{Booking: updated, Refund: outcome}, nil
}

// RetryRefund re-attempts the refund for a cancelled booking whose first
// attempt failed. The outcome is recorded either way; a booking whose
// refund already processed is not retryable, so no payment is ever
// refunded twice.
func (s *Service) RetryRefund(ctx context.Context, id string) (*RefundOutcome, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if b.Status != domain.BookingCancelled || b.RefundStatus != domain.RefundFailed {
		return nil, ErrRefundNotRetryable
	}

	outcome := &RefundOutcome{Attempted: true}
	res, rerr := s.gateway.Refund(ctx, b.Payment.PaymentIntentID, b.Payment.Settlement)
	if rerr != nil {
		outcome.Status = domain.RefundFailed
		metrics.IncRefund("failed")
		s.log.Error().Err(rerr).
			Str("booking_id", id).
			Str("payment_intent_id", b.Payment.PaymentIntentID).
			Msg("refund retry failed")
		return outcome, nil
	}

	outcome.Status = domain.RefundProcessed
	outcome.RefundID = res.RefundID
	metrics.IncRefund("processed")

	if err := s.bookings.SetRefundOutcome(ctx, id, domain.RefundProcessed, res.RefundID); err != nil {
		s.log.Error().Err(err).
			Str("booking_id", id).
			Str("refund_id", res.RefundID).
			Msg("refund issued but outcome write failed")
		return nil, s.mapStoreErr(err)
	}

	s.lists.Invalidate(ctx, b.BusinessID, b.CustomerID)
	s.log.Info().Str("booking_id", id).Str("refund_id", res.RefundID).Msg("refund retry succeeded")
	return outcome, nil
}

// Complete marks an accepted booking as delivered. Triggered externally;
// no money moves here.
func (s *Service) Complete(ctx context.Context, id string) (*domain.BookingRequest, error) {
	b, err := s.bookings.UpdateStatus(ctx, id, domain.BookingCompleted, repository.StatusUpdate{})
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	metrics.IncTransition("complete")
	s.lists.Invalidate(ctx, b.BusinessID, b.CustomerID)
	_ = s.notifs.NotifyBookingCompleted(ctx, b)
	return b, nil
}

// Withdraw would let a customer pull back a pending request before the
// business responds. Unsupported pending product clarification.
func (s *Service) Withdraw(ctx context.Context, id string) error {
	return ErrWithdrawalNotSupported
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return b, nil
}

func (s *Service) ListByBusiness(ctx context.Context, businessID string) ([]domain.BookingRequest, error) {
	return s.lists.GetByBusiness(ctx, businessID, func(ctx context.Context) ([]domain.BookingRequest, error) {
		return s.bookings.ListByBusiness(ctx, businessID)
	})
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]domain.BookingRequest, error) {
	return s.lists.GetByCustomer(ctx, customerID, func(ctx context.Context) ([]domain.BookingRequest, error) {
		return s.bookings.ListByCustomer(ctx, customerID)
	})
}

func (s *Service) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrInvalidTransition):
		return ErrInvalidTransition
	case errors.Is(err, repository.ErrMissingFields), errors.Is(err, repository.ErrDuplicate):
		return ErrValidation
	}
	return err
}
