package booking

import (
	"context"
	"errors"
	"testing"

	"cleanmarket/internal/cache"
	"cleanmarket/internal/domain"
	"cleanmarket/internal/modules/payment"
	"cleanmarket/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, b *domain.BookingRequest) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *mockRepo) ListByBusiness(ctx context.Context, businessID string) ([]domain.BookingRequest, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingRequest), args.Error(1)
}

func (m *mockRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.BookingRequest, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingRequest), args.Error(1)
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id string, newStatus domain.BookingStatus, fields repository.StatusUpdate) (*domain.BookingRequest, error) {
	args := m.Called(ctx, id, newStatus, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *mockRepo) SetRefundOutcome(ctx context.Context, id string, status domain.RefundStatus, refundID string) error {
	return m.Called(ctx, id, status, refundID).Error(0)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Confirm(ctx context.Context, clientSecret string) (*payment.Confirmation, error) {
	args := m.Called(ctx, clientSecret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Confirmation), args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, paymentIntentID string, settlement domain.Settlement) (*payment.RefundResult, error) {
	args := m.Called(ctx, paymentIntentID, settlement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyBookingRequested(ctx context.Context, b *domain.BookingRequest) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockNotifier) NotifyBookingAccepted(ctx context.Context, b *domain.BookingRequest) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockNotifier) NotifyBookingDeclined(ctx context.Context, b *domain.BookingRequest) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockNotifier) NotifyBookingCancelled(ctx context.Context, b *domain.BookingRequest, refunded bool) error {
	return m.Called(ctx, b, refunded).Error(0)
}

func (m *mockNotifier) NotifyBookingCompleted(ctx context.Context, b *domain.BookingRequest) error {
	return m.Called(ctx, b).Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) GetByBusiness(ctx context.Context, businessID string, load cache.Loader) ([]domain.BookingRequest, error) {
	return load(ctx)
}

func (m *mockCache) GetByCustomer(ctx context.Context, customerID string, load cache.Loader) ([]domain.BookingRequest, error) {
	return load(ctx)
}

func (m *mockCache) Invalidate(ctx context.Context, businessID, customerID string) {
	m.Called(ctx, businessID, customerID)
}

type fixture struct {
	repo    *mockRepo
	gateway *mockGateway
	notifs  *mockNotifier
	cache   *mockCache
	svc     *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:    new(mockRepo),
		gateway: new(mockGateway),
		notifs:  new(mockNotifier),
		cache:   new(mockCache),
	}
	f.svc = NewService(f.repo, f.gateway, f.notifs, f.cache, zerolog.Nop())
	return f
}

func validCreateRequest() CreateBookingRequest {
	return CreateBookingRequest{
		CustomerID:          "cust_1",
		CustomerName:        "Alice Smith",
		CustomerEmail:       "alice@example.com",
		BusinessID:          "biz_1",
		BusinessName:        "Sparkle Cleaning",
		ServiceID:           "svc_1",
		ServiceName:         "Deep Clean",
		RequestedDate:       "2026-09-15",
		RequestedTime:       "10:00",
		TotalCost:           5000,
		PaymentClientSecret: "pi_abc_secret_xyz",
	}
}

func acceptedBooking() *domain.BookingRequest {
	return &domain.BookingRequest{
		ID:               "bk_1",
		CustomerID:       "cust_1",
		BusinessID:       "biz_1",
		ServiceID:        "svc_1",
		RequestedDate:    "2026-09-15",
		RequestedTime:    "10:00",
		TotalCost:        5000,
		PlatformFee:      750,
		BusinessEarnings: 4250,
		Status:           domain.BookingAccepted,
		Payment: domain.PaymentRecord{
			PaymentIntentID:  "pi_abc",
			Amount:           5000,
			PlatformFee:      750,
			BusinessEarnings: 4250,
			Captured:         true,
			Settlement: domain.Settlement{
				Mode:      domain.SettlementConnected,
				AccountID: "acct_123",
			},
		},
	}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.gateway.On("Confirm", ctx, "pi_abc_secret_xyz").Return(&payment.Confirmation{
		PaymentIntentID: "pi_abc",
		Amount:          5000,
		CardLast4:       "4242",
		CardBrand:       "visa",
		Settlement:      domain.Settlement{Mode: domain.SettlementConnected, AccountID: "acct_123"},
	}, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.BookingRequest")).Return(nil)
	f.cache.On("Invalidate", ctx, "biz_1", "cust_1").Return()
	f.notifs.On("NotifyBookingRequested", ctx, mock.Anything).Return(nil)

	b, err := f.svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, int64(750), b.PlatformFee)
	assert.Equal(t, int64(4250), b.BusinessEarnings)
	assert.True(t, b.Payment.Captured)
	assert.Equal(t, "pi_abc", b.Payment.PaymentIntentID)
	assert.Equal(t, "4242", b.Payment.CardLast4)
	assert.Equal(t, domain.SettlementConnected, b.Payment.Settlement.Mode)
	assert.Equal(t, "acct_123", b.Payment.Settlement.AccountID)
	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

func TestCreate_PaymentDeclined_NothingPersisted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.gateway.On("Confirm", ctx, "pi_abc_secret_xyz").Return(nil, payment.ErrPaymentDeclined)

	_, err := f.svc.Create(ctx, validCreateRequest())
	assert.ErrorIs(t, err, payment.ErrPaymentDeclined)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_AmountMismatchRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Intent was paid for less than the booking's total.
	f.gateway.On("Confirm", ctx, "pi_abc_secret_xyz").Return(&payment.Confirmation{
		PaymentIntentID: "pi_abc",
		Amount:          4000,
	}, nil)

	_, err := f.svc.Create(ctx, validCreateRequest())
	assert.ErrorIs(t, err, ErrPaymentAmountMismatch)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_InvalidAmount(t *testing.T) {
	f := newFixture()

	req := validCreateRequest()
	req.TotalCost = 0

	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
	f.gateway.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestCreate_MissingClientSecret(t *testing.T) {
	f := newFixture()

	req := validCreateRequest()
	req.PaymentClientSecret = ""

	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
	f.gateway.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestAccept_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	f.repo.On("UpdateStatus", ctx, "bk_1", domain.BookingAccepted, repository.StatusUpdate{
		ResponseMessage: "See you then",
	}).Return(b, nil)
	f.cache.On("Invalidate", ctx, "biz_1", "cust_1").Return()
	f.notifs.On("NotifyBookingAccepted", ctx, b).Return(nil)

	got, err := f.svc.Accept(ctx, "bk_1", "See you then")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingAccepted, got.Status)
	f.repo.AssertExpectations(t)
}

func TestDecline_RequiresMessage(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Decline(context.Background(), "bk_1", "   ")
	assert.ErrorIs(t, err, ErrResponseMessageRequired)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccept_InvalidTransition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("UpdateStatus", ctx, "bk_1", domain.BookingAccepted, mock.Anything).
		Return(nil, repository.ErrInvalidTransition)

	_, err := f.svc.Accept(ctx, "bk_1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	f.notifs.AssertNotCalled(t, "NotifyBookingAccepted", mock.Anything, mock.Anything)
}

func TestCancel_RefundSucceeds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	f.repo.On("GetByID", ctx, "bk_1").Return(b, nil)
	f.gateway.On("Refund", ctx, "pi_abc", b.Payment.Settlement).
		Return(&payment.RefundResult{RefundID: "re_1"}, nil)

	cancelled := *b
	cancelled.Status = domain.BookingCancelled
	cancelled.RefundStatus = domain.RefundProcessed
	cancelled.RefundID = "re_1"
	f.repo.On("UpdateStatus", ctx, "bk_1", domain.BookingCancelled, repository.StatusUpdate{
		CancellationReason: "customer moved house",
		CancelledBy:        domain.CancelledByCustomer,
		RefundStatus:       domain.RefundProcessed,
		RefundID:           "re_1",
	}).Return(&cancelled, nil)
	f.cache.On("Invalidate", ctx, "biz_1", "cust_1").Return()
	f.notifs.On("NotifyBookingCancelled", ctx, &cancelled, true).Return(nil)

	res, err := f.svc.Cancel(ctx, "bk_1", domain.CancelledByCustomer, "customer moved house")
	require.NoError(t, err)
	assert.True(t, res.Refund.Attempted)
	assert.Equal(t, domain.RefundProcessed, res.Refund.Status)
	assert.Equal(t, "re_1", res.Refund.RefundID)
	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

func TestCancel_RefundFailureDoesNotBlock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	f.repo.On("GetByID", ctx, "bk_1").Return(b, nil)
	f.gateway.On("Refund", ctx, "pi_abc", b.Payment.Settlement).
		Return(nil, errors.New("processor timeout"))

	cancelled := *b
	cancelled.Status = domain.BookingCancelled
	cancelled.RefundStatus = domain.RefundFailed
	f.repo.On("UpdateStatus", ctx, "bk_1", domain.BookingCancelled, repository.StatusUpdate{
		CancellationReason: "flooded kitchen",
		CancelledBy:        domain.CancelledByBusiness,
		RefundStatus:       domain.RefundFailed,
	}).Return(&cancelled, nil)
	f.cache.On("Invalidate", ctx, "biz_1", "cust_1").Return()
	f.notifs.On("NotifyBookingCancelled", ctx, &cancelled, false).Return(nil)

	res, err := f.svc.Cancel(ctx, "bk_1", domain.CancelledByBusiness, "flooded kitchen")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, res.Booking.Status)
	assert.True(t, res.Refund.Attempted)
	assert.Equal(t, domain.RefundFailed, res.Refund.Status)
}

func TestCancel_AlreadyCancelled_NoSecondRefund(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	b.Status = domain.BookingCancelled
	b.RefundStatus = domain.RefundProcessed
	f.repo.On("GetByID", ctx, "bk_1").Return(b, nil)

	_, err := f.svc.Cancel(ctx, "bk_1", domain.CancelledByCustomer, "changed my mind")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_RequiresReason(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Cancel(context.Background(), "bk_1", domain.CancelledByCustomer, "")
	assert.ErrorIs(t, err, ErrCancellationReasonRequired)
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCancel_InvalidActor(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Cancel(context.Background(), "bk_1", "robot", "reason")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancel_PendingBookingByCustomerRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	b.Status = domain.BookingPending
	f.repo.On("GetByID", ctx, "bk_1").Return(b, nil)

	_, err := f.svc.Cancel(ctx, "bk_1", domain.CancelledByCustomer, "no longer needed")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_PendingBookingByAdminAllowed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	b.Status = domain.BookingPending
	f.repo.On("GetByID", ctx, "bk_1").Return(b, nil)
	f.gateway.On("Refund", ctx, "pi_abc", b.Payment.Settlement).
		Return(&payment.RefundResult{RefundID: "re_adm"}, nil)

	cancelled := *b
	cancelled.Status = domain.BookingCancelled
	f.repo.On("UpdateStatus", ctx, "bk_1", domain.BookingCancelled, mock.Anything).
		Return(&cancelled, nil)
	f.cache.On("Invalidate", ctx, "biz_1", "cust_1").Return()
	f.notifs.On("NotifyBookingCancelled", ctx, &cancelled, true).Return(nil)

	res, err := f.svc.Cancel(ctx, "bk_1", domain.CancelledByAdmin, "fraud review")
	require.NoError(t, err)
	assert.True(t, res.Refund.Attempted)
}

func TestRetryRefund_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	b.Status = domain.BookingCancelled
	b.RefundStatus = domain.RefundFailed
	f.repo.On("GetByID", ctx, "bk_1").Return(b, nil)
	f.gateway.On("Refund", ctx, "pi_abc", b.Payment.Settlement).
		Return(&payment.RefundResult{RefundID: "re_retry"}, nil)
	f.repo.On("SetRefundOutcome", ctx, "bk_1", domain.RefundProcessed, "re_retry").Return(nil)
	f.cache.On("Invalidate", ctx, "biz_1", "cust_1").Return()

	outcome, err := f.svc.RetryRefund(ctx, "bk_1")
	require.NoError(t, err)
	assert.True(t, outcome.Attempted)
	assert.Equal(t, domain.RefundProcessed, outcome.Status)
	assert.Equal(t, "re_retry", outcome.RefundID)
	f.repo.AssertExpectations(t)
}

func TestRetryRefund_FailsAgain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	b.Status = domain.BookingCancelled
	b.RefundStatus = domain.RefundFailed
	f.repo.On("GetByID", ctx, "bk_1").Return(b, nil)
	f.gateway.On("Refund", ctx, "pi_abc", b.Payment.Settlement).
		Return(nil, errors.New("processor timeout"))

	outcome, err := f.svc.RetryRefund(ctx, "bk_1")
	require.NoError(t, err)
	assert.True(t, outcome.Attempted)
	assert.Equal(t, domain.RefundFailed, outcome.Status)
	f.repo.AssertNotCalled(t, "SetRefundOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryRefund_ProcessedRefundNotRetryable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := acceptedBooking()
	b.Status = domain.BookingCancelled
	b.RefundStatus = domain.RefundProcessed
	f.repo.On("GetByID", ctx, "bk_1").Return(b, nil)

	_, err := f.svc.RetryRefund(ctx, "bk_1")
	assert.ErrorIs(t, err, ErrRefundNotRetryable)
	f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryRefund_ActiveBookingNotRetryable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "bk_1").Return(acceptedBooking(), nil)

	_, err := f.svc.RetryRefund(ctx, "bk_1")
	assert.ErrorIs(t, err, ErrRefundNotRetryable)
	f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	completed := acceptedBooking()
	completed.Status = domain.BookingCompleted
	f.repo.On("UpdateStatus", ctx, "bk_1", domain.BookingCompleted, repository.StatusUpdate{}).
		Return(completed, nil)
	f.cache.On("Invalidate", ctx, "biz_1", "cust_1").Return()
	f.notifs.On("NotifyBookingCompleted", ctx, completed).Return(nil)

	got, err := f.svc.Complete(ctx, "bk_1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, got.Status)
}

func TestWithdraw_Unsupported(t *testing.T) {
	f := newFixture()

	err := f.svc.Withdraw(context.Background(), "bk_1")
	assert.ErrorIs(t, err, ErrWithdrawalNotSupported)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "missing").Return(nil, repository.ErrNotFound)

	_, err := f.svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByBusiness_UsesLoader(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("ListByBusiness", ctx, "biz_1").
		Return([]domain.BookingRequest{*acceptedBooking()}, nil)

	list, err := f.svc.ListByBusiness(ctx, "biz_1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
