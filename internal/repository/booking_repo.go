package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"cleanmarket/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID string `gorm:"column:id;primaryKey"`

	CustomerID    string  `gorm:"column:customer_id;index"`
	CustomerName  string  `gorm:"column:customer_name"`
	CustomerEmail string  `gorm:"column:customer_email"`
	CustomerPhone *string `gorm:"column:customer_phone"`
	BusinessID    string  `gorm:"column:business_id;index"`
	BusinessName  string  `gorm:"column:business_name"`

	ServiceID   string `gorm:"column:service_id"`
	ServiceName string `gorm:"column:service_name"`
	Category    string `gorm:"column:category"`

	RequestedDate string `gorm:"column:requested_date"`
	RequestedTime string `gorm:"column:requested_time"`

	TotalCost        int64 `gorm:"column:total_cost"`
	PlatformFee      int64 `gorm:"column:platform_fee"`
	BusinessEarnings int64 `gorm:"column:business_earnings"`

	Status string `gorm:"column:status;index"`

	SpecialInstructions *string `gorm:"column:special_instructions"`
	ResponseMessage     *string `gorm:"column:response_message"`
	CancellationReason  *string `gorm:"column:cancellation_reason"`
	CancelledBy         *string `gorm:"column:cancelled_by"`

	PaymentIntentID   *string `gorm:"column:payment_intent_id"`
	CardLast4         string  `gorm:"column:card_last4"`
	CardBrand         string  `gorm:"column:card_brand"`
	PaymentAmount     int64   `gorm:"column:payment_amount"`
	PaymentCaptured   bool    `gorm:"column:payment_captured"`
	SettlementMode    string  `gorm:"column:settlement_mode"`
	SettlementAccount *string `gorm:"column:settlement_account"`

	RefundStatus *string `gorm:"column:refund_status"`
	RefundID     *string `gorm:"column:refund_id"`

	CreatedAt   time.Time  `gorm:"column:created_at"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

func (bookingModel) TableName() string { return "booking_requests" }

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func toDomainBooking(m bookingModel) *domain.BookingRequest {
	b := &domain.BookingRequest{
		ID:                  m.ID,
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		CustomerEmail:       m.CustomerEmail,
		CustomerPhone:       deref(m.CustomerPhone),
		BusinessID:          m.BusinessID,
		BusinessName:        m.BusinessName,
		ServiceID:           m.ServiceID,
		ServiceName:         m.ServiceName,
		Category:            m.Category,
		RequestedDate:       m.RequestedDate,
		RequestedTime:       m.RequestedTime,
		TotalCost:           m.TotalCost,
		PlatformFee:         m.PlatformFee,
		BusinessEarnings:    m.BusinessEarnings,
		Status:              domain.BookingStatus(m.Status),
		SpecialInstructions: deref(m.SpecialInstructions),
		ResponseMessage:     deref(m.ResponseMessage),
		CancellationReason:  deref(m.CancellationReason),
		CancelledBy:         domain.CancelActor(deref(m.CancelledBy)),
		RefundStatus:        domain.RefundStatus(deref(m.RefundStatus)),
		RefundID:            deref(m.RefundID),
		CreatedAt:           m.CreatedAt,
		ReviewedAt:          m.ReviewedAt,
		CancelledAt:         m.CancelledAt,
		CompletedAt:         m.CompletedAt,
	}
	b.Payment = domain.PaymentRecord{
		PaymentIntentID:  deref(m.PaymentIntentID),
		CardLast4:        m.CardLast4,
		CardBrand:        m.CardBrand,
		Amount:           m.PaymentAmount,
		PlatformFee:      m.PlatformFee,
		BusinessEarnings: m.BusinessEarnings,
		Captured:         m.PaymentCaptured,
		Settlement: domain.Settlement{
			Mode:      domain.SettlementMode(m.SettlementMode),
			AccountID: deref(m.SettlementAccount),
		},
	}
	return b
}

func toBookingModel(b *domain.BookingRequest) bookingModel {
	return bookingModel{
		ID:                  b.ID,
		CustomerID:          b.CustomerID,
		CustomerName:        b.CustomerName,
		CustomerEmail:       b.CustomerEmail,
		CustomerPhone:       strOrNil(b.CustomerPhone),
		BusinessID:          b.BusinessID,
		BusinessName:        b.BusinessName,
		ServiceID:           b.ServiceID,
		ServiceName:         b.ServiceName,
		Category:            b.Category,
		RequestedDate:       b.RequestedDate,
		RequestedTime:       b.RequestedTime,
		TotalCost:           b.TotalCost,
		PlatformFee:         b.PlatformFee,
		BusinessEarnings:    b.BusinessEarnings,
		Status:              string(b.Status),
		SpecialInstructions: strOrNil(b.SpecialInstructions),
		ResponseMessage:     strOrNil(b.ResponseMessage),
		CancellationReason:  strOrNil(b.CancellationReason),
		CancelledBy:         strOrNil(string(b.CancelledBy)),
		PaymentIntentID:     strOrNil(b.Payment.PaymentIntentID),
		CardLast4:           b.Payment.CardLast4,
		CardBrand:           b.Payment.CardBrand,
		PaymentAmount:       b.Payment.Amount,
		PaymentCaptured:     b.Payment.Captured,
		SettlementMode:      string(b.Payment.Settlement.Mode),
		SettlementAccount:   strOrNil(b.Payment.Settlement.AccountID),
		RefundStatus:        strOrNil(string(b.RefundStatus)),
		RefundID:            strOrNil(b.RefundID),
		CreatedAt:           b.CreatedAt,
		ReviewedAt:          b.ReviewedAt,
		CancelledAt:         b.CancelledAt,
		CompletedAt:         b.CompletedAt,
	}
}

// isDuplicateErr covers postgres unique violations (pgconn 23505, the way
// the production driver reports them) and sqlite's message-only equivalent
// used in tests.
func isDuplicateErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.BookingRequest) error {
	if b.ID == "" || b.CustomerID == "" || b.BusinessID == "" || b.ServiceID == "" ||
		b.RequestedDate == "" || b.RequestedTime == "" || b.Payment.PaymentIntentID == "" {
		return ErrMissingFields
	}
	m := toBookingModel(b)
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		if isDuplicateErr(tx.Error) {
			return ErrDuplicate
		}
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).Where("id = ?", id).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ListByBusiness(ctx context.Context, businessID string) ([]domain.BookingRequest, error) {
	return r.list(ctx, "business_id = ?", businessID)
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.BookingRequest, error) {
	return r.list(ctx, "customer_id = ?", customerID)
}

func (r *BookingRepository) list(ctx context.Context, cond, arg string) ([]domain.BookingRequest, error) {
	var models []bookingModel
	tx := r.db.WithContext(ctx).Where(cond, arg).Order("created_at DESC").Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.BookingRequest, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// StatusUpdate carries the fields written alongside a status change. Only
// the fields relevant to the transition are set by the caller.
type StatusUpdate struct {
	ResponseMessage    string
	CancellationReason string
	CancelledBy        domain.CancelActor
	RefundStatus       domain.RefundStatus
	RefundID           string
}

// UpdateStatus applies a status transition inside a transaction. The
// current status is re-read and validated against the state machine, so a
// racing update loses with ErrInvalidTransition instead of clobbering a
// terminal state.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, newStatus domain.BookingStatus, fields StatusUpdate) (*domain.BookingRequest, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !domain.CanTransition(domain.BookingStatus(m.Status), newStatus) {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": string(newStatus)}
		switch newStatus {
		case domain.BookingAccepted, domain.BookingDeclined:
			updates["reviewed_at"] = now
			if fields.ResponseMessage != "" {
				updates["response_message"] = fields.ResponseMessage
			}
		case domain.BookingCancelled:
			updates["cancelled_at"] = now
			updates["cancellation_reason"] = fields.CancellationReason
			updates["cancelled_by"] = string(fields.CancelledBy)
			if fields.RefundStatus != "" {
				updates["refund_status"] = string(fields.RefundStatus)
			}
			if fields.RefundID != "" {
				updates["refund_id"] = fields.RefundID
			}
		case domain.BookingCompleted:
			updates["completed_at"] = now
		}

		if err := tx.Model(&bookingModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

// SetRefundOutcome records the result of a refund attempt independently of
// a status change, so the persisted record always reflects what actually
// happened to the money.
func (r *BookingRepository) SetRefundOutcome(ctx context.Context, id string, status domain.RefundStatus, refundID string) error {
	updates := map[string]any{"refund_status": string(status)}
	if refundID != "" {
		updates["refund_id"] = refundID
	}
	tx := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Migrate creates the booking_requests table.
func (r *BookingRepository) Migrate() error {
	return r.db.AutoMigrate(&bookingModel{})
}
