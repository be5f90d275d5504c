package repository

import (
	"context"
	"time"

	"cleanmarket/internal/domain"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

type notificationModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RecipientID string    `gorm:"column:recipient_id;index"`
	BookingID   string    `gorm:"column:booking_id;index"`
	Kind        string    `gorm:"column:kind"`
	Title       string    `gorm:"column:title"`
	Message     string    `gorm:"column:message"`
	IsRead      bool      `gorm:"column:is_read"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (notificationModel) TableName() string { return "notifications" }

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	m := notificationModel{
		RecipientID: n.RecipientID,
		BookingID:   n.BookingID,
		Kind:        string(n.Kind),
		Title:       n.Title,
		Message:     n.Message,
		CreatedAt:   time.Now().UTC(),
	}
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return tx.Error
	}
	n.ID = m.ID
	n.CreatedAt = m.CreatedAt
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var models []notificationModel
	tx := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Notification{
			ID:          m.ID,
			RecipientID: m.RecipientID,
			BookingID:   m.BookingID,
			Kind:        domain.NotificationKind(m.Kind),
			Title:       m.Title,
			Message:     m.Message,
			IsRead:      m.IsRead,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id int64, recipientID string) error {
	tx := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) Migrate() error {
	return r.db.AutoMigrate(&notificationModel{})
}
