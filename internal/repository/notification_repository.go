package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kas-kelas-api/internal/models"
)

// NotificationRepository stores in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification. Inserting the same ID twice is a no-op so delivery retries
// do not duplicate rows.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, student_id, title, message, read_at, created_at)
        VALUES (:id, :student_id, :title, :message, :read_at, :created_at)
        ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByStudent returns the newest notifications of a student.
func (r *NotificationRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var items []models.Notification
	query := "SELECT id, student_id, title, message, read_at, created_at FROM notifications WHERE student_id = $1 ORDER BY created_at DESC LIMIT $2"
	if err := r.db.SelectContext(ctx, &items, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// MarkRead flags a student's notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, studentID, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE notifications SET read_at = $3 WHERE id = $1 AND student_id = $2 AND read_at IS NULL", id, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
