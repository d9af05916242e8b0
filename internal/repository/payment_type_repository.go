package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kas-kelas-api/internal/models"
)

const paymentTypeColumns = "id, title, description, amount, due_date, active, created_at, updated_at"

// PaymentTypeRepository manages dues items.
type PaymentTypeRepository struct {
	db *sqlx.DB
}

// NewPaymentTypeRepository constructs the repository.
func NewPaymentTypeRepository(db *sqlx.DB) *PaymentTypeRepository {
	return &PaymentTypeRepository{db: db}
}

// ListActive returns active payment types in creation order.
func (r *PaymentTypeRepository) ListActive(ctx context.Context) ([]models.PaymentType, error) {
	query := "SELECT " + paymentTypeColumns + " FROM payment_types WHERE active = TRUE ORDER BY created_at ASC, id ASC"
	var items []models.PaymentType
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list active payment types: %w", err)
	}
	return items, nil
}

// FindByID fetches a payment type regardless of its active flag.
func (r *PaymentTypeRepository) FindByID(ctx context.Context, id string) (*models.PaymentType, error) {
	var item models.PaymentType
	if err := r.db.GetContext(ctx, &item, "SELECT "+paymentTypeColumns+" FROM payment_types WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a payment type.
func (r *PaymentTypeRepository) Create(ctx context.Context, item *models.PaymentType) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO payment_types (id, title, description, amount, due_date, active, created_at, updated_at)
        VALUES (:id, :title, :description, :amount, :due_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create payment type: %w", err)
	}
	return nil
}

// Deactivate hides a payment type from code resolution and submissions.
func (r *PaymentTypeRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE payment_types SET active = FALSE, updated_at = $2 WHERE id = $1", id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate payment type: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate payment type: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
