package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kas-kelas-api/internal/models"
)

const paymentColumns = "p.id, p.student_id, p.payment_type_id, p.amount, p.method, p.status, p.proof_url, p.note, p.approved_by, p.reviewed_at, p.created_at, p.updated_at"

// PaymentRepository is the payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the ledger repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func buildPaymentConditions(filter models.PaymentFilter) (string, []interface{}) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.StudentID != "" {
		add("p.student_id", filter.StudentID)
	}
	if filter.PaymentTypeID != "" {
		add("p.payment_type_id", filter.PaymentTypeID)
	}
	if filter.Status != "" {
		add("p.status", filter.Status)
	}
	if filter.Method != "" {
		add("p.method", filter.Method)
	}
	return strings.Join(conditions, " AND "), args
}

// List returns payments joined with student and payment type names.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	where, args := buildPaymentConditions(filter)
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name, s.reg_number AS student_reg_number, t.title AS payment_type_title
        FROM payments p JOIN students s ON s.id = p.student_id JOIN payment_types t ON t.id = p.payment_type_id
        WHERE %s ORDER BY p.created_at DESC LIMIT %d OFFSET %d`, paymentColumns, where, size, (page-1)*size)

	var items []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM payments p WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return items, total, nil
}

// ListAllDetails returns every payment matching the filter without paging, for exports.
func (r *PaymentRepository) ListAllDetails(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, error) {
	where, args := buildPaymentConditions(filter)
	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name, s.reg_number AS student_reg_number, t.title AS payment_type_title
        FROM payments p JOIN students s ON s.id = p.student_id JOIN payment_types t ON t.id = p.payment_type_id
        WHERE %s ORDER BY s.full_name ASC, p.created_at ASC`, paymentColumns, where)
	var items []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list payment details: %w", err)
	}
	return items, nil
}

// ListByStudentAndType returns the raw ledger rows of one student for one payment type.
func (r *PaymentRepository) ListByStudentAndType(ctx context.Context, studentID, paymentTypeID string) ([]models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments p WHERE p.student_id = $1 AND p.payment_type_id = $2 ORDER BY p.created_at ASC"
	var items []models.Payment
	if err := r.db.SelectContext(ctx, &items, query, studentID, paymentTypeID); err != nil {
		return nil, fmt.Errorf("list student payments: %w", err)
	}
	return items, nil
}

// FindByID fetches a single payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var item models.Payment
	if err := r.db.GetContext(ctx, &item, "SELECT "+paymentColumns+" FROM payments p WHERE p.id = $1", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a payment row as given.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	const query = `INSERT INTO payments (id, student_id, payment_type_id, amount, method, status, proof_url, note, approved_by, reviewed_at, created_at, updated_at)
        VALUES (:id, :student_id, :payment_type_id, :amount, :method, :status, :proof_url, :note, :approved_by, :reviewed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// InsertApproved records an already verified cash payment.
func (r *PaymentRepository) InsertApproved(ctx context.Context, payment *models.Payment) error {
	now := time.Now().UTC()
	payment.Status = models.PaymentStatusApproved
	payment.ReviewedAt = &now
	return r.Create(ctx, payment)
}

// UpdateStatus applies a review decision to a pending payment. It returns sql.ErrNoRows
// when the payment does not exist or was already reviewed.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, reviewerID string, note *string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $2, approved_by = $3, note = COALESCE($4, note), reviewed_at = $5, updated_at = $5
        WHERE id = $1 AND status = 'pending'`,
		id, status, reviewerID, note, now)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
