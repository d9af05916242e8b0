package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kas-kelas-api/internal/models"
)

// DashboardRepository exposes read-optimised aggregate queries for the treasury dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository instantiates the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Totals returns approved income, recorded expenses and the number of pending reviews.
func (r *DashboardRepository) Totals(ctx context.Context) (collected, expenses int64, pending int, err error) {
	var row struct {
		Collected int64 `db:"collected"`
		Expenses  int64 `db:"expenses"`
		Pending   int   `db:"pending"`
	}
	const query = `SELECT
        COALESCE((SELECT SUM(amount) FROM payments WHERE status = 'approved'), 0) AS collected,
        COALESCE((SELECT SUM(amount) FROM expenses), 0) AS expenses,
        (SELECT COUNT(*) FROM payments WHERE status = 'pending') AS pending`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, 0, fmt.Errorf("query dashboard totals: %w", err)
	}
	return row.Collected, row.Expenses, row.Pending, nil
}

// PaymentTypeProgress returns collection progress for each active payment type. A student
// counts as paid once their approved total reaches the payment type amount.
func (r *DashboardRepository) PaymentTypeProgress(ctx context.Context) ([]models.PaymentTypeProgress, error) {
	const query = `SELECT t.id AS payment_type_id, t.title, t.amount AS amount_due,
        COALESCE(SUM(pp.approved), 0) AS collected,
        COUNT(pp.student_id) FILTER (WHERE pp.approved >= t.amount) AS paid_students,
        (SELECT COUNT(*) FROM students WHERE active = TRUE) AS total_students,
        COALESCE(SUM(pp.pending), 0) AS pending_reviews
        FROM payment_types t
        LEFT JOIN (
            SELECT payment_type_id, student_id,
                SUM(CASE WHEN status = 'approved' THEN amount ELSE 0 END) AS approved,
                SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END) AS pending
            FROM payments GROUP BY payment_type_id, student_id
        ) pp ON pp.payment_type_id = t.id
        WHERE t.active = TRUE
        GROUP BY t.id, t.title, t.amount, t.created_at
        ORDER BY t.created_at ASC`
	var items []models.PaymentTypeProgress
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("query payment type progress: %w", err)
	}
	return items, nil
}
