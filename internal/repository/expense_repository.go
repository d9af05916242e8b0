package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kas-kelas-api/internal/models"
)

// ExpenseRepository stores treasury spending.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository constructs the repository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List returns expenses inside the optional date window, newest first.
func (r *ExpenseRepository) List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("spent_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("spent_at <= $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")
	page, size := models.NormalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT id, title, description, amount, spent_at, recorded_by, created_at FROM expenses WHERE %s ORDER BY spent_at DESC LIMIT %d OFFSET %d", where, size, (page-1)*size)
	var items []models.Expense
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM expenses WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}
	return items, total, nil
}

// Create inserts an expense.
func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO expenses (id, title, description, amount, spent_at, recorded_by, created_at)
        VALUES (:id, :title, :description, :amount, :spent_at, :recorded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}
