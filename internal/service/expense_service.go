package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

type expenseRepository interface {
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, int, error)
	Create(ctx context.Context, e *models.Expense) error
}

// CreateExpenseRequest records money spent from the treasury.
type CreateExpenseRequest struct {
	Title       string     `json:"title" validate:"required,max=120"`
	Description string     `json:"description" validate:"max=500"`
	Amount      int64      `json:"amount" validate:"required,gt=0"`
	SpentAt     *time.Time `json:"spentAt"`
}

// ExpenseService manages treasury expenses.
type ExpenseService struct {
	repo      expenseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExpenseService constructs the expense service.
func NewExpenseService(repo expenseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns expenses inside the optional window.
func (s *ExpenseService) List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, *models.Pagination, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expenses")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create stores an expense and drops cached dashboard totals.
func (s *ExpenseService) Create(ctx context.Context, recordedBy string, req CreateExpenseRequest) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expense payload")
	}
	spentAt := s.now().UTC()
	if req.SpentAt != nil {
		spentAt = req.SpentAt.UTC()
	}
	expense := &models.Expense{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		SpentAt:     spentAt,
		RecordedBy:  recordedBy,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record expense")
	}
	_ = s.cache.Invalidate(ctx, CacheKey("dashboard", "*"))
	s.logger.Info("expense recorded", zap.String("expense_id", expense.ID), zap.Int64("amount", expense.Amount))
	return expense, nil
}
