package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

type paymentTypeRepository interface {
	ListActive(ctx context.Context) ([]models.PaymentType, error)
	FindByID(ctx context.Context, id string) (*models.PaymentType, error)
	Create(ctx context.Context, item *models.PaymentType) error
	Deactivate(ctx context.Context, id string) error
}

// CreatePaymentTypeRequest holds the payload for a new dues item.
type CreatePaymentTypeRequest struct {
	Title       string     `json:"title" validate:"required,max=120"`
	Description string     `json:"description" validate:"max=500"`
	Amount      int64      `json:"amount" validate:"required,gt=0"`
	DueDate     *time.Time `json:"dueDate"`
}

// PaymentTypeService manages dues items.
type PaymentTypeService struct {
	repo      paymentTypeRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentTypeService constructs the service.
func NewPaymentTypeService(repo paymentTypeRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PaymentTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentTypeService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// ListActive returns the payment types students can currently pay.
func (s *PaymentTypeService) ListActive(ctx context.Context) ([]models.PaymentType, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payment types")
	}
	return items, nil
}

// Get returns a payment type by id, active or not.
func (s *PaymentTypeService) Get(ctx context.Context, id string) (*models.PaymentType, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment type")
	}
	return item, nil
}

// Create registers a new active payment type.
func (s *PaymentTypeService) Create(ctx context.Context, req CreatePaymentTypeRequest) (*models.PaymentType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment type payload")
	}
	item := &models.PaymentType{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		Active:      true,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment type")
	}
	_ = s.cache.Invalidate(ctx, CacheKey("dashboard", "*"))
	s.logger.Info("payment type created", zap.String("payment_type_id", item.ID), zap.Int64("amount", item.Amount))
	return item, nil
}

// Deactivate hides a payment type from code resolution. Recorded payments are kept.
func (s *PaymentTypeService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate payment type")
	}
	_ = s.cache.Invalidate(ctx, CacheKey("dashboard", "*"))
	return nil
}
