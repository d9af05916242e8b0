package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
	"github.com/noah-isme/kas-kelas-api/pkg/export"
)

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, reviewerID string, note *string) error
}

type paymentTypeFinder interface {
	FindByID(ctx context.Context, id string) (*models.PaymentType, error)
}

// SubmitPaymentRequest is a student's claim that money was sent. Transfers and POS
// payments must carry a proof URL.
type SubmitPaymentRequest struct {
	PaymentTypeID string               `json:"paymentTypeId" validate:"required"`
	Amount        int64                `json:"amount" validate:"required,gt=0"`
	Method        models.PaymentMethod `json:"method" validate:"required,oneof=transfer pos cash"`
	ProofURL      string               `json:"proofUrl" validate:"omitempty,url"`
	Note          string               `json:"note" validate:"max=500"`
}

// ReviewPaymentRequest approves or rejects a pending payment.
type ReviewPaymentRequest struct {
	Decision models.PaymentStatus `json:"decision" validate:"required,oneof=approved rejected"`
	Note     string               `json:"note" validate:"max=500"`
}

// PaymentService handles submitted payments and their review.
type PaymentService struct {
	repo         paymentRepository
	paymentTypes paymentTypeFinder
	notifier     Notifier
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, paymentTypes paymentTypeFinder, notifier Notifier, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repo:         repo,
		paymentTypes: paymentTypes,
		notifier:     notifier,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// List returns payments matching the filter.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Submit stores a pending payment for the student.
func (s *PaymentService) Submit(ctx context.Context, studentID string, req SubmitPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if req.Method != models.PaymentMethodCash && strings.TrimSpace(req.ProofURL) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proof_url is required for transfer and pos payments")
	}
	paymentType, err := s.paymentTypes.FindByID(ctx, req.PaymentTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPaymentTypeNotFound, "payment type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment type")
	}
	if !paymentType.Active {
		return nil, appErrors.Clone(appErrors.ErrPaymentTypeNotFound, "payment type is no longer active")
	}

	payment := &models.Payment{
		StudentID:     studentID,
		PaymentTypeID: paymentType.ID,
		Amount:        req.Amount,
		Method:        req.Method,
		Status:        models.PaymentStatusPending,
		ProofURL:      optionalString(req.ProofURL),
		Note:          optionalString(req.Note),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit payment")
	}
	_ = s.cache.Invalidate(ctx, CacheKey("dashboard", "*"))
	s.logger.Info("payment submitted",
		zap.String("payment_id", payment.ID),
		zap.String("student_id", studentID),
		zap.String("method", string(payment.Method)))
	return payment, nil
}

// Review records the treasurer's decision and tells the student about it.
func (s *PaymentService) Review(ctx context.Context, reviewerID, id string, req ReviewPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment has already been reviewed")
	}

	note := optionalString(req.Note)
	if err := s.repo.UpdateStatus(ctx, id, req.Decision, reviewerID, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "payment has already been reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review payment")
	}
	payment.Status = req.Decision
	payment.ApprovedBy = &reviewerID
	if note != nil {
		payment.Note = note
	}
	_ = s.cache.Invalidate(ctx, CacheKey("dashboard", "*"))

	if s.notifier != nil {
		title, message := reviewMessage(payment, req.Note)
		s.notifier.Notify(ctx, payment.StudentID, title, message)
	}
	s.logger.Info("payment reviewed",
		zap.String("payment_id", id),
		zap.String("reviewer_id", reviewerID),
		zap.String("decision", string(req.Decision)))
	return payment, nil
}

func reviewMessage(payment *models.Payment, note string) (string, string) {
	amount := export.FormatRupiah(payment.Amount)
	if payment.Status == models.PaymentStatusApproved {
		return "Payment approved", fmt.Sprintf("Your payment of %s has been approved", amount)
	}
	message := fmt.Sprintf("Your payment of %s was rejected", amount)
	if strings.TrimSpace(note) != "" {
		message += ": " + strings.TrimSpace(note)
	}
	return "Payment rejected", message
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
