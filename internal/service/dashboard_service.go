package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

type dashboardRepository interface {
	Totals(ctx context.Context) (collected, expenses int64, pending int, err error)
	PaymentTypeProgress(ctx context.Context) ([]models.PaymentTypeProgress, error)
}

type activeStudentCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes treasury totals.
type DashboardService struct {
	repo     dashboardRepository
	students activeStudentCounter
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo     dashboardRepository
	Students activeStudentCounter
	Cache    *CacheService
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:     params.Repo,
		students: params.Students,
		cache:    params.Cache,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Summary returns the treasury summary and indicates cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	summary, hit, err := Remember(ctx, s.cache, CacheKey("dashboard", "summary"), s.cfg.CacheTTL, s.build)
	if err != nil {
		return nil, false, err
	}
	return &summary, hit, nil
}

func (s *DashboardService) build(ctx context.Context) (models.DashboardSummary, error) {
	collected, expenses, pending, err := s.repo.Totals(ctx)
	if err != nil {
		return models.DashboardSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load treasury totals")
	}
	progress, err := s.repo.PaymentTypeProgress(ctx)
	if err != nil {
		return models.DashboardSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment type progress")
	}
	active, err := s.students.CountActive(ctx)
	if err != nil {
		return models.DashboardSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if progress == nil {
		progress = []models.PaymentTypeProgress{}
	}
	return models.DashboardSummary{
		TotalCollected: collected,
		TotalExpenses:  expenses,
		Balance:        collected - expenses,
		PendingCount:   pending,
		ActiveStudents: active,
		PaymentTypes:   progress,
		GeneratedAt:    s.now().UTC(),
	}, nil
}
