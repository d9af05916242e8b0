package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
	"github.com/noah-isme/kas-kelas-api/pkg/export"
	"github.com/noah-isme/kas-kelas-api/pkg/storage"
)

type ledgerExportSource interface {
	ListAllDetails(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, error)
}

type fileStore interface {
	Save(name string, data []byte) (string, error)
	Path(name string) (string, error)
	CleanupOlderThan(ttl time.Duration, now time.Time) ([]string, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ReportServiceConfig governs download links and cleanup.
type ReportServiceConfig struct {
	// DownloadBaseURL is prefixed to tokens, e.g. /api/v1/reports/download.
	DownloadBaseURL string
	ResultTTL       time.Duration
	// CleanupSchedule is a cron spec; empty disables the cleanup job.
	CleanupSchedule string
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	Path        string
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ReportService exports the payment ledger to CSV or PDF files behind signed links.
type ReportService struct {
	source    ledgerExportSource
	store     fileStore
	signer    *storage.SignedURLSigner
	renderers map[models.ReportFormat]renderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewReportService constructs the report service.
func NewReportService(source ledgerExportSource, store fileStore, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	cfg.DownloadBaseURL = strings.TrimRight(cfg.DownloadBaseURL, "/")
	return &ReportService{
		source: source,
		store:  store,
		signer: signer,
		renderers: map[models.ReportFormat]renderer{
			models.ReportFormatCSV: export.NewCSVExporter(),
			models.ReportFormatPDF: export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate renders the ledger synchronously and returns a signed download link.
func (s *ReportService) Generate(ctx context.Context, actorID string, req models.ReportRequest) (*models.ReportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	r := s.renderers[req.Format]
	if r == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	rows, err := s.source.ListAllDetails(ctx, models.PaymentFilter{PaymentTypeID: req.PaymentTypeID, Status: req.Status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	data, err := r.Render(ledgerDataset(rows, s.now()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	id := uuid.NewString()
	name := fmt.Sprintf("%s/ledger-%s.%s", s.now().UTC().Format("2006-01-02"), id, r.Extension())
	if _, err := s.store.Save(name, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(id, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("ledger report generated",
		zap.String("report_id", id),
		zap.String("actor_id", actorID),
		zap.String("format", string(req.Format)),
		zap.Int("rows", len(rows)))
	return &models.ReportResult{
		ID:        id,
		Format:    req.Format,
		Rows:      len(rows),
		URL:       s.cfg.DownloadBaseURL + "/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveDownload validates the token and locates the stored file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	file, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link has expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	path, err := s.store.Path(file.Path)
	if err != nil {
		if errors.Is(err, storage.ErrOutsideBase) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report file is no longer available")
	}
	contentType := "application/octet-stream"
	for _, r := range s.renderers {
		if strings.EqualFold(filepath.Ext(path), "."+r.Extension()) {
			contentType = r.ContentType()
		}
	}
	return &ReportDownload{
		Path:        path,
		Filename:    filepath.Base(path),
		ContentType: contentType,
		ExpiresAt:   file.ExpiresAt,
	}, nil
}

// Cleanup removes report files older than the result TTL.
func (s *ReportService) Cleanup() {
	deleted, err := s.store.CleanupOlderThan(s.cfg.ResultTTL, s.now())
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
}

// StartCleanup schedules Cleanup on the configured cron spec.
func (s *ReportService) StartCleanup() error {
	if s.cfg.CleanupSchedule == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		return nil
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(zap.NewStdLog(s.logger)))))
	if _, err := c.AddFunc(s.cfg.CleanupSchedule, s.Cleanup); err != nil {
		return fmt.Errorf("schedule report cleanup: %w", err)
	}
	c.Start()
	s.scheduler = c
	s.logger.Info("report cleanup scheduled", zap.String("schedule", s.cfg.CleanupSchedule))
	return nil
}

// StopCleanup stops the scheduler and waits for a running cleanup to finish.
func (s *ReportService) StopCleanup() {
	s.mu.Lock()
	c := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func ledgerDataset(rows []models.PaymentDetail, generatedAt time.Time) export.Dataset {
	data := export.Dataset{
		Title:   "Class dues ledger, " + generatedAt.Format("02 Jan 2006 15:04"),
		Headers: []string{"Date", "Reg. number", "Student", "Payment type", "Method", "Status", "Amount"},
		Rows:    make([][]string, 0, len(rows)),
	}
	var approved int64
	for _, row := range rows {
		if row.Status == models.PaymentStatusApproved {
			approved += row.Amount
		}
		data.Rows = append(data.Rows, []string{
			row.CreatedAt.Format("2006-01-02"),
			row.StudentRegNumber,
			row.StudentName,
			row.PaymentTypeTitle,
			string(row.Method),
			string(row.Status),
			export.FormatRupiah(row.Amount),
		})
	}
	data.Footer = []string{"", "", "", "", "", "Approved total", export.FormatRupiah(approved)}
	return data
}
