package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
	"github.com/noah-isme/kas-kelas-api/pkg/jobs"
	"github.com/noah-isme/kas-kelas-api/pkg/notify"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, studentID, id string) error
}

// Notifier is the fire-and-forget sink used by payment flows.
type Notifier interface {
	Notify(ctx context.Context, studentID, title, message string)
}

const deliveryTimeout = 10 * time.Second

// NotificationService stores notifications and publishes them to the broker in the background.
type NotificationService struct {
	repo      notificationRepository
	publisher notify.Publisher
	queue     *jobs.Queue[notify.Event]
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewNotificationService wires the delivery queue. Start must be called before Notify
// delivers anything.
func NewNotificationService(repo notificationRepository, publisher notify.Publisher, metrics *MetricsService, logger *zap.Logger, queueCfg jobs.Config) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = notify.LogPublisher{Logger: logger}
	}
	s := &NotificationService{repo: repo, publisher: publisher, metrics: metrics, logger: logger, now: time.Now}
	if queueCfg.Logger == nil {
		queueCfg.Logger = logger
	}
	s.queue = jobs.New("notifications", s.deliver, queueCfg)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for in-flight deliveries to finish.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify queues a notification for a student. Failures are logged and counted, never returned.
func (s *NotificationService) Notify(ctx context.Context, studentID, title, message string) {
	event := notify.Event{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.queue.Enqueue(jobs.Job[notify.Event]{ID: event.ID, Payload: event}); err != nil {
		s.metrics.RecordNotification("enqueue", err)
		s.logger.Warn("notification dropped", zap.String("student_id", studentID), zap.String("title", title), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job[notify.Event]) error {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	event := job.Payload
	err := s.repo.Create(ctx, &models.Notification{
		ID:        event.ID,
		StudentID: event.StudentID,
		Title:     event.Title,
		Message:   event.Message,
		CreatedAt: event.CreatedAt,
	})
	s.metrics.RecordNotification("store", err)
	if err != nil {
		return err
	}
	err = s.publisher.Publish(ctx, event)
	s.metrics.RecordNotification("publish", err)
	return err
}

// ListForStudent returns the newest notifications of a student.
func (s *NotificationService) ListForStudent(ctx context.Context, studentID string, limit int) ([]models.Notification, error) {
	items, err := s.repo.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, nil
}

// MarkRead flags a notification as read for its owner.
func (s *NotificationService) MarkRead(ctx context.Context, studentID, id string) error {
	if err := s.repo.MarkRead(ctx, studentID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification")
	}
	return nil
}
