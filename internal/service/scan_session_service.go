package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

type scanSessionStore interface {
	Save(ctx context.Context, session models.ScanSession) error
	Get(ctx context.Context, id string) (models.ScanSession, error)
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

func newSessionID() string {
	return uuid.NewString()
}

// StartSession opens a scan session for an officer.
func (s *PaymentCodeService) StartSession(ctx context.Context, officerID string) (*models.ScanSession, error) {
	now := s.now().UTC()
	session, err := models.NewScanSession(s.newID(), officerID, now).Start(now)
	if err != nil {
		return nil, transitionError(err)
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession returns a session owned by the officer.
func (s *PaymentCodeService) GetSession(ctx context.Context, officerID, id string) (*models.ScanSession, error) {
	session, err := s.loadSession(ctx, officerID, id)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ResolveSession resolves a code inside a session. A failed resolution keeps the session
// scanning so the officer can re-enter the code; the updated session is returned with the error.
func (s *PaymentCodeService) ResolveSession(ctx context.Context, officerID, id, code string) (*models.ScanSession, error) {
	session, err := s.loadSession(ctx, officerID, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if session.State == models.ScanStateIdle {
		if session, err = session.Start(now); err != nil {
			return nil, transitionError(err)
		}
	}
	if session.State != models.ScanStateScanning && session.State != models.ScanStateResolved {
		return &session, appErrors.Clone(appErrors.ErrInvalidTransition, "session is no longer accepting codes")
	}

	formatted := s.Format(code)
	intent, resolveErr := s.Resolve(ctx, formatted)
	if resolveErr != nil {
		next, err := session.Rejected(formatted, appErrors.FromError(resolveErr).Message, now)
		if err != nil {
			return nil, transitionError(err)
		}
		if err := s.saveSession(ctx, next); err != nil {
			return nil, err
		}
		return &next, resolveErr
	}

	next, err := session.Resolved(formatted, *intent, now)
	if err != nil {
		return nil, transitionError(err)
	}
	if err := s.saveSession(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// ConfirmSession writes the resolved intent. Each session can be confirmed once; a second
// concurrent request loses the claim and gets a conflict.
func (s *PaymentCodeService) ConfirmSession(ctx context.Context, officerID, id, note string) (*models.ScanSession, error) {
	session, err := s.loadSession(ctx, officerID, id)
	if err != nil {
		return nil, err
	}
	confirming, err := session.Confirming(s.now().UTC())
	if err != nil {
		return nil, transitionError(err)
	}
	claimed, err := s.sessions.Claim(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock scan session")
	}
	if !claimed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "scan session is already being confirmed")
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.saveSession(ctx, confirming); err != nil {
		// Nothing was written yet, so the session stays resolved and may be confirmed again.
		if releaseErr := s.sessions.Release(ctx, id); releaseErr != nil {
			s.logger.Error("failed to release scan session claim", zap.String("session_id", id), zap.Error(releaseErr))
		}
		return nil, err
	}

	summary, confirmErr := s.Confirm(ctx, officerID, *confirming.Intent, note)
	if summary == nil {
		summary = &models.ConfirmationSummary{Message: appErrors.FromError(confirmErr).Message}
	}
	done, err := confirming.Completed(*summary, s.now().UTC())
	if err != nil {
		return nil, transitionError(err)
	}
	if err := s.saveSession(ctx, done); err != nil {
		s.logger.Error("failed to store completed scan session", zap.String("session_id", id), zap.Error(err))
	}
	return &done, confirmErr
}

// CancelSession discards a session unless its payments are being written.
func (s *PaymentCodeService) CancelSession(ctx context.Context, officerID, id string) error {
	session, err := s.loadSession(ctx, officerID, id)
	if err != nil {
		return err
	}
	if !session.Cancellable() {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "payments are being recorded; the session cannot be cancelled")
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to discard scan session")
	}
	return nil
}

func (s *PaymentCodeService) loadSession(ctx context.Context, officerID, id string) (models.ScanSession, error) {
	if s.sessions == nil {
		return models.ScanSession{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "scan sessions are disabled")
	}
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return models.ScanSession{}, err
		}
		return models.ScanSession{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scan session")
	}
	if session.OfficerID != officerID {
		return models.ScanSession{}, appErrors.Clone(appErrors.ErrForbidden, "scan session belongs to another officer")
	}
	return session, nil
}

func (s *PaymentCodeService) saveSession(ctx context.Context, session models.ScanSession) error {
	if s.sessions == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "scan sessions are disabled")
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scan session")
	}
	return nil
}

func transitionError(err error) error {
	if errors.Is(err, models.ErrIllegalTransition) {
		return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
	}
	return err
}
