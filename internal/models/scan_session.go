package models

import (
	"errors"
	"fmt"
	"time"
)

// ScanState is the step an officer's cash-payment session is in.
type ScanState string

const (
	ScanStateIdle       ScanState = "IDLE"
	ScanStateScanning   ScanState = "SCANNING"
	ScanStateResolved   ScanState = "RESOLVED"
	ScanStateConfirming ScanState = "CONFIRMING"
	ScanStateDone       ScanState = "DONE"
)

// ErrIllegalTransition is returned when a session is asked to skip or revisit a step.
var ErrIllegalTransition = errors.New("illegal scan session transition")

var scanTransitions = map[ScanState]map[ScanState]bool{
	ScanStateIdle:       {ScanStateScanning: true},
	ScanStateScanning:   {ScanStateScanning: true, ScanStateResolved: true},
	ScanStateResolved:   {ScanStateScanning: true, ScanStateResolved: true, ScanStateConfirming: true},
	ScanStateConfirming: {ScanStateDone: true},
	ScanStateDone:       {},
}

// ScanSession is a value: every transition returns a new copy and leaves the receiver untouched.
type ScanSession struct {
	ID        string               `json:"id"`
	OfficerID string               `json:"officerId"`
	State     ScanState            `json:"state"`
	Code      string               `json:"code,omitempty"`
	Intent    *ResolvedIntent      `json:"intent,omitempty"`
	Summary   *ConfirmationSummary `json:"summary,omitempty"`
	LastError string               `json:"lastError,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// NewScanSession returns an idle session owned by the officer.
func NewScanSession(id, officerID string, now time.Time) ScanSession {
	return ScanSession{ID: id, OfficerID: officerID, State: ScanStateIdle, CreatedAt: now, UpdatedAt: now}
}

// Transition moves the session to the target state.
func (s ScanSession) Transition(to ScanState, now time.Time) (ScanSession, error) {
	if !scanTransitions[s.State][to] {
		return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.State, to)
	}
	next := s
	next.State = to
	next.UpdatedAt = now
	return next, nil
}

// Start begins scanning.
func (s ScanSession) Start(now time.Time) (ScanSession, error) {
	return s.Transition(ScanStateScanning, now)
}

// Resolved stores the decoded intent.
func (s ScanSession) Resolved(code string, intent ResolvedIntent, now time.Time) (ScanSession, error) {
	next, err := s.Transition(ScanStateResolved, now)
	if err != nil {
		return s, err
	}
	next.Code = code
	next.Intent = &intent
	next.LastError = ""
	return next, nil
}

// Rejected records a failed resolution and returns to scanning so the officer can retry.
func (s ScanSession) Rejected(code string, reason string, now time.Time) (ScanSession, error) {
	next, err := s.Transition(ScanStateScanning, now)
	if err != nil {
		return s, err
	}
	next.Code = code
	next.Intent = nil
	next.LastError = reason
	return next, nil
}

// Confirming marks the session as writing payments.
func (s ScanSession) Confirming(now time.Time) (ScanSession, error) {
	if s.Intent == nil {
		return s, fmt.Errorf("%w: no resolved intent to confirm", ErrIllegalTransition)
	}
	return s.Transition(ScanStateConfirming, now)
}

// Completed stores the confirmation outcome.
func (s ScanSession) Completed(summary ConfirmationSummary, now time.Time) (ScanSession, error) {
	next, err := s.Transition(ScanStateDone, now)
	if err != nil {
		return s, err
	}
	next.Summary = &summary
	return next, nil
}

// Cancellable reports whether the session may be discarded. Once writes start the batch
// runs to completion.
func (s ScanSession) Cancellable() bool {
	return s.State != ScanStateConfirming
}
