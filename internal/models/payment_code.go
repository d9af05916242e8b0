package models

import (
	"fmt"

	"github.com/noah-isme/kas-kelas-api/pkg/paycode"
)

// WarningKind classifies non-blocking findings raised while resolving a code.
type WarningKind string

const (
	WarningUnmatchedSuffix    WarningKind = "UNMATCHED_SUFFIX"
	WarningAmbiguousMatch     WarningKind = "AMBIGUOUS_MATCH"
	WarningAlreadyPaid        WarningKind = "ALREADY_PAID"
	WarningDuplicateRecipient WarningKind = "DUPLICATE_RECIPIENT"
)

// ResolutionWarning is reported to the officer but never blocks confirmation.
type ResolutionWarning struct {
	Kind      WarningKind `json:"kind"`
	Segment   string      `json:"segment,omitempty"`
	StudentID string      `json:"studentId,omitempty"`
	Message   string      `json:"message"`
}

// ResolvedIntent is the decoded, not yet recorded, cash payment.
type ResolvedIntent struct {
	Code               string              `json:"code"`
	Kind               paycode.Kind        `json:"kind"`
	Payer              Student             `json:"payer"`
	Recipients         []Student           `json:"recipients"`
	PaymentType        PaymentType         `json:"paymentType"`
	AmountPerRecipient int64               `json:"amountPerRecipient"`
	TotalAmount        int64               `json:"totalAmount"`
	Warnings           []ResolutionWarning `json:"warnings,omitempty"`
}

// RecipientFailure records a recipient whose payment could not be written.
type RecipientFailure struct {
	Student Student `json:"student"`
	Error   string  `json:"error"`
}

// ConfirmationSummary reports the outcome of recording a resolved intent.
type ConfirmationSummary struct {
	Recorded []Payment          `json:"recorded"`
	Failed   []RecipientFailure `json:"failed,omitempty"`
	Message  string             `json:"message"`
}

// Partial reports whether some, but not all, recipient writes failed.
func (s ConfirmationSummary) Partial() bool {
	return len(s.Recorded) > 0 && len(s.Failed) > 0
}

// Describe renders the officer-facing outcome line.
func (s ConfirmationSummary) Describe() string {
	switch {
	case len(s.Failed) == 0:
		return fmt.Sprintf("Payment confirmed for %d students", len(s.Recorded))
	case len(s.Recorded) == 0:
		return fmt.Sprintf("Payment failed for all %d students", len(s.Failed))
	default:
		return fmt.Sprintf("Payment confirmed for %d students, but failed for %d", len(s.Recorded), len(s.Failed))
	}
}
