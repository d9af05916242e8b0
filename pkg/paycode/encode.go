package paycode

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrIdentifierTooShort is returned when an identifier has fewer than three usable characters.
	ErrIdentifierTooShort = errors.New("identifier too short for a payment code")
	// ErrAmbiguousPrefix is returned when a single-pay code would read as a multi-pay code.
	ErrAmbiguousPrefix = errors.New("student identifier prefix collides with the multi-pay marker")
)

// EncodeSingle builds AAA-BBB-CCCC from the student id prefix, the payment type id
// suffix and the last four digits of the unix timestamp.
func EncodeSingle(studentID, paymentTypeID string, at time.Time) (string, error) {
	student, err := head(studentID)
	if err != nil {
		return "", fmt.Errorf("student id: %w", err)
	}
	if strings.HasPrefix(student, MultiPayPrefix) {
		return "", ErrAmbiguousPrefix
	}
	paymentType, err := tail(paymentTypeID)
	if err != nil {
		return "", fmt.Errorf("payment type id: %w", err)
	}
	digits := at.Unix() % 10000
	if digits < 0 {
		digits = -digits
	}
	stamp := fmt.Sprintf("%04d", digits)
	return student + blockSep + paymentType + blockSep + stamp, nil
}

// EncodeMulti builds MP-AAA-PBBB[-CCC.DDD...] from the payment type id and the
// registration numbers of the payer and the students being paid for.
func EncodeMulti(paymentTypeID, payerRegNumber string, recipientRegNumbers []string) (string, error) {
	paymentType, err := tail(paymentTypeID)
	if err != nil {
		return "", fmt.Errorf("payment type id: %w", err)
	}
	payer, err := tail(payerRegNumber)
	if err != nil {
		return "", fmt.Errorf("payer registration number: %w", err)
	}

	var b strings.Builder
	b.WriteString(MultiPayPrefix + blockSep + paymentType + blockSep)
	b.WriteByte(PayerMarker)
	b.WriteString(payer)

	recipients := make([]string, 0, len(recipientRegNumbers))
	for _, reg := range recipientRegNumbers {
		suffix, err := tail(reg)
		if err != nil {
			return "", fmt.Errorf("recipient registration number %q: %w", reg, err)
		}
		recipients = append(recipients, suffix)
	}
	if len(recipients) > 0 {
		b.WriteString(blockSep)
		b.WriteString(strings.Join(recipients, recipientSep))
	}
	return b.String(), nil
}

func head(identifier string) (string, error) {
	n := Normalize(identifier)
	if len(n) < segmentLen {
		return "", ErrIdentifierTooShort
	}
	return n[:segmentLen], nil
}

func tail(identifier string) (string, error) {
	n := Normalize(identifier)
	if len(n) < segmentLen {
		return "", ErrIdentifierTooShort
	}
	return n[len(n)-segmentLen:], nil
}
