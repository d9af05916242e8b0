package paycode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat is returned when a code does not follow either grammar.
var ErrInvalidFormat = errors.New("invalid payment code format")

// Kind distinguishes the two code grammars.
type Kind string

const (
	KindSingle Kind = "single"
	KindMulti  Kind = "multi"
)

// Code is a parsed payment code.
type Code struct {
	Kind Kind   `json:"kind"`
	Raw  string `json:"raw"`

	PaymentTypeSuffix string `json:"paymentTypeSuffix"`

	// single-pay
	StudentPrefix string `json:"studentPrefix,omitempty"`
	Stamp         string `json:"stamp,omitempty"`

	// multi-pay
	PayerSuffix       string   `json:"payerSuffix,omitempty"`
	RecipientSuffixes []string `json:"recipientSuffixes,omitempty"`
}

// Parse decodes a finalised code. Callers that accept free-form input should pass it
// through Format first. Segment lengths are not enforced: matching works on whatever
// characters the segments carry.
func Parse(code string) (Code, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if strings.HasPrefix(code, MultiPayPrefix+blockSep) {
		return parseMulti(code)
	}
	return parseSingle(code)
}

func parseMulti(code string) (Code, error) {
	parts := strings.Split(strings.TrimPrefix(code, MultiPayPrefix+blockSep), blockSep)
	if len(parts) < 2 {
		return Code{}, fmt.Errorf("%w: multi-pay code needs payment type and payer blocks", ErrInvalidFormat)
	}
	if parts[0] == "" {
		return Code{}, fmt.Errorf("%w: empty payment type block", ErrInvalidFormat)
	}
	if len(parts[1]) < 2 || parts[1][0] != PayerMarker {
		return Code{}, fmt.Errorf("%w: payer block must be %c followed by the registration suffix", ErrInvalidFormat, PayerMarker)
	}

	parsed := Code{
		Kind:              KindMulti,
		Raw:               code,
		PaymentTypeSuffix: parts[0],
		PayerSuffix:       parts[1][1:],
	}
	if len(parts) > 2 {
		for _, suffix := range strings.Split(parts[2], recipientSep) {
			if suffix != "" {
				parsed.RecipientSuffixes = append(parsed.RecipientSuffixes, suffix)
			}
		}
	}
	return parsed, nil
}

func parseSingle(code string) (Code, error) {
	parts := strings.Split(code, blockSep)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Code{}, fmt.Errorf("%w: single-pay code needs student and payment type blocks", ErrInvalidFormat)
	}
	parsed := Code{
		Kind:              KindSingle,
		Raw:               code,
		StudentPrefix:     parts[0],
		PaymentTypeSuffix: parts[1],
	}
	if len(parts) > 2 {
		parsed.Stamp = parts[2]
	}
	return parsed, nil
}
