// Package paycode implements the short payment codes a student reads out to a class
// officer when paying cash.
//
// Two grammars exist:
//
//	single-pay  AAA-BBB-CCCC          student id prefix, payment type id suffix, timestamp digits
//	multi-pay   MP-AAA-PBBB-CCC.DDD   payment type id suffix, payer reg suffix, recipient reg suffixes
//
// Codes are not checksummed. Resolution is a prefix/suffix match against live records,
// so two records sharing the same three characters collide and the first one wins.
package paycode

import (
	"strings"
	"unicode"
)

const (
	// MultiPayPrefix marks the multi-pay grammar.
	MultiPayPrefix = "MP"
	// PayerMarker precedes the payer registration suffix in multi-pay codes.
	PayerMarker = 'P'

	segmentLen      = 3
	singlePayMaxLen = 10
	recipientSep    = "."
	blockSep        = "-"
)

// Format normalises raw keystrokes into the canonical layout of whichever grammar the
// input belongs to. It is total, idempotent on canonical codes and prefix stable:
// Format(Format(p)+s) == Format(p+s) for any p and s.
func Format(raw string) string {
	body := stripSeparators(clean(raw))
	if strings.HasPrefix(body, MultiPayPrefix) {
		return formatMulti(body[len(MultiPayPrefix):])
	}
	return formatSingle(body)
}

func formatMulti(rest string) string {
	var b strings.Builder
	b.WriteString(MultiPayPrefix)
	b.WriteString(blockSep)

	if len(rest) <= segmentLen {
		b.WriteString(rest)
		return b.String()
	}
	b.WriteString(rest[:segmentLen])
	rest = rest[segmentLen:]

	// An explicit marker is consumed; otherwise the marker is implied.
	if rest[0] == PayerMarker {
		rest = rest[1:]
	}
	b.WriteString(blockSep)
	b.WriteByte(PayerMarker)

	payer := rest
	if len(payer) > segmentLen {
		payer = payer[:segmentLen]
	}
	b.WriteString(payer)
	rest = rest[len(payer):]
	if rest == "" {
		return b.String()
	}

	b.WriteString(blockSep)
	b.WriteString(strings.Join(chunk(rest, segmentLen), recipientSep))
	return b.String()
}

func formatSingle(body string) string {
	if len(body) > singlePayMaxLen {
		body = body[:singlePayMaxLen]
	}
	switch {
	case len(body) <= segmentLen:
		return body
	case len(body) <= 2*segmentLen:
		return body[:segmentLen] + blockSep + body[segmentLen:]
	default:
		return body[:segmentLen] + blockSep + body[segmentLen:2*segmentLen] + blockSep + body[2*segmentLen:]
	}
}

// clean uppercases and drops everything outside [A-Z0-9.-].
func clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		r = unicode.ToUpper(r)
		if isCodeRune(r) || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '.' || r == '-' {
			return -1
		}
		return r
	}, s)
}

func chunk(s string, size int) []string {
	out := make([]string, 0, (len(s)+size-1)/size)
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func isCodeRune(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
