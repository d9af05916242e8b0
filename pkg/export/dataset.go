package export

import (
	"fmt"
	"strconv"
	"strings"
)

// Dataset defines tabular export content. Rows and Footer are positional and must have
// the same width as Headers.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), len(d.Headers))
		}
	}
	if d.Footer != nil && len(d.Footer) != len(d.Headers) {
		return fmt.Errorf("footer has %d columns, want %d", len(d.Footer), len(d.Headers))
	}
	return nil
}

// FormatRupiah renders whole rupiah with dot thousands separators, e.g. "Rp 1.250.000".
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp " + b.String()
}
