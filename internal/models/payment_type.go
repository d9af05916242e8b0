package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentType is a dues item every student is expected to pay, e.g. monthly class cash.
// Amount is expressed in whole rupiah and stored in a BIGINT column.
type PaymentType struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Amount      int64      `db:"amount" json:"amount"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	Active      bool       `db:"active" json:"active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Validate rejects rows that cannot take part in code matching.
func (p PaymentType) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("payment type row without id")
	case p.Amount <= 0:
		return fmt.Errorf("payment type %s has non-positive amount %d", p.ID, p.Amount)
	}
	return nil
}
