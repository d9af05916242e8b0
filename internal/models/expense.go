package models

import "time"

// Expense is money spent out of the class treasury.
type Expense struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Amount      int64     `db:"amount" json:"amount"`
	SpentAt     time.Time `db:"spent_at" json:"spent_at"`
	RecordedBy  string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ExpenseFilter constrains expense listings.
type ExpenseFilter struct {
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
