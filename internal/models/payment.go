package models

import "time"

// PaymentStatus captures the review state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// PaymentMethod captures how the money reached the class treasury.
type PaymentMethod string

const (
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodPOS      PaymentMethod = "pos"
	PaymentMethodCash     PaymentMethod = "cash"
)

// Payment is a single dues payment recorded against a student and a payment type.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"student_id"`
	PaymentTypeID string        `db:"payment_type_id" json:"payment_type_id"`
	Amount        int64         `db:"amount" json:"amount"`
	Method        PaymentMethod `db:"method" json:"method"`
	Status        PaymentStatus `db:"status" json:"status"`
	ProofURL      *string       `db:"proof_url" json:"proof_url,omitempty"`
	Note          *string       `db:"note" json:"note,omitempty"`
	ApprovedBy    *string       `db:"approved_by" json:"approved_by,omitempty"`
	ReviewedAt    *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// PaymentDetail joins the student and payment type for listings and exports.
type PaymentDetail struct {
	Payment
	StudentName      string `db:"student_name" json:"student_name"`
	StudentRegNumber string `db:"student_reg_number" json:"student_reg_number"`
	PaymentTypeTitle string `db:"payment_type_title" json:"payment_type_title"`
}

// PaymentFilter constrains payment queries. Empty fields are ignored.
type PaymentFilter struct {
	StudentID     string
	PaymentTypeID string
	Status        PaymentStatus
	Method        PaymentMethod
	Page          int
	PageSize      int
}

// ApprovedTotal sums approved amounts. Pending and rejected rows never count towards
// what a student has paid.
func ApprovedTotal(payments []Payment) int64 {
	var total int64
	for _, p := range payments {
		if p.Status == PaymentStatusApproved {
			total += p.Amount
		}
	}
	return total
}
