package models

import "time"

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportRequest describes a ledger export.
type ReportRequest struct {
	Format        ReportFormat  `json:"format" validate:"required,oneof=csv pdf"`
	PaymentTypeID string        `json:"paymentTypeId"`
	Status        PaymentStatus `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// ReportResult points at a stored export.
type ReportResult struct {
	ID        string       `json:"id"`
	Format    ReportFormat `json:"format"`
	Rows      int          `json:"rows"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
