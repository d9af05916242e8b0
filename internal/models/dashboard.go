package models

import "time"

// PaymentTypeProgress summarises collection progress for one payment type.
type PaymentTypeProgress struct {
	PaymentTypeID  string `db:"payment_type_id" json:"payment_type_id"`
	Title          string `db:"title" json:"title"`
	AmountDue      int64  `db:"amount_due" json:"amount_due"`
	Collected      int64  `db:"collected" json:"collected"`
	PaidStudents   int    `db:"paid_students" json:"paid_students"`
	TotalStudents  int    `db:"total_students" json:"total_students"`
	PendingReviews int    `db:"pending_reviews" json:"pending_reviews"`
}

// DashboardSummary aggregates treasury figures.
type DashboardSummary struct {
	TotalCollected int64                 `json:"total_collected"`
	TotalExpenses  int64                 `json:"total_expenses"`
	Balance        int64                 `json:"balance"`
	PendingCount   int                   `json:"pending_count"`
	ActiveStudents int                   `json:"active_students"`
	PaymentTypes   []PaymentTypeProgress `json:"payment_types"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// SystemMetrics exposes aggregated runtime metrics to administrators.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CodesResolved            uint64    `json:"codes_resolved"`
	CodesRejected            uint64    `json:"codes_rejected"`
	PaymentsConfirmed        uint64    `json:"payments_confirmed"`
	PaymentWriteFailures     uint64    `json:"payment_write_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
