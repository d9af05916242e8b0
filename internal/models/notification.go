package models

import "time"

// Notification is a message addressed to a single student.
type Notification struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
