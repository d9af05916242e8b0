package models

import (
	"fmt"
	"strings"
	"time"
)

// Student represents a class member who owes dues.
type Student struct {
	ID        string    `db:"id" json:"id"`
	RegNumber string    `db:"reg_number" json:"reg_number"`
	FullName  string    `db:"full_name" json:"full_name"`
	ClassName string    `db:"class_name" json:"class_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate rejects rows that cannot take part in code matching.
func (s Student) Validate() error {
	switch {
	case strings.TrimSpace(s.ID) == "":
		return fmt.Errorf("student row without id")
	case strings.TrimSpace(s.RegNumber) == "":
		return fmt.Errorf("student %s has no registration number", s.ID)
	case strings.TrimSpace(s.FullName) == "":
		return fmt.Errorf("student %s has no name", s.ID)
	}
	return nil
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
