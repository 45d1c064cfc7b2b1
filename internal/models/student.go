package models

import "time"

// Student identifies a learner as seen by the analytics engine. Immutable
// from this service's perspective.
type Student struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	StudentCode string    `db:"student_code" json:"student_code"`
	Email       string    `db:"email" json:"email"`
	Role        string    `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Pagination describes list paging metadata on enveloped responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
