package models

import "time"

// Student is a learner registered to an academy. Student CRUD is
// managed by a separate flow; this service only resolves students.
type Student struct {
	ID        string     `db:"id" json:"id"`
	AcademyID string     `db:"academy_id" json:"academy_id"`
	Name      string     `db:"name" json:"name"`
	Phone     string     `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	RetiredAt *time.Time `db:"retired_at" json:"-"`
}
