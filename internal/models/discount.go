package models

import "time"

// Discount is a named percentage reduction scoped to one academy.
// Name is unique per academy, case-sensitive. Discount management is
// a separate flow; the admission core only reads them.
type Discount struct {
	ID        string     `db:"id" json:"id"`
	AcademyID string     `db:"academy_id" json:"academy_id"`
	Name      string     `db:"name" json:"name"`
	Rate      int        `db:"rate" json:"rate"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	RetiredAt *time.Time `db:"retired_at" json:"-"`
}
