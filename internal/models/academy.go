package models

import "time"

// Academy is the tenant that owns lectures, staff and students.
// Academy CRUD is managed by a separate flow; this service only
// resolves academies by ID.
type Academy struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Phone     string     `db:"phone" json:"phone,omitempty"`
	Address   string     `db:"address" json:"address,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	RetiredAt *time.Time `db:"retired_at" json:"-"`
}
