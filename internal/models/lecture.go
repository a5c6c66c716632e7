package models

import "time"

// Lecture is a course offering with a bounded capacity ledger.
// CurrentEnrollmentNumber is mutated only by the admission repository
// inside a transaction that holds the lecture row lock, keeping
// 0 <= CurrentEnrollmentNumber <= MaximumCapacity at every committed
// state.
type Lecture struct {
	ID                      string     `db:"id" json:"id"`
	AcademyID               string     `db:"academy_id" json:"academy_id"`
	Name                    string     `db:"name" json:"name"`
	Price                   int64      `db:"price" json:"price"`
	MaximumCapacity         int        `db:"maximum_capacity" json:"maximum_capacity"`
	MinimumCapacity         int        `db:"minimum_capacity" json:"minimum_capacity"`
	CurrentEnrollmentNumber int        `db:"current_enrollment_number" json:"current_enrollment_number"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
	RetiredAt               *time.Time `db:"retired_at" json:"-"`
}

// HasOpenSlot reports whether a direct enrollment may still be
// admitted.
func (l *Lecture) HasOpenSlot() bool {
	return l.CurrentEnrollmentNumber < l.MaximumCapacity
}
