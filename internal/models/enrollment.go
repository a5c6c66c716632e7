package models

import "time"

// Enrollment is a live registration of a student to a lecture.
// A (student, lecture) pair has at most one live enrollment, and a
// live enrollment excludes a live waitlist entry for the same pair.
// Retired rows are tombstones; uniqueness is checked against live
// rows only.
type Enrollment struct {
	ID         string     `db:"id" json:"id"`
	AcademyID  string     `db:"academy_id" json:"academy_id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	LectureID  string     `db:"lecture_id" json:"lecture_id"`
	Memo       string     `db:"memo" json:"memo,omitempty"`
	PaymentYN  bool       `db:"payment_yn" json:"payment_yn"`
	DiscountID *string    `db:"discount_id" json:"discount_id,omitempty"`
	EmployeeID string     `db:"employee_id" json:"employee_id"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	RetiredAt  *time.Time `db:"retired_at" json:"-"`
}

// EnrollmentDetail enriches Enrollment with student and lecture info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	LectureName string `db:"lecture_name" json:"lecture_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	AcademyID string
	StudentID string
	LectureID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CancelResult reports the outcome of a cancellation: the retired
// enrollment and, when a waitlist head was promoted into the freed
// slot, the newly created enrollment.
type CancelResult struct {
	DeletedEnrollmentID  string  `json:"deleted_enrollment_id"`
	PromotedEnrollmentID *string `json:"promoted_enrollment_id,omitempty"`
}
