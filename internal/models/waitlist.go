package models

import "time"

// WaitlistEntry queues a student for a lecture slot. Entries are
// promoted strictly in EnqueuedAt order, earliest first.
type WaitlistEntry struct {
	ID         string     `db:"id" json:"id"`
	AcademyID  string     `db:"academy_id" json:"academy_id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	LectureID  string     `db:"lecture_id" json:"lecture_id"`
	Memo       string     `db:"memo" json:"memo,omitempty"`
	EmployeeID string     `db:"employee_id" json:"employee_id"`
	EnqueuedAt time.Time  `db:"enqueued_at" json:"enqueued_at"`
	RetiredAt  *time.Time `db:"retired_at" json:"-"`
}

// WaitlistDetail enriches WaitlistEntry with student and lecture info.
type WaitlistDetail struct {
	WaitlistEntry
	StudentName string `db:"student_name" json:"student_name"`
	LectureName string `db:"lecture_name" json:"lecture_name"`
}

// WaitlistFilter provides filters for listing waitlist entries.
type WaitlistFilter struct {
	AcademyID string
	StudentID string
	LectureID string
	Page      int
	PageSize  int
}
