package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
)

// AdmissionRepository owns every mutation of the capacity ledger. Both
// entry points run as a single transaction whose first statement locks
// the lecture row, so concurrent admissions against the same lecture
// are serialized: two enrolls cannot both observe a free slot, and a
// cancellation's promotion cannot race a direct enroll into the freed
// slot.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

const lockLectureQuery = `SELECT id, academy_id, name, price, maximum_capacity, minimum_capacity,
        current_enrollment_number, created_at, updated_at, retired_at
        FROM lectures WHERE id = $1 AND retired_at IS NULL FOR UPDATE`

const insertEnrollmentQuery = `INSERT INTO enrollments (id, academy_id, student_id, lecture_id, memo,
        payment_yn, discount_id, employee_id, created_at, updated_at)
        VALUES (:id, :academy_id, :student_id, :lecture_id, :memo,
        :payment_yn, :discount_id, :employee_id, :created_at, :updated_at)`

const existsLiveEnrollmentQuery = `SELECT 1 FROM enrollments
        WHERE student_id = $1 AND lecture_id = $2 AND retired_at IS NULL LIMIT 1`

// Enroll admits a student into a lecture when a slot is open,
// incrementing the ledger in the same transaction as the capacity
// check. Returns ErrOverRegistration at capacity and
// ErrDuplicatedEnrollment when the pair raced into a live enrollment
// after the service-level precondition check.
func (r *AdmissionRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lecture models.Lecture
	if err = tx.GetContext(ctx, &lecture, lockLectureQuery, enrollment.LectureID); err != nil {
		return fmt.Errorf("lock lecture: %w", err)
	}

	var dup int
	switch err = tx.GetContext(ctx, &dup, existsLiveEnrollmentQuery, enrollment.StudentID, enrollment.LectureID); err {
	case sql.ErrNoRows:
		err = nil
	case nil:
		err = appErrors.ErrDuplicatedEnrollment
		return err
	default:
		return fmt.Errorf("check duplicate enrollment: %w", err)
	}

	if !lecture.HasOpenSlot() {
		err = appErrors.ErrOverRegistration
		return err
	}

	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	if _, err = tx.NamedExecContext(ctx, insertEnrollmentQuery, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}

	if err = r.bumpLedger(ctx, tx, lecture.ID, +1, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll tx: %w", err)
	}
	return nil
}

// CancelAndPromote retires an enrollment, decrements the ledger and
// promotes the earliest waitlist entry into the freed slot, all under
// the lecture lock. The deletion commits even when promotion fails on
// a duplicate pair: ErrDuplicatedEnrollment is returned after the
// cancellation itself has been made durable.
func (r *AdmissionRepository) CancelAndPromote(ctx context.Context, enrollment *models.Enrollment, employeeID string) (*models.CancelResult, error) {
	result := &models.CancelResult{DeletedEnrollmentID: enrollment.ID}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lecture models.Lecture
	if err = tx.GetContext(ctx, &lecture, lockLectureQuery, enrollment.LectureID); err != nil {
		return nil, fmt.Errorf("lock lecture: %w", err)
	}

	now := time.Now().UTC()

	const retireQuery = `UPDATE enrollments SET retired_at = $2, employee_id = $3, updated_at = $2
        WHERE id = $1 AND retired_at IS NULL`
	res, err := tx.ExecContext(ctx, retireQuery, enrollment.ID, now, employeeID)
	if err != nil {
		return nil, fmt.Errorf("retire enrollment: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		err = appErrors.ErrEnrollmentNotFound
		return nil, err
	}

	if err = r.bumpLedger(ctx, tx, lecture.ID, -1, now); err != nil {
		return nil, err
	}

	// Waitlist head, earliest enqueue first. Enqueue times are unique
	// enough given the per-pair uniqueness invariant.
	const headQuery = `SELECT id, academy_id, student_id, lecture_id, memo, employee_id, enqueued_at, retired_at
        FROM waitlist_entries
        WHERE lecture_id = $1 AND retired_at IS NULL
        ORDER BY enqueued_at ASC LIMIT 1`
	var head models.WaitlistEntry
	switch err = tx.GetContext(ctx, &head, headQuery, lecture.ID); err {
	case sql.ErrNoRows:
		err = nil
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit cancel tx: %w", err)
		}
		return result, nil
	case nil:
	default:
		return nil, fmt.Errorf("find waitlist head: %w", err)
	}

	// The head's student may have been enrolled independently while
	// queued. The cancellation stays committed; only the promotion is
	// refused.
	var dup int
	switch dupErr := tx.GetContext(ctx, &dup, existsLiveEnrollmentQuery, head.StudentID, head.LectureID); dupErr {
	case sql.ErrNoRows:
	case nil:
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit cancel tx: %w", err)
		}
		return result, appErrors.ErrDuplicatedEnrollment
	default:
		err = fmt.Errorf("check promoted duplicate: %w", dupErr)
		return nil, err
	}

	promoted := &models.Enrollment{
		ID:         uuid.NewString(),
		AcademyID:  head.AcademyID,
		StudentID:  head.StudentID,
		LectureID:  head.LectureID,
		Memo:       head.Memo,
		EmployeeID: employeeID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err = tx.NamedExecContext(ctx, insertEnrollmentQuery, promoted); err != nil {
		return nil, fmt.Errorf("insert promoted enrollment: %w", err)
	}

	if err = r.bumpLedger(ctx, tx, lecture.ID, +1, now); err != nil {
		return nil, err
	}

	const retireEntryQuery = `UPDATE waitlist_entries SET retired_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, retireEntryQuery, head.ID, now); err != nil {
		return nil, fmt.Errorf("retire waitlist entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}

	result.PromotedEnrollmentID = &promoted.ID
	return result, nil
}

func (r *AdmissionRepository) bumpLedger(ctx context.Context, tx *sqlx.Tx, lectureID string, delta int, now time.Time) error {
	const query = `UPDATE lectures SET current_enrollment_number = current_enrollment_number + $2,
        updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, lectureID, delta, now); err != nil {
		return fmt.Errorf("update enrollment counter: %w", err)
	}
	return nil
}
