package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-ops-api/internal/models"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
)

func newAdmissionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func lectureRows(current, max int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "academy_id", "name", "price", "maximum_capacity", "minimum_capacity",
		"current_enrollment_number", "created_at", "updated_at", "retired_at"}).
		AddRow("l1", "a1", "Algebra II", int64(150000), max, 1, current, now, now, nil)
}

func TestAdmissionRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newAdmissionMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM lectures WHERE id = (.+) FOR UPDATE").
		WithArgs("l1").
		WillReturnRows(lectureRows(3, 6))
	mock.ExpectQuery("SELECT 1 FROM enrollments").
		WithArgs("s1", "l1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE lectures SET current_enrollment_number").
		WithArgs("l1", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{AcademyID: "a1", StudentID: "s1", LectureID: "l1", EmployeeID: "emp-1"}
	err := repo.Enroll(context.Background(), enrollment)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryEnrollAtCapacity(t *testing.T) {
	db, mock, cleanup := newAdmissionMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM lectures WHERE id = (.+) FOR UPDATE").
		WithArgs("l1").
		WillReturnRows(lectureRows(6, 6))
	mock.ExpectQuery("SELECT 1 FROM enrollments").
		WithArgs("s1", "l1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Enroll(context.Background(), &models.Enrollment{StudentID: "s1", LectureID: "l1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverRegistration.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryEnrollDuplicateRace(t *testing.T) {
	db, mock, cleanup := newAdmissionMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM lectures WHERE id = (.+) FOR UPDATE").
		WithArgs("l1").
		WillReturnRows(lectureRows(3, 6))
	mock.ExpectQuery("SELECT 1 FROM enrollments").
		WithArgs("s1", "l1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Enroll(context.Background(), &models.Enrollment{StudentID: "s1", LectureID: "l1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicatedEnrollment.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryCancelWithoutWaitlist(t *testing.T) {
	db, mock, cleanup := newAdmissionMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM lectures WHERE id = (.+) FOR UPDATE").
		WithArgs("l1").
		WillReturnRows(lectureRows(3, 6))
	mock.ExpectExec("UPDATE enrollments SET retired_at").
		WithArgs("enr-1", sqlmock.AnyArg(), "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lectures SET current_enrollment_number").
		WithArgs("l1", -1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM waitlist_entries (.+) ORDER BY enqueued_at ASC LIMIT 1").
		WithArgs("l1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	enrollment := &models.Enrollment{ID: "enr-1", StudentID: "s1", LectureID: "l1"}
	result, err := repo.CancelAndPromote(context.Background(), enrollment, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "enr-1", result.DeletedEnrollmentID)
	assert.Nil(t, result.PromotedEnrollmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryCancelPromotesHead(t *testing.T) {
	db, mock, cleanup := newAdmissionMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	enqueuedAt := time.Now().Add(-time.Hour)
	headRows := sqlmock.NewRows([]string{"id", "academy_id", "student_id", "lecture_id", "memo", "employee_id", "enqueued_at", "retired_at"}).
		AddRow("wl-1", "a1", "s2", "l1", "call first", "emp-2", enqueuedAt, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM lectures WHERE id = (.+) FOR UPDATE").
		WithArgs("l1").
		WillReturnRows(lectureRows(6, 6))
	mock.ExpectExec("UPDATE enrollments SET retired_at").
		WithArgs("enr-1", sqlmock.AnyArg(), "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lectures SET current_enrollment_number").
		WithArgs("l1", -1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM waitlist_entries (.+) ORDER BY enqueued_at ASC LIMIT 1").
		WithArgs("l1").
		WillReturnRows(headRows)
	mock.ExpectQuery("SELECT 1 FROM enrollments").
		WithArgs("s2", "l1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE lectures SET current_enrollment_number").
		WithArgs("l1", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE waitlist_entries SET retired_at").
		WithArgs("wl-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{ID: "enr-1", StudentID: "s1", LectureID: "l1"}
	result, err := repo.CancelAndPromote(context.Background(), enrollment, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, result.PromotedEnrollmentID)
	assert.NotEmpty(t, *result.PromotedEnrollmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryCancelPromotesOldestQueued(t *testing.T) {
	db, mock, cleanup := newAdmissionMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	// Two students queued an hour apart; only the earlier one may be
	// promoted and retired.
	first := time.Now().Add(-2 * time.Hour)
	second := time.Now().Add(-time.Hour)
	queuedRows := sqlmock.NewRows([]string{"id", "academy_id", "student_id", "lecture_id", "memo", "employee_id", "enqueued_at", "retired_at"}).
		AddRow("wl-1", "a1", "s2", "l1", "", "emp-2", first, nil).
		AddRow("wl-2", "a1", "s3", "l1", "", "emp-2", second, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM lectures WHERE id = (.+) FOR UPDATE").
		WithArgs("l1").
		WillReturnRows(lectureRows(6, 6))
	mock.ExpectExec("UPDATE enrollments SET retired_at").
		WithArgs("enr-1", sqlmock.AnyArg(), "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lectures SET current_enrollment_number").
		WithArgs("l1", -1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM waitlist_entries (.+) ORDER BY enqueued_at ASC LIMIT 1").
		WithArgs("l1").
		WillReturnRows(queuedRows)
	mock.ExpectQuery("SELECT 1 FROM enrollments").
		WithArgs("s2", "l1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE lectures SET current_enrollment_number").
		WithArgs("l1", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE waitlist_entries SET retired_at").
		WithArgs("wl-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{ID: "enr-1", StudentID: "s1", LectureID: "l1"}
	result, err := repo.CancelAndPromote(context.Background(), enrollment, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, result.PromotedEnrollmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryCancelPromotionRefusedOnDuplicate(t *testing.T) {
	db, mock, cleanup := newAdmissionMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	headRows := sqlmock.NewRows([]string{"id", "academy_id", "student_id", "lecture_id", "memo", "employee_id", "enqueued_at", "retired_at"}).
		AddRow("wl-1", "a1", "s2", "l1", "", "emp-2", time.Now(), nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM lectures WHERE id = (.+) FOR UPDATE").
		WithArgs("l1").
		WillReturnRows(lectureRows(6, 6))
	mock.ExpectExec("UPDATE enrollments SET retired_at").
		WithArgs("enr-1", sqlmock.AnyArg(), "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lectures SET current_enrollment_number").
		WithArgs("l1", -1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM waitlist_entries (.+) ORDER BY enqueued_at ASC LIMIT 1").
		WithArgs("l1").
		WillReturnRows(headRows)
	mock.ExpectQuery("SELECT 1 FROM enrollments").
		WithArgs("s2", "l1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{ID: "enr-1", StudentID: "s1", LectureID: "l1"}
	result, err := repo.CancelAndPromote(context.Background(), enrollment, "emp-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicatedEnrollment.Code, appErrors.FromError(err).Code)
	// The cancellation itself committed.
	require.NotNil(t, result)
	assert.Equal(t, "enr-1", result.DeletedEnrollmentID)
	assert.Nil(t, result.PromotedEnrollmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryCancelMissingEnrollment(t *testing.T) {
	db, mock, cleanup := newAdmissionMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM lectures WHERE id = (.+) FOR UPDATE").
		WithArgs("l1").
		WillReturnRows(lectureRows(3, 6))
	mock.ExpectExec("UPDATE enrollments SET retired_at").
		WithArgs("enr-gone", sqlmock.AnyArg(), "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{ID: "enr-gone", StudentID: "s1", LectureID: "l1"}
	_, err := repo.CancelAndPromote(context.Background(), enrollment, "emp-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEnrollmentNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
