package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
)

// EnrollmentRepository handles read access and single-row mutations of
// enrollments. Creation and retirement go through the admission
// repository so the capacity ledger stays consistent.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `e.id, e.academy_id, e.student_id, e.lecture_id, e.memo, e.payment_yn,
        e.discount_id, e.employee_id, e.created_at, e.updated_at, e.retired_at`

const enrollmentColumnsBare = `id, academy_id, student_id, lecture_id, memo, payment_yn,
        discount_id, employee_id, created_at, updated_at, retired_at`

// List returns live enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN lectures l ON l.id = e.lecture_id`

	conditions := []string{"e.retired_at IS NULL"}
	var args []interface{}

	if filter.AcademyID != "" {
		args = append(args, filter.AcademyID)
		conditions = append(conditions, fmt.Sprintf("e.academy_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)))
	}
	if filter.LectureID != "" {
		args = append(args, filter.LectureID)
		conditions = append(conditions, fmt.Sprintf("e.lecture_id = $%d", len(args)))
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"created_at":   "e.created_at",
		"student_name": "s.name",
		"lecture_name": "l.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, s.name AS student_name, l.name AS lecture_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, enrollmentColumns, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByIDAndAcademy returns a live enrollment scoped to an academy.
func (r *EnrollmentRepository) FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumnsBare + ` FROM enrollments
        WHERE id = $1 AND academy_id = $2 AND retired_at IS NULL`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id, academyID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns a live enrollment with contextual info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, s.name AS student_name, l.name AS lecture_name
        FROM enrollments e
        LEFT JOIN students s ON s.id = e.student_id
        LEFT JOIN lectures l ON l.id = e.lecture_id
        WHERE e.id = $1 AND e.retired_at IS NULL`, enrollmentColumns)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsLive checks whether a live enrollment exists for the pair.
func (r *EnrollmentRepository) ExistsLive(ctx context.Context, studentID, lectureID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments
        WHERE student_id = $1 AND lecture_id = $2 AND retired_at IS NULL LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, lectureID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check live enrollment: %w", err)
	}
	return true, nil
}

// FindLiveByStudentAndLecture returns the live enrollment for a pair.
func (r *EnrollmentRepository) FindLiveByStudentAndLecture(ctx context.Context, studentID, lectureID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumnsBare + ` FROM enrollments
        WHERE student_id = $1 AND lecture_id = $2 AND retired_at IS NULL`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, lectureID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// UpdateDiscount overwrites the bound discount on an unpaid
// enrollment and stamps the acting employee.
func (r *EnrollmentRepository) UpdateDiscount(ctx context.Context, id string, discountID, employeeID string) error {
	const query = `UPDATE enrollments SET discount_id = $2, employee_id = $3, updated_at = $4
        WHERE id = $1 AND retired_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, discountID, employeeID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment discount: %w", err)
	}
	return nil
}

// SetPaymentYN flips the settled flag on an enrollment.
func (r *EnrollmentRepository) SetPaymentYN(ctx context.Context, id string, paid bool) error {
	const query = `UPDATE enrollments SET payment_yn = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, paid, time.Now().UTC()); err != nil {
		return fmt.Errorf("set enrollment payment flag: %w", err)
	}
	return nil
}
