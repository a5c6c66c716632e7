package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
)

// WaitlistRepository persists the per-lecture FIFO queue. Promotion of
// the queue head happens in the admission repository under the lecture
// lock; this repository covers enqueue, withdrawal and the read side.
type WaitlistRepository struct {
	db *sqlx.DB
}

// NewWaitlistRepository constructs the repository.
func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

const waitlistColumns = `id, academy_id, student_id, lecture_id, memo, employee_id, enqueued_at, retired_at`

// Create appends an entry to the queue for its lecture.
func (r *WaitlistRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO waitlist_entries (id, academy_id, student_id, lecture_id, memo, employee_id, enqueued_at)
        VALUES (:id, :academy_id, :student_id, :lecture_id, :memo, :employee_id, :enqueued_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create waitlist entry: %w", err)
	}
	return nil
}

// FindByIDAndAcademy returns a live entry scoped to an academy.
func (r *WaitlistRepository) FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries
        WHERE id = $1 AND academy_id = $2 AND retired_at IS NULL`
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, id, academyID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ExistsLive checks whether a live entry exists for the pair.
func (r *WaitlistRepository) ExistsLive(ctx context.Context, studentID, lectureID string) (bool, error) {
	const query = `SELECT 1 FROM waitlist_entries
        WHERE student_id = $1 AND lecture_id = $2 AND retired_at IS NULL LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, lectureID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check live waitlist entry: %w", err)
	}
	return true, nil
}

// CountLive returns the number of live entries for a lecture.
func (r *WaitlistRepository) CountLive(ctx context.Context, lectureID string) (int, error) {
	const query = `SELECT COUNT(*) FROM waitlist_entries WHERE lecture_id = $1 AND retired_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, lectureID); err != nil {
		return 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return count, nil
}

// Retire withdraws an entry from the queue.
func (r *WaitlistRepository) Retire(ctx context.Context, id string) error {
	const query = `UPDATE waitlist_entries SET retired_at = $2 WHERE id = $1 AND retired_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("retire waitlist entry: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns live entries filtered by the provided criteria, in
// enqueue order.
func (r *WaitlistRepository) List(ctx context.Context, filter models.WaitlistFilter) ([]models.WaitlistDetail, int, error) {
	base := `FROM waitlist_entries w
LEFT JOIN students s ON s.id = w.student_id
LEFT JOIN lectures l ON l.id = w.lecture_id`

	conditions := []string{"w.retired_at IS NULL"}
	var args []interface{}

	if filter.AcademyID != "" {
		args = append(args, filter.AcademyID)
		conditions = append(conditions, fmt.Sprintf("w.academy_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("w.student_id = $%d", len(args)))
	}
	if filter.LectureID != "" {
		args = append(args, filter.LectureID)
		conditions = append(conditions, fmt.Sprintf("w.lecture_id = $%d", len(args)))
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT w.id, w.academy_id, w.student_id, w.lecture_id, w.memo, w.employee_id,
        w.enqueued_at, w.retired_at, s.name AS student_name, l.name AS lecture_name
        %s ORDER BY w.enqueued_at ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var entries []models.WaitlistDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list waitlist entries: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return entries, total, nil
}
