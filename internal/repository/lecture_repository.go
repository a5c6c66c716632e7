package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
)

// LectureRepository provides read access to lectures. The capacity
// counter is never written here; only the admission repository
// mutates it, under the lecture row lock.
type LectureRepository struct {
	db *sqlx.DB
}

// NewLectureRepository constructs the repository.
func NewLectureRepository(db *sqlx.DB) *LectureRepository {
	return &LectureRepository{db: db}
}

const lectureColumns = `id, academy_id, name, price, maximum_capacity, minimum_capacity,
        current_enrollment_number, created_at, updated_at, retired_at`

// FindByIDAndAcademy returns a live lecture scoped to an academy.
func (r *LectureRepository) FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.Lecture, error) {
	query := `SELECT ` + lectureColumns + ` FROM lectures
        WHERE id = $1 AND academy_id = $2 AND retired_at IS NULL`
	var lecture models.Lecture
	if err := r.db.GetContext(ctx, &lecture, query, id, academyID); err != nil {
		return nil, err
	}
	return &lecture, nil
}

// FindByID returns a live lecture by its ID.
func (r *LectureRepository) FindByID(ctx context.Context, id string) (*models.Lecture, error) {
	query := `SELECT ` + lectureColumns + ` FROM lectures WHERE id = $1 AND retired_at IS NULL`
	var lecture models.Lecture
	if err := r.db.GetContext(ctx, &lecture, query, id); err != nil {
		return nil, err
	}
	return &lecture, nil
}
