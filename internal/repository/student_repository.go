package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
)

// StudentRepository resolves students for admission checks.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByIDAndAcademy returns a live student scoped to an academy.
func (r *StudentRepository) FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.Student, error) {
	const query = `SELECT id, academy_id, name, phone, created_at, updated_at, retired_at
        FROM students WHERE id = $1 AND academy_id = $2 AND retired_at IS NULL`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, academyID); err != nil {
		return nil, err
	}
	return &student, nil
}
