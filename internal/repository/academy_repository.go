package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
)

// AcademyRepository resolves academies. Academy CRUD lives elsewhere;
// the admission core only needs existence lookups.
type AcademyRepository struct {
	db *sqlx.DB
}

// NewAcademyRepository constructs the repository.
func NewAcademyRepository(db *sqlx.DB) *AcademyRepository {
	return &AcademyRepository{db: db}
}

// FindByID returns a live academy by its ID.
func (r *AcademyRepository) FindByID(ctx context.Context, id string) (*models.Academy, error) {
	const query = `SELECT id, name, phone, address, created_at, updated_at, retired_at
        FROM academies WHERE id = $1 AND retired_at IS NULL`
	var academy models.Academy
	if err := r.db.GetContext(ctx, &academy, query, id); err != nil {
		return nil, err
	}
	return &academy, nil
}
