package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
)

// DiscountRepository provides read access to academy discounts.
type DiscountRepository struct {
	db *sqlx.DB
}

// NewDiscountRepository constructs the repository.
func NewDiscountRepository(db *sqlx.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

const discountColumns = `id, academy_id, name, rate, created_at, updated_at, retired_at`

// FindByNameAndAcademy resolves a discount by its case-sensitive name
// within one academy.
func (r *DiscountRepository) FindByNameAndAcademy(ctx context.Context, name, academyID string) (*models.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts
        WHERE name = $1 AND academy_id = $2 AND retired_at IS NULL`
	var discount models.Discount
	if err := r.db.GetContext(ctx, &discount, query, name, academyID); err != nil {
		return nil, err
	}
	return &discount, nil
}

// FindByID returns a live discount by its ID. A bound discount may be
// deleted afterwards, so callers must treat a miss as a lookup
// failure, not a broken invariant.
func (r *DiscountRepository) FindByID(ctx context.Context, id string) (*models.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1 AND retired_at IS NULL`
	var discount models.Discount
	if err := r.db.GetContext(ctx, &discount, query, id); err != nil {
		return nil, err
	}
	return &discount, nil
}
