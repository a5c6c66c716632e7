package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
)

// EmployeeRepository resolves staff accounts for authorization.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, academy_id, account, password_hash, name, role, created_at, updated_at, retired_at`

// FindByAccount returns a live employee by its login account.
func (r *EmployeeRepository) FindByAccount(ctx context.Context, account string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE account = $1 AND retired_at IS NULL`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, account); err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByAccountAndAcademy resolves the staff membership used by every
// mutating admission operation.
func (r *EmployeeRepository) FindByAccountAndAcademy(ctx context.Context, account, academyID string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
        WHERE account = $1 AND academy_id = $2 AND retired_at IS NULL`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, account, academyID); err != nil {
		return nil, err
	}
	return &employee, nil
}
