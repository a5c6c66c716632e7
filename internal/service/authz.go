package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/academy-ops-api/internal/models"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
)

type academyReader interface {
	FindByID(ctx context.Context, id string) (*models.Academy, error)
}

type employeeReader interface {
	FindByAccountAndAcademy(ctx context.Context, account, academyID string) (*models.Employee, error)
}

// staffGate resolves the acting staff member for a request: the
// academy must exist, the principal's account must belong to it, and
// teaching staff are denied every mutating admission operation.
type staffGate struct {
	academies academyReader
	employees employeeReader
}

func (g staffGate) authorize(ctx context.Context, principal models.Principal, academyID string) (*models.Employee, error) {
	if _, err := g.academies.FindByID(ctx, academyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academy not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academy")
	}

	employee, err := g.employees.FindByAccountAndAcademy(ctx, principal.Account, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found in academy")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	if !employee.Role.CanManageAdmission() {
		return nil, appErrors.ErrInvalidPermission
	}
	return employee, nil
}
