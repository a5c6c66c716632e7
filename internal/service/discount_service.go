package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-ops-api/internal/models"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
)

type discountReader interface {
	FindByNameAndAcademy(ctx context.Context, name, academyID string) (*models.Discount, error)
	FindByID(ctx context.Context, id string) (*models.Discount, error)
}

type discountEnrollmentRepository interface {
	FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.Enrollment, error)
	UpdateDiscount(ctx context.Context, id string, discountID, employeeID string) error
}

// ApplyDiscountRequest binds a named discount to an enrollment.
type ApplyDiscountRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	DiscountName string `json:"discount_name" validate:"required"`
}

// DiscountService attaches at most one discount to a not-yet-paid
// enrollment. Re-applying overwrites the prior binding; no history is
// kept.
type DiscountService struct {
	gate        staffGate
	discounts   discountReader
	enrollments discountEnrollmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDiscountService constructs DiscountService.
func NewDiscountService(academies academyReader, employees employeeReader, discounts discountReader,
	enrollments discountEnrollmentRepository, validate *validator.Validate, logger *zap.Logger) *DiscountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscountService{
		gate:        staffGate{academies: academies, employees: employees},
		discounts:   discounts,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
	}
}

// Apply binds the named discount to an unpaid enrollment. A settled
// enrollment's pricing is frozen and the call fails with
// DUPLICATED_PAYMENT without mutating the binding.
func (s *DiscountService) Apply(ctx context.Context, principal models.Principal, academyID string, req ApplyDiscountRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discount payload")
	}

	employee, err := s.gate.authorize(ctx, principal, academyID)
	if err != nil {
		return err
	}

	discount, err := s.discounts.FindByNameAndAcademy(ctx, req.DiscountName, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrDiscountNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discount")
	}

	enrollment, err := s.enrollments.FindByIDAndAcademy(ctx, req.EnrollmentID, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrEnrollmentNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if enrollment.PaymentYN {
		return appErrors.ErrDuplicatedPayment
	}

	if err := s.enrollments.UpdateDiscount(ctx, enrollment.ID, discount.ID, employee.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply discount")
	}

	s.logger.Info("discount applied",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("discount_id", discount.ID),
	)
	return nil
}

// GetApplied resolves the enrollment's current discount. A binding may
// dangle after the discount is deleted; that resolves to
// DISCOUNT_NOT_FOUND rather than an internal failure.
func (s *DiscountService) GetApplied(ctx context.Context, principal models.Principal, academyID, enrollmentID string) (*models.Discount, error) {
	if _, err := s.gate.authorize(ctx, principal, academyID); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.FindByIDAndAcademy(ctx, enrollmentID, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEnrollmentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if enrollment.DiscountID == nil {
		return nil, appErrors.ErrDiscountNotFound
	}

	discount, err := s.discounts.FindByID(ctx, *enrollment.DiscountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrDiscountNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discount")
	}
	return discount, nil
}
