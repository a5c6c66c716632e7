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

type admissionRepository interface {
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	CancelAndPromote(ctx context.Context, enrollment *models.Enrollment, employeeID string) (*models.CancelResult, error)
}

type enrollmentReader interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsLive(ctx context.Context, studentID, lectureID string) (bool, error)
}

type studentReader interface {
	FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.Student, error)
}

type lectureReader interface {
	FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.Lecture, error)
}

type countInvalidator interface {
	InvalidateCount(ctx context.Context, lectureID string)
}

// EnrollRequest describes a direct enrollment request.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	LectureID string `json:"lecture_id" validate:"required"`
	Memo      string `json:"memo"`
}

// CancelRequest describes an enrollment cancellation.
type CancelRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	LectureID    string `json:"lecture_id" validate:"required"`
	EnrollmentID string `json:"enrollment_id" validate:"required"`
}

// AdmissionService decides between admitting a student now and
// refusing at capacity; on cancellation it evicts the enrollment and
// promotes the waitlist head. Ledger mutations are delegated to the
// admission repository, which serializes them per lecture.
type AdmissionService struct {
	gate        staffGate
	repo        admissionRepository
	enrollments enrollmentReader
	students    studentReader
	lectures    lectureReader
	waitCounts  countInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdmissionService constructs AdmissionService.
func NewAdmissionService(academies academyReader, employees employeeReader, repo admissionRepository,
	enrollments enrollmentReader, students studentReader, lectures lectureReader,
	waitCounts countInvalidator, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{
		gate:        staffGate{academies: academies, employees: employees},
		repo:        repo,
		enrollments: enrollments,
		students:    students,
		lectures:    lectures,
		waitCounts:  waitCounts,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll admits a student directly into a lecture. At capacity the
// call fails with OVER_REGISTRATION_NUMBER; it never falls back to
// the waiting list.
func (s *AdmissionService) Enroll(ctx context.Context, principal models.Principal, academyID string, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	employee, err := s.gate.authorize(ctx, principal, academyID)
	if err != nil {
		return nil, err
	}

	if _, err := s.students.FindByIDAndAcademy(ctx, req.StudentID, academyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	lecture, err := s.lectures.FindByIDAndAcademy(ctx, req.LectureID, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}

	exists, err := s.enrollments.ExistsLive(ctx, req.StudentID, req.LectureID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.ErrDuplicatedEnrollment
	}

	enrollment := &models.Enrollment{
		AcademyID:  academyID,
		StudentID:  req.StudentID,
		LectureID:  req.LectureID,
		Memo:       req.Memo,
		EmployeeID: employee.ID,
	}
	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("enrollment admitted",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("lecture_id", lecture.ID),
		zap.String("student_id", req.StudentID),
	)

	detail, err := s.enrollments.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// Cancel evicts an enrollment and promotes the earliest waitlist
// entry into the freed slot. The deletion is durable even when the
// promotion fails on a duplicate pair; that failure surfaces as
// DUPLICATED_ENROLLMENT alongside the committed cancellation.
func (s *AdmissionService) Cancel(ctx context.Context, principal models.Principal, academyID string, req CancelRequest) (*models.CancelResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}

	employee, err := s.gate.authorize(ctx, principal, academyID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.FindByIDAndAcademy(ctx, req.EnrollmentID, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEnrollmentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != req.StudentID || enrollment.LectureID != req.LectureID {
		return nil, appErrors.Clone(appErrors.ErrEnrollmentNotFound, "enrollment does not match student and lecture")
	}

	result, err := s.repo.CancelAndPromote(ctx, enrollment, employee.ID)
	if result != nil && s.waitCounts != nil {
		// A promotion, attempted or not, may have consumed the head.
		s.waitCounts.InvalidateCount(ctx, enrollment.LectureID)
	}
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			if result != nil {
				// Deletion committed; only the promotion was refused.
				return result, appErr
			}
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}

	s.logger.Info("enrollment cancelled",
		zap.String("enrollment_id", result.DeletedEnrollmentID),
		zap.String("lecture_id", enrollment.LectureID),
		zap.Bool("promoted", result.PromotedEnrollmentID != nil),
	)
	return result, nil
}

// List returns enrollments with pagination metadata.
func (s *AdmissionService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}
