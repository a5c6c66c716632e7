package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-ops-api/internal/models"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
)

type waitlistRepository interface {
	Create(ctx context.Context, entry *models.WaitlistEntry) error
	FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.WaitlistEntry, error)
	ExistsLive(ctx context.Context, studentID, lectureID string) (bool, error)
	CountLive(ctx context.Context, lectureID string) (int, error)
	Retire(ctx context.Context, id string) error
	List(ctx context.Context, filter models.WaitlistFilter) ([]models.WaitlistDetail, int, error)
}

type countCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

type enrollmentExistence interface {
	ExistsLive(ctx context.Context, studentID, lectureID string) (bool, error)
}

// EnqueueRequest describes a waitlist admission request.
type EnqueueRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	LectureID string `json:"lecture_id" validate:"required"`
	Memo      string `json:"memo"`
}

// WaitlistService manages the per-lecture FIFO queue and its
// read-side waiting count.
type WaitlistService struct {
	gate        staffGate
	repo        waitlistRepository
	enrollments enrollmentExistence
	students    studentReader
	lectures    lectureReader
	cache       countCache
	cacheTTL    time.Duration
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewWaitlistService constructs WaitlistService.
func NewWaitlistService(academies academyReader, employees employeeReader, repo waitlistRepository,
	enrollments enrollmentExistence, students studentReader, lectures lectureReader,
	cache countCache, cacheTTL time.Duration, metrics *MetricsService,
	validate *validator.Validate, logger *zap.Logger) *WaitlistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaitlistService{
		gate:        staffGate{academies: academies, employees: employees},
		repo:        repo,
		enrollments: enrollments,
		students:    students,
		lectures:    lectures,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

func waitlistCountKey(lectureID string) string {
	return fmt.Sprintf("waitlist:count:%s", lectureID)
}

// Enqueue appends a student to a lecture's waiting list. A live
// enrollment or a live entry for the pair refuses the request; no
// capacity check is made, waitlisting onto a non-full lecture is
// permitted.
func (s *WaitlistService) Enqueue(ctx context.Context, principal models.Principal, academyID string, req EnqueueRequest) (*models.WaitlistEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid waitlist payload")
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
	if _, err := s.lectures.FindByIDAndAcademy(ctx, req.LectureID, academyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}

	queued, err := s.repo.ExistsLive(ctx, req.StudentID, req.LectureID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate waitlist entry")
	}
	if queued {
		return nil, appErrors.ErrDuplicatedWaitinglist
	}

	enrolled, err := s.enrollments.ExistsLive(ctx, req.StudentID, req.LectureID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate waitlist entry")
	}
	if enrolled {
		return nil, appErrors.ErrDuplicatedEnrollment
	}

	entry := &models.WaitlistEntry{
		AcademyID:  academyID,
		StudentID:  req.StudentID,
		LectureID:  req.LectureID,
		Memo:       req.Memo,
		EmployeeID: employee.ID,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create waitlist entry")
	}

	s.InvalidateCount(ctx, req.LectureID)
	return entry, nil
}

// Withdraw retires a waitlist entry without promoting it.
func (s *WaitlistService) Withdraw(ctx context.Context, principal models.Principal, academyID, entryID string) error {
	if _, err := s.gate.authorize(ctx, principal, academyID); err != nil {
		return err
	}

	entry, err := s.repo.FindByIDAndAcademy(ctx, entryID, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "waitlist entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waitlist entry")
	}

	if err := s.repo.Retire(ctx, entry.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "waitlist entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw waitlist entry")
	}

	s.InvalidateCount(ctx, entry.LectureID)
	return nil
}

// Count returns the live waiting count for a lecture, served from the
// cache when warm. Cache failures fall through to the database.
func (s *WaitlistService) Count(ctx context.Context, lectureID string) (int, error) {
	key := waitlistCountKey(lectureID)
	if s.cache != nil {
		start := time.Now()
		var cached int
		err := s.cache.Get(ctx, key, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			return cached, nil
		}
	}

	count, err := s.repo.CountLive(ctx, lectureID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count waitlist entries")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache waiting count", zap.String("lecture_id", lectureID), zap.Error(err))
		}
	}
	return count, nil
}

// InvalidateCount drops the cached waiting count for a lecture. Also
// called by the admission service after a promotion consumes the head.
func (s *WaitlistService) InvalidateCount(ctx context.Context, lectureID string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, waitlistCountKey(lectureID))
}

// List returns waitlist entries in enqueue order with pagination.
func (s *WaitlistService) List(ctx context.Context, filter models.WaitlistFilter) ([]models.WaitlistDetail, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list waitlist entries")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
