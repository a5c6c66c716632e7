package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-ops-api/internal/gateway"
	"github.com/noah-isme/academy-ops-api/internal/models"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	RecordPaymentKey(ctx context.Context, orderID, paymentKey string) (bool, error)
	MarkApproved(ctx context.Context, orderID, method string, approvedAt time.Time, receipt []byte) error
	MarkFailed(ctx context.Context, orderID, code, message string) error
	MarkCancelled(ctx context.Context, cancel *models.CancelPayment) error
}

type paymentEnrollmentRepository interface {
	FindLiveByStudentAndLecture(ctx context.Context, studentID, lectureID string) (*models.Enrollment, error)
	FindByIDAndAcademy(ctx context.Context, id, academyID string) (*models.Enrollment, error)
	SetPaymentYN(ctx context.Context, id string, paid bool) error
}

// PaymentURLs carries the gateway callback URLs handed out on quotes.
type PaymentURLs struct {
	SuccessURL string
	FailURL    string
}

// RequestPaymentRequest is a payment intent for a student's live
// enrollment in a lecture.
type RequestPaymentRequest struct {
	StudentID string         `json:"student_id" validate:"required"`
	LectureID string         `json:"lecture_id" validate:"required"`
	Amount    int64          `json:"amount" validate:"required,gt=0"`
	PayType   models.PayType `json:"pay_type" validate:"required"`
	OrderName string         `json:"order_name" validate:"required"`
}

// VerifyPaymentRequest is the gateway success callback payload.
type VerifyPaymentRequest struct {
	PaymentKey string `json:"payment_key" validate:"required"`
	OrderID    string `json:"order_id" validate:"required"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

// ReportFailureRequest is the gateway failure callback payload.
type ReportFailureRequest struct {
	ErrorCode string `json:"error_code" validate:"required"`
	ErrorMsg  string `json:"error_msg" validate:"required"`
	OrderID   string `json:"order_id" validate:"required"`
}

// CancelPaymentRequest reconciles a refund reported by the gateway.
type CancelPaymentRequest struct {
	OrderID      string    `json:"order_id" validate:"required"`
	CancelAmount int64     `json:"cancel_amount" validate:"required,gt=0"`
	CancelReason string    `json:"cancel_reason" validate:"required"`
	CanceledAt   time.Time `json:"canceled_at" validate:"required"`
}

// PaymentService validates payment intents against live enrollments
// and reconciles gateway callbacks idempotently, keyed by order ID.
type PaymentService struct {
	gate           staffGate
	payments       paymentRepository
	enrollments    paymentEnrollmentRepository
	lectures       lectureReader
	gw             gateway.PaymentGateway
	urls           PaymentURLs
	confirmTimeout time.Duration
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(academies academyReader, employees employeeReader, payments paymentRepository,
	enrollments paymentEnrollmentRepository, lectures lectureReader, gw gateway.PaymentGateway,
	urls PaymentURLs, confirmTimeout time.Duration, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if confirmTimeout <= 0 {
		confirmTimeout = 10 * time.Second
	}
	return &PaymentService{
		gate:           staffGate{academies: academies, employees: employees},
		payments:       payments,
		enrollments:    enrollments,
		lectures:       lectures,
		gw:             gw,
		urls:           urls,
		confirmTimeout: confirmTimeout,
		validator:      validate,
		logger:         logger,
	}
}

// Request validates a payment intent against the student's live
// enrollment and persists the Payment in REQUESTED state with a fresh
// order ID. Validation failures commit nothing.
func (s *PaymentService) Request(ctx context.Context, principal models.Principal, academyID string, req RequestPaymentRequest) (*models.PaymentQuote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	employee, err := s.gate.authorize(ctx, principal, academyID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.FindLiveByStudentAndLecture(ctx, req.StudentID, req.LectureID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEnrollmentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	lecture, err := s.lectures.FindByIDAndAcademy(ctx, enrollment.LectureID, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}

	if req.Amount != lecture.Price {
		return nil, appErrors.ErrPaymentOrderPrice
	}
	if req.PayType != models.PayTypeCard {
		return nil, appErrors.ErrPaymentOrderPayType
	}
	if req.OrderName != lecture.Name {
		return nil, appErrors.ErrPaymentOrderName
	}

	payment := &models.Payment{
		OrderID:      uuid.NewString(),
		Amount:       req.Amount,
		PayType:      req.PayType,
		OrderName:    req.OrderName,
		Status:       models.PaymentStatusRequested,
		AcademyID:    academyID,
		StudentID:    req.StudentID,
		EmployeeID:   employee.ID,
		LectureID:    lecture.ID,
		EnrollmentID: enrollment.ID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	s.logger.Info("payment requested",
		zap.String("order_id", payment.OrderID),
		zap.String("enrollment_id", enrollment.ID),
		zap.Int64("amount", payment.Amount),
	)

	return &models.PaymentQuote{
		OrderID:    payment.OrderID,
		Amount:     payment.Amount,
		OrderName:  payment.OrderName,
		PayType:    payment.PayType,
		SuccessURL: s.urls.SuccessURL,
		FailURL:    s.urls.FailURL,
	}, nil
}

// Verify records the gateway-issued payment key against the pending
// payment. Replays carrying the same key succeed without effect; a
// different key for the same order is rejected, never overwritten.
func (s *PaymentService) Verify(ctx context.Context, req VerifyPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verify payload")
	}

	payment, err := s.payments.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrPaymentRequired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if req.Amount != payment.Amount {
		return nil, appErrors.ErrPaymentOrderPrice
	}

	if payment.PaymentKey != nil {
		if *payment.PaymentKey == req.PaymentKey {
			return payment, nil
		}
		return nil, appErrors.ErrPaymentKeyConflict
	}

	recorded, err := s.payments.RecordPaymentKey(ctx, req.OrderID, req.PaymentKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment key")
	}
	if !recorded {
		// Lost a race with another webhook delivery; re-read to decide
		// whether it carried the same key.
		current, err := s.payments.FindByOrderID(ctx, req.OrderID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload payment")
		}
		if current.PaymentKey != nil && *current.PaymentKey == req.PaymentKey {
			return current, nil
		}
		return nil, appErrors.ErrPaymentKeyConflict
	}

	return s.payments.FindByOrderID(ctx, req.OrderID)
}

// Approve commits the gateway charge for a verified payment. The
// enrollment's settled flag is re-checked immediately before the
// gateway call so a retry can never double-charge; gateway timeouts
// and rejections mark the payment FAILED.
func (s *PaymentService) Approve(ctx context.Context, req VerifyPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approve payload")
	}

	payment, err := s.payments.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrPaymentRequired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if payment.Status == models.PaymentStatusApproved {
		// A prior delivery may have approved the payment but died
		// before settling the enrollment; repair on replay.
		if err := s.ensureSettled(ctx, payment); err != nil {
			return nil, err
		}
		return payment, nil
	}
	if payment.Status != models.PaymentStatusVerified {
		return nil, appErrors.ErrPaymentNotApproved
	}
	if payment.PaymentKey == nil || *payment.PaymentKey != req.PaymentKey {
		return nil, appErrors.ErrPaymentKeyConflict
	}
	if req.Amount != payment.Amount {
		return nil, appErrors.ErrPaymentOrderPrice
	}

	enrollment, err := s.enrollments.FindByIDAndAcademy(ctx, payment.EnrollmentID, payment.AcademyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEnrollmentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.PaymentYN {
		// Settled by an earlier delivery; skip the gateway entirely.
		return payment, nil
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	resp, err := s.gw.Confirm(confirmCtx, req.PaymentKey, gateway.ConfirmRequest{OrderID: req.OrderID, Amount: req.Amount})
	if err != nil {
		if markErr := s.payments.MarkFailed(ctx, req.OrderID, "GATEWAY_CONFIRM_FAILED", err.Error()); markErr != nil {
			s.logger.Error("failed to mark payment failed", zap.String("order_id", req.OrderID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentGatewayFailed.Code, appErrors.ErrPaymentGatewayFailed.Status, appErrors.ErrPaymentGatewayFailed.Message)
	}

	if err := s.payments.MarkApproved(ctx, req.OrderID, resp.Method, resp.ApprovedAt, resp.Raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist approval")
	}
	if err := s.enrollments.SetPaymentYN(ctx, enrollment.ID, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle enrollment")
	}

	s.logger.Info("payment approved",
		zap.String("order_id", req.OrderID),
		zap.String("enrollment_id", enrollment.ID),
		zap.String("method", resp.Method),
	)
	return s.payments.FindByOrderID(ctx, req.OrderID)
}

// ensureSettled re-checks an approved payment's enrollment and sets
// payment_yn if an earlier delivery approved the charge but failed
// before the settle write landed.
func (s *PaymentService) ensureSettled(ctx context.Context, payment *models.Payment) error {
	enrollment, err := s.enrollments.FindByIDAndAcademy(ctx, payment.EnrollmentID, payment.AcademyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrEnrollmentNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.PaymentYN {
		return nil
	}
	if err := s.enrollments.SetPaymentYN(ctx, enrollment.ID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle enrollment")
	}
	s.logger.Warn("settled enrollment on approval replay",
		zap.String("order_id", payment.OrderID),
		zap.String("enrollment_id", enrollment.ID),
	)
	return nil
}

// ReportFailure records a failure delivered by the gateway for a
// previously requested order.
func (s *PaymentService) ReportFailure(ctx context.Context, req ReportFailureRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid failure payload")
	}

	payment, err := s.payments.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrPaymentRequired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if err := s.payments.MarkFailed(ctx, payment.OrderID, req.ErrorCode, req.ErrorMsg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment failure")
	}

	s.logger.Warn("payment failed",
		zap.String("order_id", req.OrderID),
		zap.String("error_code", req.ErrorCode),
	)
	return s.payments.FindByOrderID(ctx, req.OrderID)
}

// Cancel reconciles a refund from the gateway: only approved payments
// may transition to CANCELLED, and the enrollment reopens for payment.
func (s *PaymentService) Cancel(ctx context.Context, req CancelPaymentRequest) (*models.CancelPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}

	payment, err := s.payments.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrPaymentRequired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.PaymentStatusApproved {
		return nil, appErrors.ErrPaymentNotApproved
	}

	cancelRecord := &models.CancelPayment{
		PaymentID:    payment.ID,
		OrderID:      payment.OrderID,
		CancelAmount: req.CancelAmount,
		CancelReason: req.CancelReason,
		CanceledAt:   req.CanceledAt,
	}
	if err := s.payments.MarkCancelled(ctx, cancelRecord); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record cancellation")
	}

	if err := s.enrollments.SetPaymentYN(ctx, payment.EnrollmentID, false); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen enrollment")
	}

	s.logger.Info("payment cancelled",
		zap.String("order_id", payment.OrderID),
		zap.Int64("cancel_amount", req.CancelAmount),
	)
	return cancelRecord, nil
}
