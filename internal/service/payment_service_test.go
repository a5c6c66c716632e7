package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-ops-api/internal/gateway"
	"github.com/noah-isme/academy-ops-api/internal/models"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
)

type stubPaymentRepo struct {
	byOrder   map[string]*models.Payment
	created   *models.Payment
	failed    map[string]string
	cancelled *models.CancelPayment
}

func (s *stubPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if s.byOrder == nil {
		s.byOrder = make(map[string]*models.Payment)
	}
	payment.ID = "pay-1"
	if payment.Status == "" {
		payment.Status = models.PaymentStatusRequested
	}
	clone := *payment
	s.byOrder[payment.OrderID] = &clone
	s.created = payment
	return nil
}

func (s *stubPaymentRepo) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	if p, ok := s.byOrder[orderID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubPaymentRepo) RecordPaymentKey(ctx context.Context, orderID, paymentKey string) (bool, error) {
	p, ok := s.byOrder[orderID]
	if !ok || p.PaymentKey != nil {
		return false, nil
	}
	key := paymentKey
	p.PaymentKey = &key
	p.Status = models.PaymentStatusVerified
	return true, nil
}

func (s *stubPaymentRepo) MarkApproved(ctx context.Context, orderID, method string, approvedAt time.Time, receipt []byte) error {
	p := s.byOrder[orderID]
	p.Status = models.PaymentStatusApproved
	p.Method = &method
	p.ApprovedAt = &approvedAt
	p.Receipt = receipt
	return nil
}

func (s *stubPaymentRepo) MarkFailed(ctx context.Context, orderID, code, message string) error {
	if s.failed == nil {
		s.failed = make(map[string]string)
	}
	s.failed[orderID] = code
	if p, ok := s.byOrder[orderID]; ok {
		p.Status = models.PaymentStatusFailed
	}
	return nil
}

func (s *stubPaymentRepo) MarkCancelled(ctx context.Context, cancel *models.CancelPayment) error {
	s.cancelled = cancel
	if p, ok := s.byOrder[cancel.OrderID]; ok {
		p.Status = models.PaymentStatusCancelled
	}
	return nil
}

type stubGateway struct {
	resp  *gateway.ConfirmResponse
	err   error
	calls int
}

func (s *stubGateway) Confirm(ctx context.Context, paymentKey string, req gateway.ConfirmRequest) (*gateway.ConfirmResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newPaymentService(payments *stubPaymentRepo, enrollments *stubEnrollmentReader, gw *stubGateway) *PaymentService {
	return NewPaymentService(
		&stubAcademyReader{}, &stubEmployeeReader{role: models.RoleManager}, payments,
		enrollments, &stubLectureReader{}, gw,
		PaymentURLs{SuccessURL: "https://app.example.com/pay/success", FailURL: "https://app.example.com/pay/fail"},
		5*time.Second, validator.New(), zap.NewNop(),
	)
}

func verifiedPayment(orderID, key string) *models.Payment {
	k := key
	return &models.Payment{
		ID: "pay-1", OrderID: orderID, PaymentKey: &k, Amount: 150000,
		PayType: models.PayTypeCard, OrderName: "Algebra II",
		Status: models.PaymentStatusVerified, AcademyID: "a1",
		StudentID: "s1", LectureID: "l1", EnrollmentID: "enr-1",
	}
}

func TestPaymentServiceRequest(t *testing.T) {
	payments := &stubPaymentRepo{}
	enrollments := &stubEnrollmentReader{byID: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", AcademyID: "a1", StudentID: "s1", LectureID: "l1"},
	}}
	svc := newPaymentService(payments, enrollments, &stubGateway{})

	quote, err := svc.Request(context.Background(), managerPrincipal(), "a1", RequestPaymentRequest{
		StudentID: "s1", LectureID: "l1", Amount: 150000, PayType: models.PayTypeCard, OrderName: "Algebra II",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, quote.OrderID)
	assert.Equal(t, int64(150000), quote.Amount)
	assert.Equal(t, "https://app.example.com/pay/success", quote.SuccessURL)
	require.NotNil(t, payments.created)
	assert.Equal(t, models.PaymentStatusRequested, payments.created.Status)
	assert.Equal(t, "enr-1", payments.created.EnrollmentID)
}

func TestPaymentServiceRequestPriceMismatch(t *testing.T) {
	payments := &stubPaymentRepo{}
	enrollments := &stubEnrollmentReader{byID: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", AcademyID: "a1", StudentID: "s1", LectureID: "l1"},
	}}
	svc := newPaymentService(payments, enrollments, &stubGateway{})

	_, err := svc.Request(context.Background(), managerPrincipal(), "a1", RequestPaymentRequest{
		StudentID: "s1", LectureID: "l1", Amount: 99999, PayType: models.PayTypeCard, OrderName: "Algebra II",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentOrderPrice.Code, appErrors.FromError(err).Code)
	assert.Nil(t, payments.created)
}

func TestPaymentServiceRequestUnsupportedPayType(t *testing.T) {
	payments := &stubPaymentRepo{}
	enrollments := &stubEnrollmentReader{byID: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", AcademyID: "a1", StudentID: "s1", LectureID: "l1"},
	}}
	svc := newPaymentService(payments, enrollments, &stubGateway{})

	_, err := svc.Request(context.Background(), managerPrincipal(), "a1", RequestPaymentRequest{
		StudentID: "s1", LectureID: "l1", Amount: 150000, PayType: "BANK_TRANSFER", OrderName: "Algebra II",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentOrderPayType.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceRequestNoLiveEnrollment(t *testing.T) {
	svc := newPaymentService(&stubPaymentRepo{}, &stubEnrollmentReader{}, &stubGateway{})

	_, err := svc.Request(context.Background(), managerPrincipal(), "a1", RequestPaymentRequest{
		StudentID: "s1", LectureID: "l1", Amount: 150000, PayType: models.PayTypeCard, OrderName: "Algebra II",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEnrollmentNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceVerify(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": {ID: "pay-1", OrderID: "ord-1", Amount: 150000, Status: models.PaymentStatusRequested},
	}}
	svc := newPaymentService(payments, &stubEnrollmentReader{}, &stubGateway{})

	payment, err := svc.Verify(context.Background(), VerifyPaymentRequest{PaymentKey: "key-1", OrderID: "ord-1", Amount: 150000})
	require.NoError(t, err)
	require.NotNil(t, payment.PaymentKey)
	assert.Equal(t, "key-1", *payment.PaymentKey)
	assert.Equal(t, models.PaymentStatusVerified, payment.Status)
}

func TestPaymentServiceVerifyReplaySameKey(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": verifiedPayment("ord-1", "key-1"),
	}}
	svc := newPaymentService(payments, &stubEnrollmentReader{}, &stubGateway{})

	payment, err := svc.Verify(context.Background(), VerifyPaymentRequest{PaymentKey: "key-1", OrderID: "ord-1", Amount: 150000})
	require.NoError(t, err)
	assert.Equal(t, "key-1", *payment.PaymentKey)
}

func TestPaymentServiceVerifyConflictingKey(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": verifiedPayment("ord-1", "key-1"),
	}}
	svc := newPaymentService(payments, &stubEnrollmentReader{}, &stubGateway{})

	_, err := svc.Verify(context.Background(), VerifyPaymentRequest{PaymentKey: "key-2", OrderID: "ord-1", Amount: 150000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentKeyConflict.Code, appErrors.FromError(err).Code)
	// The recorded key is never overwritten.
	assert.Equal(t, "key-1", *payments.byOrder["ord-1"].PaymentKey)
}

func TestPaymentServiceVerifyUnknownOrder(t *testing.T) {
	svc := newPaymentService(&stubPaymentRepo{}, &stubEnrollmentReader{}, &stubGateway{})

	_, err := svc.Verify(context.Background(), VerifyPaymentRequest{PaymentKey: "key-1", OrderID: "ord-missing", Amount: 150000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentRequired.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceVerifyAmountMismatch(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": {ID: "pay-1", OrderID: "ord-1", Amount: 150000, Status: models.PaymentStatusRequested},
	}}
	svc := newPaymentService(payments, &stubEnrollmentReader{}, &stubGateway{})

	_, err := svc.Verify(context.Background(), VerifyPaymentRequest{PaymentKey: "key-1", OrderID: "ord-1", Amount: 140000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentOrderPrice.Code, appErrors.FromError(err).Code)
	assert.Nil(t, payments.byOrder["ord-1"].PaymentKey)
}

func TestPaymentServiceApprove(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": verifiedPayment("ord-1", "key-1"),
	}}
	enrollments := &stubEnrollmentReader{byID: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", AcademyID: "a1", StudentID: "s1", LectureID: "l1"},
	}}
	approvedAt := time.Now().UTC()
	gw := &stubGateway{resp: &gateway.ConfirmResponse{OrderID: "ord-1", Method: "CARD", TotalAmount: 150000, ApprovedAt: approvedAt, Raw: []byte(`{"status":"DONE"}`)}}
	svc := newPaymentService(payments, enrollments, gw)

	payment, err := svc.Approve(context.Background(), VerifyPaymentRequest{PaymentKey: "key-1", OrderID: "ord-1", Amount: 150000})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, models.PaymentStatusApproved, payment.Status)
	require.NotNil(t, payment.Method)
	assert.Equal(t, "CARD", *payment.Method)
	assert.JSONEq(t, `{"status":"DONE"}`, string(payment.Receipt))
	assert.True(t, enrollments.paid["enr-1"])
}

func TestPaymentServiceApproveSettlesEnrollmentOnReplay(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": verifiedPayment("ord-1", "key-1"),
	}}
	enrollments := &stubEnrollmentReader{
		byID:      map[string]models.Enrollment{"enr-1": {ID: "enr-1", AcademyID: "a1", StudentID: "s1", LectureID: "l1"}},
		settleErr: errors.New("connection reset"),
	}
	gw := &stubGateway{resp: &gateway.ConfirmResponse{OrderID: "ord-1", Method: "CARD", TotalAmount: 150000, ApprovedAt: time.Now().UTC(), Raw: []byte(`{"status":"DONE"}`)}}
	svc := newPaymentService(payments, enrollments, gw)

	req := VerifyPaymentRequest{PaymentKey: "key-1", OrderID: "ord-1", Amount: 150000}

	// First delivery: charge succeeds, approval persists, but the
	// settle write dies before landing.
	_, err := svc.Approve(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, models.PaymentStatusApproved, payments.byOrder["ord-1"].Status)
	assert.False(t, enrollments.paid["enr-1"])

	// Replay: the already-approved branch must repair the enrollment
	// without charging again.
	payment, err := svc.Approve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, models.PaymentStatusApproved, payment.Status)
	assert.True(t, enrollments.paid["enr-1"])
}

func TestPaymentServiceApproveSkipsGatewayWhenSettled(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": verifiedPayment("ord-1", "key-1"),
	}}
	enrollments := &stubEnrollmentReader{byID: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", AcademyID: "a1", PaymentYN: true},
	}}
	gw := &stubGateway{}
	svc := newPaymentService(payments, enrollments, gw)

	_, err := svc.Approve(context.Background(), VerifyPaymentRequest{PaymentKey: "key-1", OrderID: "ord-1", Amount: 150000})
	require.NoError(t, err)
	assert.Equal(t, 0, gw.calls)
}

func TestPaymentServiceApproveGatewayFailure(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": verifiedPayment("ord-1", "key-1"),
	}}
	enrollments := &stubEnrollmentReader{byID: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", AcademyID: "a1"},
	}}
	gw := &stubGateway{err: errors.New("gateway timeout")}
	svc := newPaymentService(payments, enrollments, gw)

	_, err := svc.Approve(context.Background(), VerifyPaymentRequest{PaymentKey: "key-1", OrderID: "ord-1", Amount: 150000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentGatewayFailed.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "GATEWAY_CONFIRM_FAILED", payments.failed["ord-1"])
	assert.Equal(t, models.PaymentStatusFailed, payments.byOrder["ord-1"].Status)
	assert.False(t, enrollments.paid["enr-1"])
}

func TestPaymentServiceApproveWrongKey(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": verifiedPayment("ord-1", "key-1"),
	}}
	gw := &stubGateway{}
	svc := newPaymentService(payments, &stubEnrollmentReader{}, gw)

	_, err := svc.Approve(context.Background(), VerifyPaymentRequest{PaymentKey: "key-2", OrderID: "ord-1", Amount: 150000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentKeyConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, gw.calls)
}

func TestPaymentServiceReportFailure(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": {ID: "pay-1", OrderID: "ord-1", Amount: 150000, Status: models.PaymentStatusRequested},
	}}
	svc := newPaymentService(payments, &stubEnrollmentReader{}, &stubGateway{})

	payment, err := svc.ReportFailure(context.Background(), ReportFailureRequest{OrderID: "ord-1", ErrorCode: "PAY_PROCESS_CANCELED", ErrorMsg: "user canceled"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "PAY_PROCESS_CANCELED", payments.failed["ord-1"])
}

func TestPaymentServiceCancel(t *testing.T) {
	approved := verifiedPayment("ord-1", "key-1")
	approved.Status = models.PaymentStatusApproved
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{"ord-1": approved}}
	enrollments := &stubEnrollmentReader{byID: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", AcademyID: "a1", PaymentYN: true},
	}}
	svc := newPaymentService(payments, enrollments, &stubGateway{})

	cancelled, err := svc.Cancel(context.Background(), CancelPaymentRequest{
		OrderID: "ord-1", CancelAmount: 150000, CancelReason: "schedule conflict", CanceledAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", cancelled.OrderID)
	assert.Equal(t, models.PaymentStatusCancelled, payments.byOrder["ord-1"].Status)
	assert.False(t, enrollments.paid["enr-1"])
}

func TestPaymentServiceCancelNotApproved(t *testing.T) {
	payments := &stubPaymentRepo{byOrder: map[string]*models.Payment{
		"ord-1": verifiedPayment("ord-1", "key-1"),
	}}
	svc := newPaymentService(payments, &stubEnrollmentReader{}, &stubGateway{})

	_, err := svc.Cancel(context.Background(), CancelPaymentRequest{
		OrderID: "ord-1", CancelAmount: 150000, CancelReason: "schedule conflict", CanceledAt: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentNotApproved.Code, appErrors.FromError(err).Code)
	assert.Nil(t, payments.cancelled)
}
