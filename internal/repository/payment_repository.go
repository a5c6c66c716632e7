package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-ops-api/internal/models"
)

// PaymentRepository persists payment intents and their reconciliation
// state. Rows are keyed for idempotency by the unique order_id.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, order_id, payment_key, amount, pay_type, order_name, status,
        academy_id, student_id, employee_id, lecture_id, enrollment_id,
        method, approved_at, receipt, failure_code, failure_message, created_at, updated_at`

// Create persists a new payment request in REQUESTED state.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = models.PaymentStatusRequested
	}
	const query = `INSERT INTO payments (id, order_id, payment_key, amount, pay_type, order_name, status,
        academy_id, student_id, employee_id, lecture_id, enrollment_id, created_at, updated_at)
        VALUES (:id, :order_id, :payment_key, :amount, :pay_type, :order_name, :status,
        :academy_id, :student_id, :employee_id, :lecture_id, :enrollment_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByOrderID returns a payment by its idempotency key.
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, orderID); err != nil {
		return nil, err
	}
	return &payment, nil
}

// RecordPaymentKey stores the gateway-issued key and moves the payment
// to VERIFIED. The WHERE guard makes the write first-wins: a second
// webhook carrying a different key affects zero rows.
func (r *PaymentRepository) RecordPaymentKey(ctx context.Context, orderID, paymentKey string) (bool, error) {
	const query = `UPDATE payments SET payment_key = $2, status = $3, updated_at = $4
        WHERE order_id = $1 AND payment_key IS NULL`
	res, err := r.db.ExecContext(ctx, query, orderID, paymentKey, models.PaymentStatusVerified, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("record payment key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record payment key: %w", err)
	}
	return affected > 0, nil
}

// MarkApproved finalises a verified payment with the gateway response
// persisted verbatim.
func (r *PaymentRepository) MarkApproved(ctx context.Context, orderID, method string, approvedAt time.Time, receipt []byte) error {
	const query = `UPDATE payments SET status = $2, method = $3, approved_at = $4, receipt = $5, updated_at = $6
        WHERE order_id = $1`
	if _, err := r.db.ExecContext(ctx, query, orderID, models.PaymentStatusApproved, method, approvedAt, receipt, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark payment approved: %w", err)
	}
	return nil
}

// MarkFailed records a failure reported for the order.
func (r *PaymentRepository) MarkFailed(ctx context.Context, orderID, code, message string) error {
	const query = `UPDATE payments SET status = $2, failure_code = $3, failure_message = $4, updated_at = $5
        WHERE order_id = $1`
	if _, err := r.db.ExecContext(ctx, query, orderID, models.PaymentStatusFailed, code, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	return nil
}

// MarkCancelled transitions an approved payment to CANCELLED and
// appends the refund record in one transaction.
func (r *PaymentRepository) MarkCancelled(ctx context.Context, cancel *models.CancelPayment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel payment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateQuery, cancel.PaymentID, models.PaymentStatusCancelled, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark payment cancelled: %w", err)
	}

	if cancel.ID == "" {
		cancel.ID = uuid.NewString()
	}
	if cancel.CreatedAt.IsZero() {
		cancel.CreatedAt = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO cancel_payments (id, payment_id, order_id, cancel_amount, cancel_reason, canceled_at, created_at)
        VALUES (:id, :payment_id, :order_id, :cancel_amount, :cancel_reason, :canceled_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, cancel); err != nil {
		return fmt.Errorf("insert cancel payment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel payment tx: %w", err)
	}
	return nil
}
