package models

import "time"

// PaymentStatus tracks the reconciliation state machine:
// REQUESTED -> VERIFIED -> (APPROVED | FAILED), with CANCELLED
// reachable only from APPROVED via a refund reconciliation.
type PaymentStatus string

const (
	PaymentStatusRequested PaymentStatus = "REQUESTED"
	PaymentStatusVerified  PaymentStatus = "VERIFIED"
	PaymentStatusApproved  PaymentStatus = "APPROVED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// PayType is the payment method declared at submission time. Only
// card payments are accepted.
type PayType string

const (
	PayTypeCard PayType = "CARD"
)

// Payment records a payment intent and its reconciliation against the
// external gateway. OrderID is the globally unique idempotency key
// for gateway callbacks; PaymentKey is issued by the gateway and
// recorded at verification.
type Payment struct {
	ID           string        `db:"id" json:"id"`
	OrderID      string        `db:"order_id" json:"order_id"`
	PaymentKey   *string       `db:"payment_key" json:"payment_key,omitempty"`
	Amount       int64         `db:"amount" json:"amount"`
	PayType      PayType       `db:"pay_type" json:"pay_type"`
	OrderName    string        `db:"order_name" json:"order_name"`
	Status       PaymentStatus `db:"status" json:"status"`
	AcademyID    string        `db:"academy_id" json:"academy_id"`
	StudentID    string        `db:"student_id" json:"student_id"`
	EmployeeID   string        `db:"employee_id" json:"employee_id"`
	LectureID    string        `db:"lecture_id" json:"lecture_id"`
	EnrollmentID string        `db:"enrollment_id" json:"enrollment_id"`

	// Gateway response fields, persisted verbatim for audit once the
	// payment is approved.
	Method     *string    `db:"method" json:"method,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	Receipt    []byte     `db:"receipt" json:"-"`

	FailureCode    *string `db:"failure_code" json:"failure_code,omitempty"`
	FailureMessage *string `db:"failure_message" json:"failure_message,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentQuote is returned on a successful payment request. It carries
// the gateway callback URLs the client hands to the payment widget.
type PaymentQuote struct {
	OrderID    string  `json:"order_id"`
	Amount     int64   `json:"amount"`
	OrderName  string  `json:"order_name"`
	PayType    PayType `json:"pay_type"`
	SuccessURL string  `json:"success_url"`
	FailURL    string  `json:"fail_url"`
}

// CancelPayment records a refund reconciled from the gateway.
type CancelPayment struct {
	ID           string    `db:"id" json:"id"`
	PaymentID    string    `db:"payment_id" json:"payment_id"`
	OrderID      string    `db:"order_id" json:"order_id"`
	CancelAmount int64     `db:"cancel_amount" json:"cancel_amount"`
	CancelReason string    `db:"cancel_reason" json:"cancel_reason"`
	CanceledAt   time.Time `db:"canceled_at" json:"canceled_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
