package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid account or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Admission, discount and payment domain errors.
var (
	ErrInvalidPermission     = New("INVALID_PERMISSION", http.StatusForbidden, "role is not allowed to perform this action")
	ErrDuplicatedEnrollment  = New("DUPLICATED_ENROLLMENT", http.StatusConflict, "student is already enrolled in this lecture")
	ErrOverRegistration      = New("OVER_REGISTRATION_NUMBER", http.StatusConflict, "lecture is at maximum capacity")
	ErrDuplicatedWaitinglist = New("DUPLICATED_WAITINGLIST", http.StatusConflict, "student is already on the waiting list")
	ErrDiscountNotFound      = New("DISCOUNT_NOT_FOUND", http.StatusNotFound, "discount not found")
	ErrEnrollmentNotFound    = New("ENROLLMENT_NOT_FOUND", http.StatusNotFound, "enrollment not found")
	ErrDuplicatedPayment     = New("DUPLICATED_PAYMENT", http.StatusConflict, "enrollment is already paid")
	ErrPaymentOrderPrice     = New("PAYMENT_ERROR_ORDER_PRICE", http.StatusBadRequest, "payment amount does not match the lecture price")
	ErrPaymentOrderPayType   = New("PAYMENT_ERROR_ORDER_PAY_TYPE", http.StatusBadRequest, "unsupported payment method")
	ErrPaymentOrderName      = New("PAYMENT_ERROR_ORDER_NAME", http.StatusBadRequest, "order name does not match the lecture name")
	ErrPaymentRequired       = New("PAYMENT_REQUIRED", http.StatusPaymentRequired, "no payment request found for order")
	ErrPaymentKeyConflict    = New("PAYMENT_KEY_CONFLICT", http.StatusConflict, "a different payment key is already recorded for this order")
	ErrPaymentNotApproved    = New("PAYMENT_NOT_APPROVED", http.StatusConflict, "payment is not in an approvable state")
	ErrPaymentGatewayFailed  = New("PAYMENT_GATEWAY_FAILED", http.StatusBadGateway, "payment gateway confirmation failed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
