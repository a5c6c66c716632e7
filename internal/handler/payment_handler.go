package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-ops-api/internal/service"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
	"github.com/noah-isme/academy-ops-api/pkg/response"
)

// PaymentHandler exposes payment intent and gateway webhook endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Request godoc
// @Summary Create a payment intent for a live enrollment
// @Tags Payments
// @Accept json
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param payload body service.RequestPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /academies/{academyId}/payments [post]
func (h *PaymentHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RequestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	quote, err := h.payments.Request(c.Request.Context(), claims.Principal(), c.Param("academyId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quote)
}

// Verify godoc
// @Summary Gateway success callback: verify and confirm the payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.VerifyPaymentRequest true "Callback payload"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if _, err := h.payments.Verify(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	payment, err := h.payments.Approve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Fail godoc
// @Summary Gateway failure callback
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.ReportFailureRequest true "Callback payload"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Router /payments/fail [post]
func (h *PaymentHandler) Fail(c *gin.Context) {
	var req service.ReportFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	payment, err := h.payments.ReportFailure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Cancel godoc
// @Summary Gateway refund callback
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CancelPaymentRequest true "Callback payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req service.CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	cancelled, err := h.payments.Cancel(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cancelled, nil)
}
