package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-ops-api/internal/service"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
	"github.com/noah-isme/academy-ops-api/pkg/response"
)

// DiscountHandler exposes discount binding endpoints.
type DiscountHandler struct {
	discounts *service.DiscountService
}

// NewDiscountHandler constructs DiscountHandler.
func NewDiscountHandler(discounts *service.DiscountService) *DiscountHandler {
	return &DiscountHandler{discounts: discounts}
}

type applyDiscountPayload struct {
	DiscountName string `json:"discount_name"`
}

// Apply godoc
// @Summary Bind a named discount to an enrollment
// @Tags Discounts
// @Accept json
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Param payload body applyDiscountPayload true "Discount payload"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academies/{academyId}/enrollments/{enrollmentId}/discount [put]
func (h *DiscountHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload applyDiscountPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	req := service.ApplyDiscountRequest{
		EnrollmentID: c.Param("enrollmentId"),
		DiscountName: payload.DiscountName,
	}
	if err := h.discounts.Apply(c.Request.Context(), claims.Principal(), c.Param("academyId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetApplied godoc
// @Summary Resolve the discount applied to an enrollment
// @Tags Discounts
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academies/{academyId}/enrollments/{enrollmentId}/discount [get]
func (h *DiscountHandler) GetApplied(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	discount, err := h.discounts.GetApplied(c.Request.Context(), claims.Principal(), c.Param("academyId"), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, discount, nil)
}
