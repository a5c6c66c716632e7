package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-ops-api/internal/models"
	"github.com/noah-isme/academy-ops-api/internal/service"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
	"github.com/noah-isme/academy-ops-api/pkg/response"
)

// EnrollmentHandler exposes admission endpoints.
type EnrollmentHandler struct {
	admissions *service.AdmissionService
	metrics    *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(admissions *service.AdmissionService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{admissions: admissions, metrics: metrics}
}

// Enroll godoc
// @Summary Enroll a student into a lecture
// @Tags Admissions
// @Accept json
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param lectureId path string true "Lecture ID"
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academies/{academyId}/lectures/{lectureId}/enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.LectureID = c.Param("lectureId")

	detail, err := h.admissions.Enroll(c.Request.Context(), claims.Principal(), c.Param("academyId"), req)
	if err != nil {
		h.metrics.RecordAdmission(admissionOutcome(err))
		response.Error(c, err)
		return
	}
	h.metrics.RecordAdmission("enrolled")
	response.Created(c, detail)
}

// Cancel godoc
// @Summary Cancel an enrollment, promoting the waitlist head if any
// @Tags Admissions
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Param studentId query string true "Student ID"
// @Param lectureId query string true "Lecture ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academies/{academyId}/enrollments/{enrollmentId} [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.CancelRequest{
		EnrollmentID: c.Param("enrollmentId"),
		StudentID:    c.Query("studentId"),
		LectureID:    c.Query("lectureId"),
	}

	result, err := h.admissions.Cancel(c.Request.Context(), claims.Principal(), c.Param("academyId"), req)
	if err != nil {
		// The deletion may have committed even when promoting the
		// waitlist head was refused; report both.
		if result != nil {
			response.JSON(c, http.StatusOK, gin.H{
				"result":          result,
				"promotion_error": appErrors.FromError(err),
			}, nil)
			return
		}
		response.Error(c, err)
		return
	}
	if result.PromotedEnrollmentID != nil {
		h.metrics.RecordPromotion()
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List enrollments in an academy
// @Tags Admissions
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param studentId query string false "Filter by student"
// @Param lectureId query string false "Filter by lecture"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /academies/{academyId}/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.AcademyID = c.Param("academyId")
	filter.StudentID = c.Query("studentId")
	filter.LectureID = c.Query("lectureId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, pagination, err := h.admissions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

func admissionOutcome(err error) string {
	switch appErrors.FromError(err).Code {
	case appErrors.ErrDuplicatedEnrollment.Code:
		return "duplicate"
	case appErrors.ErrOverRegistration.Code:
		return "full"
	default:
		return "error"
	}
}
