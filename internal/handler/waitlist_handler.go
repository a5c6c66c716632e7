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

// WaitlistHandler exposes waiting-list endpoints.
type WaitlistHandler struct {
	waitlist *service.WaitlistService
}

// NewWaitlistHandler constructs WaitlistHandler.
func NewWaitlistHandler(waitlist *service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist}
}

// Enqueue godoc
// @Summary Add a student to a lecture's waiting list
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param lectureId path string true "Lecture ID"
// @Param payload body service.EnqueueRequest true "Waitlist payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academies/{academyId}/lectures/{lectureId}/waitlist [post]
func (h *WaitlistHandler) Enqueue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.LectureID = c.Param("lectureId")

	entry, err := h.waitlist.Enqueue(c.Request.Context(), claims.Principal(), c.Param("academyId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Withdraw godoc
// @Summary Remove a waiting-list entry
// @Tags Waitlist
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param entryId path string true "Waitlist entry ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /academies/{academyId}/waitlist/{entryId} [delete]
func (h *WaitlistHandler) Withdraw(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.waitlist.Withdraw(c.Request.Context(), claims.Principal(), c.Param("academyId"), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Count godoc
// @Summary Count live waiting-list entries for a lecture
// @Tags Waitlist
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param lectureId path string true "Lecture ID"
// @Success 200 {object} response.Envelope
// @Router /academies/{academyId}/lectures/{lectureId}/waitlist/count [get]
func (h *WaitlistHandler) Count(c *gin.Context) {
	count, err := h.waitlist.Count(c.Request.Context(), c.Param("lectureId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"lecture_id": c.Param("lectureId"), "count": count}, nil)
}

// List godoc
// @Summary List waiting-list entries in an academy
// @Tags Waitlist
// @Produce json
// @Param academyId path string true "Academy ID"
// @Param studentId query string false "Filter by student"
// @Param lectureId query string false "Filter by lecture"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /academies/{academyId}/waitlist [get]
func (h *WaitlistHandler) List(c *gin.Context) {
	var filter models.WaitlistFilter
	filter.AcademyID = c.Param("academyId")
	filter.StudentID = c.Query("studentId")
	filter.LectureID = c.Query("lectureId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	entries, pagination, err := h.waitlist.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
