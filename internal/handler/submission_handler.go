package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/middleware"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stemsi/artbox-backend/internal/service"
	"github.com/stemsi/artbox-backend/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SubmissionHandler serves the teacher side of submitted works.
type SubmissionHandler struct {
	viewService *service.ViewService
	workService *service.WorkService
	log         zerolog.Logger
}

func NewSubmissionHandler(viewService *service.ViewService, workService *service.WorkService, log zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		viewService: viewService,
		workService: workService,
		log:         log.With().Str("component", "submission_handler").Logger(),
	}
}

// Submissions godoc
// GET /api/v1/teacher/tasks/:id/submissions
// Returns the submission rate of the task and one row per roster student.
func (h *SubmissionHandler) Submissions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ts, err := h.viewService.Submissions(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, ts)
}

// Export godoc
// GET /api/v1/teacher/tasks/:id/submissions/export
func (h *SubmissionHandler) Export(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ts, err := h.viewService.Submissions(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := service.WriteSubmissionsWorkbook(&buf, ts); err != nil {
		fail(c, h.log, fmt.Errorf("render workbook: %w", err))
		return
	}

	filename := ts.Task.Title + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="submissions.xlsx"; filename*=UTF-8''%s`, url.PathEscape(filename)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Feedback godoc
// PATCH /api/v1/teacher/works/:id/feedback
func (h *SubmissionHandler) Feedback(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.FeedbackRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	work, err := h.workService.SetFeedback(c.Request.Context(), middleware.GetClaims(c).UserID, id, req.Feedback)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"work": work})
}

// Delete godoc
// DELETE /api/v1/teacher/works/:id
func (h *SubmissionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.workService.DeleteAsTeacher(c.Request.Context(), middleware.GetClaims(c).UserID, id); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "work deleted successfully"})
}
