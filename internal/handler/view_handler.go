package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/aggregate"
	"github.com/stemsi/artbox-backend/internal/middleware"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stemsi/artbox-backend/internal/service"
)

// ViewHandler serves the teacher's derived portfolio views.
type ViewHandler struct {
	viewService *service.ViewService
	log         zerolog.Logger
}

func NewViewHandler(viewService *service.ViewService, log zerolog.Logger) *ViewHandler {
	return &ViewHandler{
		viewService: viewService,
		log:         log.With().Str("component", "view_handler").Logger(),
	}
}

// Units godoc
// GET /api/v1/teacher/units
// Groups every work on the teacher's tasks by unit, then by student.
func (h *ViewHandler) Units(c *gin.Context) {
	units, err := h.viewService.Units(c.Request.Context(), middleware.GetClaims(c).UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"units": units})
}

// Board godoc
// GET /api/v1/teacher/classes/:id/board
func (h *ViewHandler) Board(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	board, err := h.viewService.ClassBoard(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"board": board})
}

// Portfolio godoc
// GET /api/v1/teacher/portfolio?unit=&student_id=&student_name=
// Returns one student's works in submission order.
func (h *ViewHandler) Portfolio(c *gin.Context) {
	filter := aggregate.StudentFilter{Name: c.Query("student_name")}
	if raw := c.Query("student_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.ID = id
	}
	if filter.ID == uuid.Nil && filter.Name == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"student_id": "student_id or student_name is required",
		})
		return
	}

	timeline, err := h.viewService.TeacherTimeline(c.Request.Context(), middleware.GetClaims(c).UserID, c.Query("unit"), filter)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"timeline": timeline})
}
