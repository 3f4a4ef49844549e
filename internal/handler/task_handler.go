package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/middleware"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stemsi/artbox-backend/internal/service"
	"github.com/stemsi/artbox-backend/internal/validator"
)

// TaskHandler handles teacher task boxes.
type TaskHandler struct {
	taskService *service.TaskService
	log         zerolog.Logger
}

func NewTaskHandler(taskService *service.TaskService, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log.With().Str("component", "task_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/teacher/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.taskService.List(c.Request.Context(), middleware.GetClaims(c).UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	response.Success(c, http.StatusOK, gin.H{"tasks": tasks})
}

// Create godoc
// POST /api/v1/teacher/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req model.TaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), middleware.GetClaims(c).UserID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"task": task})
}

// Update godoc
// PUT /api/v1/teacher/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.TaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), middleware.GetClaims(c).UserID, id, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// Delete godoc
// DELETE /api/v1/teacher/tasks/:id
// Works already submitted to the task are kept.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), middleware.GetClaims(c).UserID, id); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "task deleted successfully"})
}
