package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/middleware"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stemsi/artbox-backend/internal/service"
	"github.com/stemsi/artbox-backend/internal/validator"
)

// ClassHandler handles teacher class management and roster import.
type ClassHandler struct {
	classService  *service.ClassService
	importService *service.ImportService
	log           zerolog.Logger
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService, importService *service.ImportService, log zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		classService:  classService,
		importService: importService,
		log:           log.With().Str("component", "class_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/teacher/classes
func (h *ClassHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	classes, err := h.classService.List(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if classes == nil {
		classes = []model.ClassGroup{}
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// Create godoc
// POST /api/v1/teacher/classes
func (h *ClassHandler) Create(c *gin.Context) {
	var req model.ClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Create(c.Request.Context(), middleware.GetClaims(c).UserID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// Update godoc
// PUT /api/v1/teacher/classes/:id
func (h *ClassHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.ClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Update(c.Request.Context(), middleware.GetClaims(c).UserID, id, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// Delete godoc
// DELETE /api/v1/teacher/classes/:id
func (h *ClassHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.classService.Delete(c.Request.Context(), middleware.GetClaims(c).UserID, id); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "class deleted successfully"})
}

// Roster godoc
// GET /api/v1/teacher/classes/:id/roster
func (h *ClassHandler) Roster(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	roster, err := h.classService.Roster(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": roster})
}

// Import godoc
// POST /api/v1/teacher/classes/:id/import
// Accepts an .xlsx roster in the "file" field. Failing rows are reported
// per row; the request itself succeeds.
func (h *ClassHandler) Import(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		return
	}

	results, err := h.importService.ImportWorkbook(c.Request.Context(), middleware.GetClaims(c).UserID, id, file)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	imported := 0
	for _, r := range results {
		if r.Success {
			imported++
		}
	}
	response.Success(c, http.StatusOK, gin.H{
		"results":  results,
		"imported": imported,
		"failed":   len(results) - imported,
	})
}
