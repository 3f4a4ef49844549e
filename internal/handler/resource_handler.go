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

// ResourceHandler handles resources a teacher shares with a class.
type ResourceHandler struct {
	resourceService *service.ResourceService
	log             zerolog.Logger
}

func NewResourceHandler(resourceService *service.ResourceService, log zerolog.Logger) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
		log:             log.With().Str("component", "resource_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/teacher/resources
func (h *ResourceHandler) List(c *gin.Context) {
	resources, err := h.resourceService.ListByTeacher(c.Request.Context(), middleware.GetClaims(c).UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resources": resources})
}

// Create godoc
// POST /api/v1/teacher/resources
func (h *ResourceHandler) Create(c *gin.Context) {
	var req model.ResourceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.resourceService.Create(c.Request.Context(), middleware.GetClaims(c).UserID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"resource": res})
}

// Delete godoc
// DELETE /api/v1/teacher/resources/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.resourceService.Delete(c.Request.Context(), middleware.GetClaims(c).UserID, id); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "resource deleted successfully"})
}
