package handler

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/imageproc"
	"github.com/stemsi/artbox-backend/internal/middleware"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stemsi/artbox-backend/internal/service"
	"github.com/stemsi/artbox-backend/internal/validator"
)

// maxImagesPerWork bounds the photos of one submission.
const maxImagesPerWork = 4

// StudentHandler serves student-facing endpoints. Every route runs behind
// middleware.RequireRegistered, so the student record is on the context.
type StudentHandler struct {
	taskService     *service.TaskService
	workService     *service.WorkService
	viewService     *service.ViewService
	resourceService *service.ResourceService
	maxUploadBytes  int64
	log             zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(
	taskService *service.TaskService,
	workService *service.WorkService,
	viewService *service.ViewService,
	resourceService *service.ResourceService,
	maxUploadBytes int64,
	log zerolog.Logger,
) *StudentHandler {
	return &StudentHandler{
		taskService:     taskService,
		workService:     workService,
		viewService:     viewService,
		resourceService: resourceService,
		maxUploadBytes:  maxUploadBytes,
		log:             log.With().Str("component", "student_handler").Logger(),
	}
}

// Tasks godoc
// GET /api/v1/student/tasks
// Lists the task boxes of the student's class.
func (h *StudentHandler) Tasks(c *gin.Context) {
	student := middleware.GetUser(c)

	tasks, err := h.taskService.ListForClass(c.Request.Context(), *student.ClassID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	response.Success(c, http.StatusOK, gin.H{"tasks": tasks})
}

// Submit godoc
// POST /api/v1/student/tasks/:id/works
// Accepts either JSON with data-url images or a multipart form with
// "images" files plus comment, portfolio_title and brightness fields.
func (h *StudentHandler) Submit(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var (
		sub    *service.Submission
		fields map[string]string
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		sub, fields, err = readMultipartSubmission(c)
	} else {
		sub, fields, err = readJSONSubmission(c)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrPayloadTooLarge)
			return
		}
		fail(c, h.log, err)
		return
	}
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	work, err := h.workService.Submit(c.Request.Context(), middleware.GetUser(c), taskID, sub)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"work": work})
}

func readJSONSubmission(c *gin.Context) (*service.Submission, map[string]string, error) {
	var req model.SubmitWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, validator.TranslateErrors(err), nil
	}

	sub := &service.Submission{
		Comment:        req.Comment,
		PortfolioTitle: req.PortfolioTitle,
		Brightness:     model.NeutralBrightness,
	}
	if req.Brightness != nil {
		sub.Brightness = *req.Brightness
	}
	for i, raw := range req.Images {
		data, err := imageproc.DecodeDataURL(raw)
		if err != nil {
			return nil, map[string]string{fmt.Sprintf("images[%d]", i): "images must be base64 image data urls"}, nil
		}
		sub.Images = append(sub.Images, data)
	}
	return sub, nil, nil
}

func readMultipartSubmission(c *gin.Context) (*service.Submission, map[string]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}

	files := form.File["images"]
	if len(files) == 0 {
		return nil, map[string]string{"images": "images is required"}, nil
	}
	if len(files) > maxImagesPerWork {
		return nil, map[string]string{"images": fmt.Sprintf("images must contain at most %d items", maxImagesPerWork)}, nil
	}

	sub := &service.Submission{
		Comment:    c.PostForm("comment"),
		Brightness: model.NeutralBrightness,
	}
	if title := c.PostForm("portfolio_title"); title != "" {
		sub.PortfolioTitle = &title
	}
	if len(sub.Comment) > 1000 {
		return nil, map[string]string{"comment": "comment must be at most 1000 characters"}, nil
	}
	if raw := c.PostForm("brightness"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || f < 0 || f > validator.MaxBrightness {
			return nil, map[string]string{"brightness": "brightness is out of range"}, nil
		}
		sub.Brightness = f
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		sub.Images = append(sub.Images, data)
	}
	return sub, nil, nil
}

// Works godoc
// GET /api/v1/student/works
func (h *StudentHandler) Works(c *gin.Context) {
	works, err := h.workService.ListForStudent(c.Request.Context(), middleware.GetUser(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	works, pagination := paginate(works, page, perPage)
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"works": works}, pagination)
}

// DeleteWork godoc
// DELETE /api/v1/student/works/:id
// Students edit a work by deleting it and submitting again.
func (h *StudentHandler) DeleteWork(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.workService.DeleteOwn(c.Request.Context(), middleware.GetUser(c).ID, id); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "work deleted successfully"})
}

// Portfolio godoc
// GET /api/v1/student/portfolio?unit=
func (h *StudentHandler) Portfolio(c *gin.Context) {
	timeline, err := h.viewService.StudentTimeline(c.Request.Context(), middleware.GetUser(c), c.Query("unit"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"timeline": timeline})
}

// Resources godoc
// GET /api/v1/student/resources
func (h *StudentHandler) Resources(c *gin.Context) {
	resources, err := h.resourceService.ListForClass(c.Request.Context(), *middleware.GetUser(c).ClassID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resources": resources})
}

// paginate returns one page of items. Out-of-range input falls back to the
// first page and a per-page size between 1 and 100.
func paginate[T any](items []T, page, perPage int) ([]T, *response.Pagination) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	total := len(items)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	return items[start:end], &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}
}
