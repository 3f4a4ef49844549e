package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/imageproc"
	"github.com/stemsi/artbox-backend/internal/repository"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stemsi/artbox-backend/internal/service"
)

// statusFor maps a service error onto an HTTP status and response code.
// Unknown errors are internal.
func statusFor(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrSessionInvalidated):
		return http.StatusUnauthorized, response.ErrSessionInvalidated
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, response.ErrEmailTaken
	case errors.Is(err, service.ErrInvalidJoinCode), errors.Is(err, service.ErrJoinCodeForbidden):
		return http.StatusBadRequest, response.ErrInvalidJoinCode
	case errors.Is(err, service.ErrNotRegistered):
		return http.StatusForbidden, response.ErrNotRegistered
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden, response.ErrActionForbidden
	case errors.Is(err, service.ErrInvalidResource), errors.Is(err, imageproc.ErrInvalidDataURL):
		return http.StatusBadRequest, response.ErrInvalidPayload
	case errors.Is(err, service.ErrNoHeader):
		return http.StatusBadRequest, response.ErrInvalidPayload
	case errors.Is(err, imageproc.ErrUnsupportedImage):
		return http.StatusBadRequest, response.ErrUnsupportedFile
	case errors.Is(err, imageproc.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, response.ErrPayloadTooLarge
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, response.ErrConflict
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// fail answers with the envelope for err. Internal errors are logged.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", response.RequestID(c)).Msg("Request failed")
	}
	response.Fail(c, status, code)
}

// paramID parses a uuid path parameter, answering INVALID_ID on failure.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
