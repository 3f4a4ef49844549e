package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, reqID string, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRequestIDKeepsWellFormedHeader(t *testing.T) {
	w, body := serve(t, "easel-42.a_b", func(c *gin.Context) {
		assert.Equal(t, "easel-42.a_b", RequestID(c))
		Success(c, http.StatusOK, "ok")
	})
	assert.Equal(t, "easel-42.a_b", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "easel-42.a_b", body.Metadata.RequestID)
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	for name, header := range map[string]string{
		"spaces":   "a b",
		"too long": strings.Repeat("x", 65),
		"newline":  "abc\ninjected",
	} {
		t.Run(name, func(t *testing.T) {
			w, body := serve(t, header, func(c *gin.Context) {
				Success(c, http.StatusOK, nil)
			})
			got := w.Header().Get("X-Request-ID")
			assert.NotEqual(t, header, got)
			assert.Len(t, got, 36)
			assert.Equal(t, got, body.Metadata.RequestID)
		})
	}
}

func TestFailWithFieldsEnvelope(t *testing.T) {
	w, body := serve(t, "", func(c *gin.Context) {
		FailWithFields(c, http.StatusUnprocessableEntity, ErrValidation, map[string]string{"title": "required"})
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrValidation, body.Error.Code)
	assert.Equal(t, GetMessage(ErrValidation), body.Error.Message)
	assert.Equal(t, map[string]string{"title": "required"}, body.Error.Fields)
	assert.Nil(t, body.Data)
	assert.NotEmpty(t, body.Metadata.Timestamp)
}

func TestAbortFailStopsChain(t *testing.T) {
	r := gin.New()
	reached := false
	r.GET("/", func(c *gin.Context) {
		AbortFail(c, http.StatusTooManyRequests, ErrRateLimitExceeded)
	}, func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, reached)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrRateLimitExceeded, body.Error.Code)
	assert.NotEmpty(t, body.Metadata.RequestID, "falls back to a fresh id outside the middleware")
}
