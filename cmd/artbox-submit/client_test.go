package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/auth/signin", func(c *gin.Context) {
		var req model.SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		if req.Password != "secret1" {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Success(c, http.StatusOK, model.SessionResponse{
			Token: "tok",
			User:  model.User{Email: req.Email, Role: model.RoleStudent, DisplayName: "青木", StudentNumber: "1"},
		})
	})
	r.POST("/api/v1/student/tasks/:id/works", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer tok" {
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
			return
		}
		files := form.File["images"]
		images := make([]model.ImageRef, len(files))
		for i, fh := range files {
			f, err := fh.Open()
			if err != nil {
				response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
				return
			}
			data, _ := io.ReadAll(f)
			f.Close()
			images[i] = model.ImageRef{URL: string(data)}
		}
		response.Success(c, http.StatusCreated, gin.H{"work": model.Work{
			ID:        uuid.New(),
			TaskTitle: c.Param("id"),
			Comment:   c.PostForm("comment"),
			Images:    images,
		}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSignIn(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(srv.URL+"/", "")

	session, err := c.signIn(context.Background(), "aoki@school.jp", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, "青木", session.User.DisplayName)

	_, err = c.signIn(context.Background(), "aoki@school.jp", "wrong")
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, response.ErrInvalidCredentials, apiErr.Body.Code)
}

func TestClientSubmitMultipart(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(a, []byte("first"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("second"), 0o600))

	work, err := newClient(srv.URL, "tok").submit(context.Background(), "task-1", []string{a, b}, "がんばった", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "task-1", work.TaskTitle)
	assert.Equal(t, "がんばった", work.Comment)
	require.Len(t, work.Images, 2)
	assert.Equal(t, "first", work.Images[0].URL)
	assert.Equal(t, "second", work.Images[1].URL)
}
