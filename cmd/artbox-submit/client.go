package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/response"
)

// apiError is an error envelope returned by the server.
type apiError struct {
	Status int
	Body   response.ErrorBody
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Body.Code, e.Status, e.Body.Message)
}

// client talks to the ArtBox API with a student token.
type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(base, token string) *client {
	return &client{
		base:  strings.TrimSuffix(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env struct {
		Data  json.RawMessage     `json:"data"`
		Error *response.ErrorBody `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return &apiError{Status: resp.StatusCode, Body: *env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(payload), out)
}

func (c *client) signIn(ctx context.Context, email, password string) (*model.SessionResponse, error) {
	var session model.SessionResponse
	err := c.postJSON(ctx, "/api/v1/auth/signin", model.SignInRequest{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *client) signOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/signout", "", nil, nil)
}

func (c *client) tasks(ctx context.Context) ([]model.Task, error) {
	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/student/tasks", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// submit uploads image files as one work on taskID.
func (c *client) submit(ctx context.Context, taskID string, files []string, comment, title string, brightness float64) (*model.Work, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, path := range files {
		if err := addFile(mw, path); err != nil {
			return nil, err
		}
	}
	_ = mw.WriteField("comment", comment)
	if title != "" {
		_ = mw.WriteField("portfolio_title", title)
	}
	_ = mw.WriteField("brightness", strconv.FormatFloat(brightness, 'f', -1, 64))
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Work model.Work `json:"work"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/student/tasks/"+taskID+"/works", mw.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out.Work, nil
}

func addFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile("images", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
