package model

import (
	"time"

	"github.com/google/uuid"
)

// UntitledWork is shown when a work has neither a portfolio title nor a task title.
const UntitledWork = "無題"

// WorkStatus tracks teacher review.
type WorkStatus string

const (
	WorkStatusPending WorkStatus = "pending"
	WorkStatusChecked WorkStatus = "checked"
)

// NeutralBrightness leaves the submitted photo untouched.
const NeutralBrightness = 1.0

// ImageRef points at a stored artwork image. Key addresses the object in
// the storage backend.
type ImageRef struct {
	Key          string `json:"key,omitempty"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Work is one student submission against a task. Student and task fields
// are denormalized at submission time; class and task ids are not foreign
// keys and may dangle.
type Work struct {
	ID              uuid.UUID  `json:"id"`
	StudentID       uuid.UUID  `json:"student_id"`
	StudentName     string     `json:"student_name"`
	StudentNumber   string     `json:"student_number"`
	ClassID         uuid.UUID  `json:"class_id"`
	TaskID          uuid.UUID  `json:"task_id"`
	TaskTitle       string     `json:"task_title"`
	UnitName        string     `json:"unit_name"`
	PortfolioTitle  *string    `json:"portfolio_title,omitempty"`
	Images          []ImageRef `json:"images"`
	Comment         string     `json:"comment"`
	TeacherFeedback *string    `json:"teacher_feedback,omitempty"`
	Brightness      float64    `json:"brightness"`
	Status          WorkStatus `json:"status"`
	CreatedAt       *time.Time `json:"created_at"`
}

// DisplayTitle falls back from the portfolio title to the task title.
func (w *Work) DisplayTitle() string {
	if w.PortfolioTitle != nil && *w.PortfolioTitle != "" {
		return *w.PortfolioTitle
	}
	if w.TaskTitle != "" {
		return w.TaskTitle
	}
	return UntitledWork
}

// FirstImage returns the first image url, or "" for a placeholder slot.
func (w *Work) FirstImage() string {
	if len(w.Images) == 0 {
		return ""
	}
	return w.Images[0].URL
}

// SubmittedAt returns created_at, or the zero time when it is missing.
func (w *Work) SubmittedAt() time.Time {
	if w.CreatedAt == nil {
		return time.Time{}
	}
	return *w.CreatedAt
}

// SubmitWorkRequest is the JSON form of a submission. Images are data URLs.
type SubmitWorkRequest struct {
	Images         []string `json:"images" binding:"required,min=1,max=4,dive,required"`
	Comment        string   `json:"comment" binding:"omitempty,max=1000"`
	PortfolioTitle *string  `json:"portfolio_title" binding:"omitempty,max=100"`
	Brightness     *float64 `json:"brightness" binding:"omitempty,brightness"`
}

// FeedbackRequest is the payload for teacher feedback on a work.
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required,max=2000"`
}
