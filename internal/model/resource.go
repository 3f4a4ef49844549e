package model

import (
	"time"

	"github.com/google/uuid"
)

// ResourceKind tags where a shared resource image comes from.
type ResourceKind string

const (
	ResourceCamera      ResourceKind = "camera"
	ResourceURL         ResourceKind = "url"
	ResourceStudentWork ResourceKind = "student_work"
)

// ResourceSource is a tagged union: exactly the fields of Kind are set.
// Camera sources hold the url of the stored upload, url sources an
// external url, student_work sources the work id plus its image url.
type ResourceSource struct {
	Kind     ResourceKind `json:"kind"`
	ImageURL string       `json:"image_url"`
	WorkID   *uuid.UUID   `json:"work_id,omitempty"`
	// ImageKey addresses a camera upload in storage.
	ImageKey string       `json:"-"`
}

// SharedResource is teacher-authored, read-only content broadcast to a class.
type SharedResource struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Source    ResourceSource `json:"source"`
	ClassID   uuid.UUID      `json:"class_id"`
	TeacherID uuid.UUID      `json:"teacher_id"`
	CreatedAt time.Time      `json:"created_at"`
}

// ResourceRequest creates a shared resource. Which of ImageData, ImageURL or
// WorkID is required depends on Kind.
type ResourceRequest struct {
	Title     string       `json:"title" binding:"required,min=1,max=200"`
	ClassID   uuid.UUID    `json:"class_id" binding:"required"`
	Kind      ResourceKind `json:"kind" binding:"required,oneof=camera url student_work"`
	ImageData string       `json:"image_data" binding:"required_if=Kind camera"`
	ImageURL  string       `json:"image_url" binding:"required_if=Kind url"`
	WorkID    *uuid.UUID   `json:"work_id" binding:"required_if=Kind student_work"`
}
