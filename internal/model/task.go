package model

import (
	"time"

	"github.com/google/uuid"
)

// UncategorizedUnit labels tasks that have neither a unit name nor a title.
const UncategorizedUnit = "未分類"

// Task is a "task box" students submit artwork against. Units are not
// entities: tasks sharing a UnitName string belong to the same unit.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	UnitName       *string    `json:"unit_name,omitempty"`
	ClassID        uuid.UUID  `json:"class_id"`
	OwnerTeacherID uuid.UUID  `json:"owner_teacher_id"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// UnitLabel resolves the grouping label: unit name, then title, then the
// uncategorized sentinel.
func (t *Task) UnitLabel() string {
	if t.UnitName != nil && *t.UnitName != "" {
		return *t.UnitName
	}
	if t.Title != "" {
		return t.Title
	}
	return UncategorizedUnit
}

// TaskRequest is the payload for creating or updating a task.
type TaskRequest struct {
	Title    string     `json:"title" binding:"required,min=1,max=200"`
	UnitName *string    `json:"unit_name" binding:"omitempty,max=100"`
	ClassID  uuid.UUID  `json:"class_id" binding:"required"`
	Deadline *time.Time `json:"deadline" binding:"omitempty"`
}
