package model

import (
	"time"

	"github.com/google/uuid"
)

// ClassGroup is a teacher-owned class that students join with a code.
type ClassGroup struct {
	ID             uuid.UUID `json:"id"`
	DisplayName    string    `json:"display_name"`
	Grade          *int      `json:"grade,omitempty"`
	OwnerTeacherID uuid.UUID `json:"owner_teacher_id"`
	JoinCode       string    `json:"join_code"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClassRequest is the payload for creating or renaming a class.
type ClassRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
	Grade       *int   `json:"grade" binding:"omitempty,min=1,max=12"`
}
