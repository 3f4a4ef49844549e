package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is fixed at signup.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is an account of either role. Students carry the class they are
// enrolled in and their roster number; teachers own classes instead.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Role          Role       `json:"role"`
	DisplayName   string     `json:"display_name"`
	ClassID       *uuid.UUID `json:"class_id,omitempty"`
	StudentNumber string     `json:"student_number,omitempty"`
	PasswordHash  string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RosterEntry is the slice of a student User that roster views need.
type RosterEntry struct {
	StudentID     uuid.UUID `json:"student_id"`
	Name          string    `json:"name"`
	StudentNumber string    `json:"student_number"`
}

// Roster converts the user to its roster entry.
func (u *User) Roster() RosterEntry {
	return RosterEntry{StudentID: u.ID, Name: u.DisplayName, StudentNumber: u.StudentNumber}
}

// SignInRequest is the payload for email/password authentication.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// SignUpRequest creates a new account. Students must present a class join code.
type SignUpRequest struct {
	Email         string `json:"email" binding:"required,email,max=255"`
	Password      string `json:"password" binding:"required,min=6,max=128"`
	DisplayName   string `json:"display_name" binding:"required,min=1,max=100"`
	Role          Role   `json:"role" binding:"required,oneof=student teacher"`
	JoinCode      string `json:"join_code" binding:"omitempty,joincode"`
	StudentNumber string `json:"student_number" binding:"omitempty,max=10"`
}

// SessionResponse is returned after a successful sign-in or sign-up.
type SessionResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
