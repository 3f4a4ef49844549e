package service

import (
	"errors"

	"github.com/stemsi/artbox-backend/internal/repository"
)

// Service-level errors. Handlers map them onto response codes.
var (
	ErrNotFound           = repository.ErrNotFound
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidJoinCode    = errors.New("unknown class join code")
	ErrJoinCodeForbidden  = errors.New("teachers do not join classes")
	ErrNotRegistered      = errors.New("student is not on any class roster")
	ErrNotOwner           = errors.New("resource belongs to another user")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrInvalidResource    = errors.New("invalid resource source")
)
