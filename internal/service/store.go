package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
)

// The store interfaces below are satisfied by the pgx repositories.

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListStudentsByClass(ctx context.Context, classID uuid.UUID) ([]model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ClassStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ClassGroup, error)
	GetByJoinCode(ctx context.Context, code string) (*model.ClassGroup, error)
	ListByOwner(ctx context.Context, teacherID uuid.UUID) ([]model.ClassGroup, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ClassGroup, error)
	Create(ctx context.Context, c *model.ClassGroup) error
	Update(ctx context.Context, c *model.ClassGroup) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListByOwner(ctx context.Context, teacherID uuid.UUID) ([]model.Task, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]model.Task, error)
	Create(ctx context.Context, t *model.Task) error
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type WorkStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Work, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Work, error)
	ListByTasks(ctx context.Context, taskIDs []uuid.UUID) ([]model.Work, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]model.Work, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Work, error)
	ListByTaskAndStudent(ctx context.Context, taskID, studentID uuid.UUID) ([]model.Work, error)
	Create(ctx context.Context, w *model.Work) error
	SetFeedback(ctx context.Context, id uuid.UUID, feedback string) error
	SetThumbnail(ctx context.Context, id uuid.UUID, index int, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ResourceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.SharedResource, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]model.SharedResource, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.SharedResource, error)
	Create(ctx context.Context, r *model.SharedResource) error
	Delete(ctx context.Context, id uuid.UUID) error
}
