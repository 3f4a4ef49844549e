package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/model"
)

// TaskService manages task boxes.
type TaskService struct {
	tasks    TaskStore
	classes  *ClassService
	notifier live.Notifier
	log      zerolog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks TaskStore, classes *ClassService, notifier live.Notifier, log zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:    tasks,
		classes:  classes,
		notifier: notifier,
		log:      log.With().Str("component", "task_service").Logger(),
	}
}

// List retrieves every task a teacher owns.
func (s *TaskService) List(ctx context.Context, teacherID uuid.UUID) ([]model.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// ListForClass retrieves the task boxes students of a class see.
func (s *TaskService) ListForClass(ctx context.Context, classID uuid.UUID) ([]model.Task, error) {
	tasks, err := s.tasks.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Get retrieves a task owned by teacherID.
func (s *TaskService) Get(ctx context.Context, teacherID, id uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerTeacherID != teacherID {
		return nil, ErrNotOwner
	}
	return task, nil
}

// Create adds a task to one of the teacher's classes.
func (s *TaskService) Create(ctx context.Context, teacherID uuid.UUID, req *model.TaskRequest) (*model.Task, error) {
	if _, err := s.classes.Get(ctx, teacherID, req.ClassID); err != nil {
		return nil, err
	}

	task := &model.Task{OwnerTeacherID: teacherID}
	applyTaskRequest(task, req)
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.announce(ctx, task, live.ChangeCreated)
	return task, nil
}

// Update modifies a task. Works keep the titles they were submitted under.
func (s *TaskService) Update(ctx context.Context, teacherID, id uuid.UUID, req *model.TaskRequest) (*model.Task, error) {
	task, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	if req.ClassID != task.ClassID {
		if _, err := s.classes.Get(ctx, teacherID, req.ClassID); err != nil {
			return nil, err
		}
	}

	applyTaskRequest(task, req)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.announce(ctx, task, live.ChangeUpdated)
	return task, nil
}

// Delete removes a task. Its works stay and fall into the uncategorized unit.
func (s *TaskService) Delete(ctx context.Context, teacherID, id uuid.UUID) error {
	task, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.announce(ctx, task, live.ChangeDeleted)
	return nil
}

func (s *TaskService) announce(ctx context.Context, task *model.Task, kind string) {
	topics := []string{config.CacheKey.TeacherTasksChannel(task.OwnerTeacherID)}
	if err := live.PublishAll(ctx, s.notifier, topics, kind, "task", task.ID); err != nil {
		s.log.Warn().Err(err).Str("task_id", task.ID.String()).Msg("Failed to announce task change")
	}
}

func applyTaskRequest(task *model.Task, req *model.TaskRequest) {
	task.Title = strings.TrimSpace(req.Title)
	task.ClassID = req.ClassID
	task.Deadline = req.Deadline
	task.UnitName = nil
	if req.UnitName != nil {
		if unit := strings.TrimSpace(*req.UnitName); unit != "" {
			task.UnitName = &unit
		}
	}
}
