package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/aggregate"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/model"
)

// TaskSubmissions is the submission status board of one task.
type TaskSubmissions struct {
	Task model.Task               `json:"task"`
	Rate aggregate.SubmissionRate `json:"rate"`
}

// ViewService assembles the derived read views from raw collections and
// keeps them live. Every view is a full recomputation.
type ViewService struct {
	classes   ClassStore
	tasks     TaskStore
	works     WorkStore
	users     UserStore
	resources ResourceStore
	notifier  live.Notifier
	log       zerolog.Logger
}

// NewViewService creates a new ViewService.
func NewViewService(
	classes ClassStore,
	tasks TaskStore,
	works WorkStore,
	users UserStore,
	resources ResourceStore,
	notifier live.Notifier,
	log zerolog.Logger,
) *ViewService {
	return &ViewService{
		classes:   classes,
		tasks:     tasks,
		works:     works,
		users:     users,
		resources: resources,
		notifier:  notifier,
		log:       log.With().Str("component", "view_service").Logger(),
	}
}

// teacherWorks collects the works of every class the teacher owns. Works
// of deleted classes drop out here.
func (s *ViewService) teacherWorks(ctx context.Context, teacherID uuid.UUID) ([]model.ClassGroup, []model.Work, error) {
	classes, err := s.classes.ListByOwner(ctx, teacherID)
	if err != nil {
		return nil, nil, err
	}
	var works []model.Work
	for _, c := range classes {
		ws, err := s.works.ListByClass(ctx, c.ID)
		if err != nil {
			return nil, nil, err
		}
		works = append(works, ws...)
	}
	return classes, works, nil
}

// Units groups the teacher's works by unit and student.
func (s *ViewService) Units(ctx context.Context, teacherID uuid.UUID) ([]aggregate.UnitGroup, error) {
	tasks, err := s.tasks.ListByOwner(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	_, works, err := s.teacherWorks(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return aggregate.GroupByUnit(tasks, works), nil
}

// ClassBoard groups one class's works by student.
func (s *ViewService) ClassBoard(ctx context.Context, teacherID, classID uuid.UUID) (*aggregate.ClassView, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.OwnerTeacherID != teacherID {
		return nil, ErrNotOwner
	}
	tasks, err := s.tasks.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	works, err := s.works.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	views := aggregate.GroupByClass([]model.ClassGroup{*class}, tasks, works)
	if len(views) == 0 {
		return &aggregate.ClassView{ClassID: class.ID, ClassName: class.DisplayName, Grade: class.Grade, Portfolios: []aggregate.Portfolio{}}, nil
	}
	return &views[0], nil
}

// Submissions computes the submission rate of a task against its class roster.
func (s *ViewService) Submissions(ctx context.Context, teacherID, taskID uuid.UUID) (*TaskSubmissions, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerTeacherID != teacherID {
		return nil, ErrNotOwner
	}
	return s.submissions(ctx, task)
}

func (s *ViewService) submissions(ctx context.Context, task *model.Task) (*TaskSubmissions, error) {
	students, err := s.users.ListStudentsByClass(ctx, task.ClassID)
	if err != nil {
		return nil, err
	}
	roster := make([]model.RosterEntry, 0, len(students))
	for i := range students {
		roster = append(roster, students[i].Roster())
	}
	works, err := s.works.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return &TaskSubmissions{Task: *task, Rate: aggregate.ComputeSubmissionRate(roster, works)}, nil
}

// TeacherTimeline builds the journey of one student across the teacher's
// classes, optionally limited to a unit.
func (s *ViewService) TeacherTimeline(ctx context.Context, teacherID uuid.UUID, unit string, student aggregate.StudentFilter) (aggregate.Timeline, error) {
	_, works, err := s.teacherWorks(ctx, teacherID)
	if err != nil {
		return aggregate.Timeline{}, err
	}
	return aggregate.BuildPortfolioTimeline(works, unit, student), nil
}

// StudentTimeline builds a student's own journey.
func (s *ViewService) StudentTimeline(ctx context.Context, student *model.User, unit string) (aggregate.Timeline, error) {
	works, err := s.works.ListByStudent(ctx, student.ID)
	if err != nil {
		return aggregate.Timeline{}, err
	}
	return aggregate.BuildPortfolioTimeline(works, unit, aggregate.StudentFilter{ID: student.ID, Name: student.DisplayName}), nil
}

// ─── Live views ────────────────────────────────────────────────────────────

// WatchUnits keeps Units live across task and work changes.
func (s *ViewService) WatchUnits(ctx context.Context, teacherID uuid.UUID) (*live.Subscription[[]aggregate.UnitGroup], error) {
	topics := []string{
		config.CacheKey.TeacherTasksChannel(teacherID),
		config.CacheKey.TeacherWorksChannel(teacherID),
	}
	return live.Watch(ctx, s.notifier, "units", topics, func(ctx context.Context) ([]aggregate.UnitGroup, error) {
		return s.Units(ctx, teacherID)
	}, s.log)
}

// WatchSubmissions keeps a task's submission board live across work and
// roster changes.
func (s *ViewService) WatchSubmissions(ctx context.Context, teacherID, taskID uuid.UUID) (*live.Subscription[*TaskSubmissions], error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerTeacherID != teacherID {
		return nil, ErrNotOwner
	}
	topics := []string{
		config.CacheKey.TaskWorksChannel(task.ID),
		config.CacheKey.ClassRosterChannel(task.ClassID),
	}
	return live.Watch(ctx, s.notifier, "submissions", topics, func(ctx context.Context) (*TaskSubmissions, error) {
		return s.submissions(ctx, task)
	}, s.log)
}

// WatchStudentWorks streams a student's own works.
func (s *ViewService) WatchStudentWorks(ctx context.Context, studentID uuid.UUID) (*live.Subscription[[]model.Work], error) {
	topics := []string{config.CacheKey.StudentWorksChannel(studentID)}
	return live.Watch(ctx, s.notifier, "student_works", topics, func(ctx context.Context) ([]model.Work, error) {
		return nonNil(s.works.ListByStudent(ctx, studentID))
	}, s.log)
}

// WatchResources streams the resources shared with a class.
func (s *ViewService) WatchResources(ctx context.Context, classID uuid.UUID) (*live.Subscription[[]model.SharedResource], error) {
	topics := []string{config.CacheKey.ClassResourcesChannel(classID)}
	return live.Watch(ctx, s.notifier, "resources", topics, func(ctx context.Context) ([]model.SharedResource, error) {
		return nonNil(s.resources.ListByClass(ctx, classID))
	}, s.log)
}
