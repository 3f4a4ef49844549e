package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/aggregate"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/repository"
)

const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6
	joinCodeAttempts = 5
)

// ClassService handles class business logic.
type ClassService struct {
	classes ClassStore
	users   UserStore
	log     zerolog.Logger
}

// NewClassService creates a new ClassService.
func NewClassService(classes ClassStore, users UserStore, log zerolog.Logger) *ClassService {
	return &ClassService{
		classes: classes,
		users:   users,
		log:     log.With().Str("component", "class_service").Logger(),
	}
}

// List retrieves the classes a teacher owns.
func (s *ClassService) List(ctx context.Context, teacherID uuid.UUID) ([]model.ClassGroup, error) {
	classes, err := s.classes.ListByOwner(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if classes == nil {
		classes = []model.ClassGroup{}
	}
	return classes, nil
}

// Get retrieves a class owned by teacherID.
func (s *ClassService) Get(ctx context.Context, teacherID, id uuid.UUID) (*model.ClassGroup, error) {
	class, err := s.classes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if class.OwnerTeacherID != teacherID {
		return nil, ErrNotOwner
	}
	return class, nil
}

// Create inserts a class with a fresh join code, retrying on collisions.
func (s *ClassService) Create(ctx context.Context, teacherID uuid.UUID, req *model.ClassRequest) (*model.ClassGroup, error) {
	class := &model.ClassGroup{
		DisplayName:    strings.TrimSpace(req.DisplayName),
		Grade:          req.Grade,
		OwnerTeacherID: teacherID,
	}

	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := randomString(joinCodeAlphabet, joinCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate join code: %w", err)
		}
		class.JoinCode = code

		err = s.classes.Create(ctx, class)
		if err == nil {
			s.log.Info().Str("class_id", class.ID.String()).Msg("Class created")
			return class, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, errors.New("could not allocate a unique join code")
}

// Update renames a class.
func (s *ClassService) Update(ctx context.Context, teacherID, id uuid.UUID, req *model.ClassRequest) (*model.ClassGroup, error) {
	class, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	class.DisplayName = strings.TrimSpace(req.DisplayName)
	class.Grade = req.Grade
	if err := s.classes.Update(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

// Delete removes a class. Enrolled students, tasks and works keep their
// class id and are filtered out wherever it is resolved.
func (s *ClassService) Delete(ctx context.Context, teacherID, id uuid.UUID) error {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return err
	}
	return s.classes.Delete(ctx, id)
}

// Roster returns the enrolled students ordered by roster number.
func (s *ClassService) Roster(ctx context.Context, teacherID, classID uuid.UUID) ([]model.RosterEntry, error) {
	if _, err := s.Get(ctx, teacherID, classID); err != nil {
		return nil, err
	}
	return s.roster(ctx, classID)
}

func (s *ClassService) roster(ctx context.Context, classID uuid.UUID) ([]model.RosterEntry, error) {
	students, err := s.users.ListStudentsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	entries := make([]model.RosterEntry, 0, len(students))
	for i := range students {
		entries = append(entries, students[i].Roster())
	}
	return aggregate.SortRoster(entries), nil
}
