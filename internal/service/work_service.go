package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/metrics"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/repository"
	"github.com/stemsi/artbox-backend/internal/storage"
	"github.com/stemsi/artbox-backend/internal/worker"
)

// ImageProcessor normalizes one submitted image.
type ImageProcessor interface {
	Process(r io.Reader, brightness float64) ([]byte, error)
}

// ThumbnailEnqueuer schedules thumbnail generation.
type ThumbnailEnqueuer interface {
	Enqueue(ctx context.Context, job worker.ThumbnailJob) error
}

// Submission is a student's upload after transport decoding. Brightness is
// applied as given; transports default it to model.NeutralBrightness.
type Submission struct {
	Images         [][]byte
	Comment        string
	PortfolioTitle *string
	Brightness     float64
}

// WorkService handles submissions, teacher feedback and deletion.
type WorkService struct {
	works    WorkStore
	tasks    TaskStore
	classes  ClassStore
	images   ImageProcessor
	store    storage.Store
	thumbs   ThumbnailEnqueuer
	notifier live.Notifier
	log      zerolog.Logger
}

// NewWorkService creates a new WorkService.
func NewWorkService(
	works WorkStore,
	tasks TaskStore,
	classes ClassStore,
	images ImageProcessor,
	store storage.Store,
	thumbs ThumbnailEnqueuer,
	notifier live.Notifier,
	log zerolog.Logger,
) *WorkService {
	return &WorkService{
		works:    works,
		tasks:    tasks,
		classes:  classes,
		images:   images,
		store:    store,
		thumbs:   thumbs,
		notifier: notifier,
		log:      log.With().Str("component", "work_service").Logger(),
	}
}

// Submit stores a new work for student on taskID. Every image is processed
// before anything is written, so an oversized image leaves no trace.
// Repeated submissions to the same task are kept as history.
func (s *WorkService) Submit(ctx context.Context, student *model.User, taskID uuid.UUID, sub *Submission) (*model.Work, error) {
	if student.ClassID == nil {
		return nil, ErrNotRegistered
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.ClassID != *student.ClassID {
		return nil, ErrNotOwner
	}

	brightness := sub.Brightness
	processed := make([][]byte, 0, len(sub.Images))
	for i, raw := range sub.Images {
		out, err := s.images.Process(bytes.NewReader(raw), brightness)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		processed = append(processed, out)
	}

	refs := make([]model.ImageRef, 0, len(processed))
	for _, data := range processed {
		key := storage.WorkImageKey(task.ClassID, task.ID)
		url, err := s.store.Put(ctx, key, bytes.NewReader(data))
		if err != nil {
			s.removeObjects(ctx, refs)
			return nil, fmt.Errorf("store image: %w", err)
		}
		refs = append(refs, model.ImageRef{Key: key, URL: url})
	}

	work := &model.Work{
		StudentID:      student.ID,
		StudentName:    student.DisplayName,
		StudentNumber:  student.StudentNumber,
		ClassID:        task.ClassID,
		TaskID:         task.ID,
		TaskTitle:      task.Title,
		UnitName:       task.UnitLabel(),
		PortfolioTitle: trimmedOrNil(sub.PortfolioTitle),
		Images:         refs,
		Comment:        strings.TrimSpace(sub.Comment),
		Brightness:     brightness,
	}
	if err := s.works.Create(ctx, work); err != nil {
		s.removeObjects(ctx, refs)
		return nil, err
	}
	metrics.Submissions.Inc()

	for i, ref := range refs {
		job := worker.ThumbnailJob{WorkID: work.ID, Index: i, Key: ref.Key, OwnerID: task.OwnerTeacherID}
		if err := s.thumbs.Enqueue(ctx, job); err != nil {
			s.log.Warn().Err(err).Str("work_id", work.ID.String()).Msg("Failed to enqueue thumbnail")
		}
	}
	s.announce(ctx, work, task.OwnerTeacherID, live.ChangeCreated)

	s.log.Info().
		Str("work_id", work.ID.String()).
		Str("task_id", task.ID.String()).
		Int("images", len(refs)).
		Msg("Work submitted")
	return work, nil
}

// ListForStudent returns the student's own works, oldest first.
func (s *WorkService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Work, error) {
	works, err := s.works.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if works == nil {
		works = []model.Work{}
	}
	return works, nil
}

// DeleteOwn removes one of the student's works. Deleting and submitting
// again is the only way a student edits a work.
func (s *WorkService) DeleteOwn(ctx context.Context, studentID, workID uuid.UUID) error {
	work, err := s.works.GetByID(ctx, workID)
	if err != nil {
		return err
	}
	if work.StudentID != studentID {
		return ErrNotOwner
	}
	return s.delete(ctx, work, s.ownerOf(ctx, work))
}

// DeleteAsTeacher removes a work from one of the teacher's tasks.
func (s *WorkService) DeleteAsTeacher(ctx context.Context, teacherID, workID uuid.UUID) error {
	work, err := s.works.GetByID(ctx, workID)
	if err != nil {
		return err
	}
	if err := s.authorizeTeacher(ctx, teacherID, work); err != nil {
		return err
	}
	return s.delete(ctx, work, teacherID)
}

// SetFeedback records teacher feedback and marks the work checked.
func (s *WorkService) SetFeedback(ctx context.Context, teacherID, workID uuid.UUID, feedback string) (*model.Work, error) {
	work, err := s.works.GetByID(ctx, workID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTeacher(ctx, teacherID, work); err != nil {
		return nil, err
	}

	feedback = strings.TrimSpace(feedback)
	if err := s.works.SetFeedback(ctx, workID, feedback); err != nil {
		return nil, err
	}
	work.TeacherFeedback = &feedback
	work.Status = model.WorkStatusChecked
	s.announce(ctx, work, teacherID, live.ChangeUpdated)
	return work, nil
}

// authorizeTeacher accepts the owner of the work's task or, when the task
// is gone, the owner of its class.
func (s *WorkService) authorizeTeacher(ctx context.Context, teacherID uuid.UUID, work *model.Work) error {
	task, err := s.tasks.GetByID(ctx, work.TaskID)
	switch {
	case err == nil:
		if task.OwnerTeacherID == teacherID {
			return nil
		}
		return ErrNotOwner
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	class, err := s.classes.GetByID(ctx, work.ClassID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotOwner
		}
		return err
	}
	if class.OwnerTeacherID != teacherID {
		return ErrNotOwner
	}
	return nil
}

func (s *WorkService) ownerOf(ctx context.Context, work *model.Work) uuid.UUID {
	task, err := s.tasks.GetByID(ctx, work.TaskID)
	if err != nil {
		return uuid.Nil
	}
	return task.OwnerTeacherID
}

func (s *WorkService) delete(ctx context.Context, work *model.Work, ownerID uuid.UUID) error {
	if err := s.works.Delete(ctx, work.ID); err != nil {
		return err
	}
	s.removeObjects(ctx, work.Images)
	s.announce(ctx, work, ownerID, live.ChangeDeleted)
	return nil
}

func (s *WorkService) removeObjects(ctx context.Context, refs []model.ImageRef) {
	for _, ref := range refs {
		if ref.Key == "" {
			continue
		}
		for _, key := range []string{ref.Key, storage.ThumbnailKey(ref.Key)} {
			if err := s.store.Delete(ctx, key); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Failed to remove image object")
			}
		}
	}
}

func (s *WorkService) announce(ctx context.Context, work *model.Work, ownerID uuid.UUID, kind string) {
	if err := live.PublishAll(ctx, s.notifier, live.WorkTopics(work, ownerID), kind, "work", work.ID); err != nil {
		s.log.Warn().Err(err).Str("work_id", work.ID.String()).Msg("Failed to announce work change")
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
