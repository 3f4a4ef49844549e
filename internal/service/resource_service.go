package service

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/imageproc"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/storage"
)

// ResourceService manages teacher-shared reference material.
type ResourceService struct {
	resources ResourceStore
	works     WorkStore
	classes   *ClassService
	images    ImageProcessor
	store     storage.Store
	notifier  live.Notifier
	log       zerolog.Logger
}

// NewResourceService creates a new ResourceService.
func NewResourceService(
	resources ResourceStore,
	works WorkStore,
	classes *ClassService,
	images ImageProcessor,
	store storage.Store,
	notifier live.Notifier,
	log zerolog.Logger,
) *ResourceService {
	return &ResourceService{
		resources: resources,
		works:     works,
		classes:   classes,
		images:    images,
		store:     store,
		notifier:  notifier,
		log:       log.With().Str("component", "resource_service").Logger(),
	}
}

// ListByTeacher returns the resources a teacher shared.
func (s *ResourceService) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.SharedResource, error) {
	return nonNil(s.resources.ListByTeacher(ctx, teacherID))
}

// ListForClass returns the resources visible to students of a class.
func (s *ResourceService) ListForClass(ctx context.Context, classID uuid.UUID) ([]model.SharedResource, error) {
	return nonNil(s.resources.ListByClass(ctx, classID))
}

// Create shares a resource with one of the teacher's classes. The image
// comes from a camera upload, an external url or an existing student work.
func (s *ResourceService) Create(ctx context.Context, teacherID uuid.UUID, req *model.ResourceRequest) (*model.SharedResource, error) {
	if _, err := s.classes.Get(ctx, teacherID, req.ClassID); err != nil {
		return nil, err
	}

	res := &model.SharedResource{
		Title:     strings.TrimSpace(req.Title),
		ClassID:   req.ClassID,
		TeacherID: teacherID,
		Source:    model.ResourceSource{Kind: req.Kind},
	}

	switch req.Kind {
	case model.ResourceCamera:
		raw, err := imageproc.DecodeDataURL(req.ImageData)
		if err != nil {
			return nil, err
		}
		data, err := s.images.Process(bytes.NewReader(raw), model.NeutralBrightness)
		if err != nil {
			return nil, err
		}
		key := storage.ResourceImageKey(req.ClassID)
		u, err := s.store.Put(ctx, key, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		res.Source.ImageURL, res.Source.ImageKey = u, key

	case model.ResourceURL:
		if !isWebURL(req.ImageURL) {
			return nil, fmt.Errorf("%w: image_url must be an http(s) url", ErrInvalidResource)
		}
		res.Source.ImageURL = req.ImageURL

	case model.ResourceStudentWork:
		if req.WorkID == nil {
			return nil, fmt.Errorf("%w: work_id is required", ErrInvalidResource)
		}
		work, err := s.works.GetByID(ctx, *req.WorkID)
		if err != nil {
			return nil, err
		}
		if _, err := s.classes.Get(ctx, teacherID, work.ClassID); err != nil {
			return nil, err
		}
		if work.FirstImage() == "" {
			return nil, fmt.Errorf("%w: work has no image", ErrInvalidResource)
		}
		res.Source.ImageURL = work.FirstImage()
		res.Source.WorkID = &work.ID

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidResource, req.Kind)
	}

	if err := s.resources.Create(ctx, res); err != nil {
		if res.Source.ImageKey != "" {
			_ = s.store.Delete(ctx, res.Source.ImageKey)
		}
		return nil, err
	}
	s.announce(ctx, res, live.ChangeCreated)
	return res, nil
}

// Delete removes a resource the teacher shared.
func (s *ResourceService) Delete(ctx context.Context, teacherID, id uuid.UUID) error {
	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.TeacherID != teacherID {
		return ErrNotOwner
	}
	if err := s.resources.Delete(ctx, id); err != nil {
		return err
	}
	if res.Source.ImageKey != "" {
		if err := s.store.Delete(ctx, res.Source.ImageKey); err != nil {
			s.log.Warn().Err(err).Str("key", res.Source.ImageKey).Msg("Failed to remove resource image")
		}
	}
	s.announce(ctx, res, live.ChangeDeleted)
	return nil
}

func (s *ResourceService) announce(ctx context.Context, res *model.SharedResource, kind string) {
	topics := []string{config.CacheKey.ClassResourcesChannel(res.ClassID)}
	if err := live.PublishAll(ctx, s.notifier, topics, kind, "resource", res.ID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to announce resource change")
	}
}

func isWebURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func nonNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

