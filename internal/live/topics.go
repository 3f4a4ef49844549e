package live

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/model"
)

// WorkTopics lists every topic a change to w is announced on. ownerID is
// the teacher owning the work's task, uuid.Nil when unknown.
func WorkTopics(w *model.Work, ownerID uuid.UUID) []string {
	topics := []string{
		config.CacheKey.ClassWorksChannel(w.ClassID),
		config.CacheKey.TaskWorksChannel(w.TaskID),
	}
	if w.StudentID != uuid.Nil {
		topics = append(topics, config.CacheKey.StudentWorksChannel(w.StudentID))
	}
	if ownerID != uuid.Nil {
		topics = append(topics, config.CacheKey.TeacherWorksChannel(ownerID))
	}
	return topics
}

// PublishAll announces one change on several topics and joins the errors.
func PublishAll(ctx context.Context, n Notifier, topics []string, kind, entity string, id uuid.UUID) error {
	var errs []error
	for _, t := range topics {
		if err := n.Publish(ctx, Event{Topic: t, Kind: kind, ID: id, Entity: entity}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
