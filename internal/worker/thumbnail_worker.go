package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/metrics"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/repository"
	"github.com/stemsi/artbox-backend/internal/storage"
)

const (
	thumbnailPollTimeout = time.Second
	thumbnailRetryDelay  = 5 * time.Second
	thumbnailMaxAttempts = 3
)

// ThumbnailJob asks for a thumbnail of one image of a work.
type ThumbnailJob struct {
	WorkID  uuid.UUID `json:"work_id"`
	Index   int       `json:"index"`
	Key     string    `json:"key"`
	OwnerID uuid.UUID `json:"owner_id"`
	Attempt int       `json:"attempt"`
}

// ThumbnailQueue pushes jobs onto the Redis list the worker consumes.
type ThumbnailQueue struct {
	rdb *redis.Client
}

// NewThumbnailQueue creates a new ThumbnailQueue.
func NewThumbnailQueue(rdb *redis.Client) *ThumbnailQueue {
	return &ThumbnailQueue{rdb: rdb}
}

// Enqueue appends job to the queue.
func (q *ThumbnailQueue) Enqueue(ctx context.Context, job ThumbnailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.ThumbnailQueue, payload).Err()
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, job ThumbnailJob) error
}

// Thumbnailer renders a thumbnail of an encoded image.
type Thumbnailer interface {
	Thumbnail(data []byte, size int) ([]byte, error)
}

// ThumbnailStore is the slice of the work repository the worker needs.
type ThumbnailStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Work, error)
	SetThumbnail(ctx context.Context, id uuid.UUID, index int, url string) error
}

// ThumbnailWorker consumes the thumbnail queue, stores thumbnails next to
// the originals and announces the updated work.
type ThumbnailWorker struct {
	rdb      *redis.Client
	queue    jobEnqueuer
	works    ThumbnailStore
	store    storage.Store
	thumbs   Thumbnailer
	notifier live.Notifier
	size     int
	log      zerolog.Logger
}

// NewThumbnailWorker creates a new ThumbnailWorker.
func NewThumbnailWorker(
	rdb *redis.Client,
	works ThumbnailStore,
	store storage.Store,
	thumbs Thumbnailer,
	notifier live.Notifier,
	size int,
	log zerolog.Logger,
) *ThumbnailWorker {
	return &ThumbnailWorker{
		rdb:      rdb,
		queue:    NewThumbnailQueue(rdb),
		works:    works,
		store:    store,
		thumbs:   thumbs,
		notifier: notifier,
		size:     size,
		log:      log.With().Str("component", "thumbnail_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ThumbnailWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ThumbnailWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, thumbnailPollTimeout, config.WorkerKey.ThumbnailQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var job ThumbnailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	err = w.Process(ctx, job)
	metrics.Thumbnails.WithLabelValues(metrics.Result(err)).Inc()
	if err == nil || errors.Is(err, repository.ErrNotFound) || errors.Is(err, storage.ErrObjectNotFound) {
		return
	}

	if w.retry(ctx, job, err) {
		time.Sleep(thumbnailRetryDelay)
	}
}

// retry puts a failed job back on the queue unless it has used up its
// attempts. It reports whether the job was requeued.
func (w *ThumbnailWorker) retry(ctx context.Context, job ThumbnailJob, cause error) bool {
	job.Attempt++
	if job.Attempt >= thumbnailMaxAttempts {
		w.log.Error().Err(cause).Str("work_id", job.WorkID.String()).Msg("Thumbnail failed, giving up")
		return false
	}
	w.log.Warn().Err(cause).Str("work_id", job.WorkID.String()).Msg("Thumbnail failed, retrying in 5s")
	if err := w.queue.Enqueue(ctx, job); err != nil {
		w.log.Error().Err(err).
			Str("work_id", job.WorkID.String()).
			Int("attempt", job.Attempt).
			Msg("Failed to requeue thumbnail job")
		return false
	}
	return true
}

// Process renders and records the thumbnail for one job. A work deleted in
// the meantime yields repository.ErrNotFound.
func (w *ThumbnailWorker) Process(ctx context.Context, job ThumbnailJob) error {
	r, err := w.store.Get(ctx, job.Key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return err
	}

	thumb, err := w.thumbs.Thumbnail(data, w.size)
	if err != nil {
		return err
	}
	url, err := w.store.Put(ctx, storage.ThumbnailKey(job.Key), bytes.NewReader(thumb))
	if err != nil {
		return err
	}
	if err := w.works.SetThumbnail(ctx, job.WorkID, job.Index, url); err != nil {
		return err
	}

	work, err := w.works.GetByID(ctx, job.WorkID)
	if err != nil {
		return err
	}
	return live.PublishAll(ctx, w.notifier, live.WorkTopics(work, job.OwnerID), live.ChangeUpdated, "work", work.ID)
}

// drain processes all remaining items in the queue before shutdown.
func (w *ThumbnailWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.ThumbnailQueue).Result()
		if err != nil {
			break
		}

		var job ThumbnailJob
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}
		if err := w.Process(ctx, job); err != nil {
			w.log.Error().Err(err).Msg("Drain process error")
			w.rdb.RPush(ctx, config.WorkerKey.ThumbnailQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
