package worker

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/imageproc"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/repository"
	"github.com/stemsi/artbox-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type oneWork struct {
	work *model.Work
}

func (s *oneWork) GetByID(_ context.Context, id uuid.UUID) (*model.Work, error) {
	if s.work == nil || s.work.ID != id {
		return nil, repository.ErrNotFound
	}
	cp := *s.work
	return &cp, nil
}

func (s *oneWork) SetThumbnail(_ context.Context, id uuid.UUID, index int, url string) error {
	if s.work == nil || s.work.ID != id || index >= len(s.work.Images) {
		return repository.ErrNotFound
	}
	s.work.Images[index].ThumbnailURL = url
	return nil
}

func TestThumbnailWorkerProcess(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, imaging.New(200, 100, color.White)))
	key := "works/a/b/img.png"
	url, err := store.Put(ctx, key, &src)
	require.NoError(t, err)

	work := &model.Work{ID: uuid.New(), TaskID: uuid.New(), ClassID: uuid.New(), Images: []model.ImageRef{{Key: key, URL: url}}}
	works := &oneWork{work: work}
	notifier := live.NewMemoryNotifier()
	feed, err := notifier.Subscribe(ctx, config.CacheKey.TaskWorksChannel(work.TaskID))
	require.NoError(t, err)
	defer feed.Close()

	w := NewThumbnailWorker(nil, works, store, imageproc.New(imageproc.Options{}), notifier, 32, zerolog.Nop())
	require.NoError(t, w.Process(ctx, ThumbnailJob{WorkID: work.ID, Index: 0, Key: key}))

	assert.Equal(t, "/uploads/works/a/b/img_thumb.jpg", work.Images[0].ThumbnailURL)
	ev := <-feed.Events()
	assert.Equal(t, work.ID, ev.ID)
	assert.Equal(t, live.ChangeUpdated, ev.Kind)

	r, err := store.Get(ctx, storage.ThumbnailKey(key))
	require.NoError(t, err)
	defer r.Close()
	img, err := imaging.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestThumbnailWorkerSkipsDeletedWork(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	w := NewThumbnailWorker(nil, &oneWork{}, store, imageproc.New(imageproc.Options{}), live.NewMemoryNotifier(), 32, zerolog.Nop())
	err = w.Process(ctx, ThumbnailJob{WorkID: uuid.New(), Key: "works/missing.jpg"})
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

type recordingQueue struct {
	err  error
	jobs []ThumbnailJob
}

func (q *recordingQueue) Enqueue(_ context.Context, job ThumbnailJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestThumbnailWorkerRetry(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	w := NewThumbnailWorker(nil, &oneWork{}, nil, nil, live.NewMemoryNotifier(), 32, zerolog.New(&logs))
	queue := &recordingQueue{}
	w.queue = queue
	job := ThumbnailJob{WorkID: uuid.New(), Key: "k"}

	assert.True(t, w.retry(ctx, job, errors.New("storage timeout")))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, 1, queue.jobs[0].Attempt)

	assert.False(t, w.retry(ctx, ThumbnailJob{WorkID: job.WorkID, Attempt: thumbnailMaxAttempts - 1}, errors.New("again")))
	assert.Len(t, queue.jobs, 1)
	assert.Contains(t, logs.String(), "giving up")

	queue.err = errors.New("redis down")
	assert.False(t, w.retry(ctx, job, errors.New("storage timeout")))
	assert.Contains(t, logs.String(), "Failed to requeue thumbnail job")
	assert.Contains(t, logs.String(), "redis down")
}
