package live

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/metrics"
)

// Snapshot is one full recomputation of a live view. Err is set when the
// query failed; Data is then the zero value.
type Snapshot[T any] struct {
	Data T
	Err  error
	At   time.Time
}

// Subscription streams snapshots of one view until closed. Only the newest
// undelivered snapshot is kept: a slow reader skips intermediate states.
type Subscription[T any] struct {
	updates chan Snapshot[T]
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates returns the snapshot channel. It is closed after Close.
func (s *Subscription[T]) Updates() <-chan Snapshot[T] { return s.updates }

// Close stops the subscription. No snapshot is delivered once Close
// returns, and calling it again is a no-op.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// Watch runs fetch once for an initial snapshot and again after every event
// on topics. view labels the subscription in metrics and logs.
func Watch[T any](
	ctx context.Context,
	n Notifier,
	view string,
	topics []string,
	fetch func(ctx context.Context) (T, error),
	log zerolog.Logger,
) (*Subscription[T], error) {
	ctx, cancel := context.WithCancel(ctx)

	// Subscribe before the first fetch so no change between the two is lost.
	feed, err := n.Subscribe(ctx, topics...)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &Subscription[T]{
		updates: make(chan Snapshot[T], 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	log = log.With().Str("view", view).Logger()

	metrics.LiveSubscriptions.WithLabelValues(view).Inc()
	go func() {
		defer func() {
			_ = feed.Close()
			// Drop anything undelivered so nothing surfaces after Close.
			select {
			case <-s.updates:
			default:
			}
			close(s.updates)
			metrics.LiveSubscriptions.WithLabelValues(view).Dec()
			close(s.done)
		}()

		s.refresh(ctx, fetch, log)
		events := feed.Events()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Coalesce a burst of events into one re-query.
				for drained := false; !drained; {
					select {
					case _, ok = <-events:
						if !ok {
							drained = true
						}
					default:
						drained = true
					}
				}
				s.refresh(ctx, fetch, log)
			}
		}
	}()

	return s, nil
}

func (s *Subscription[T]) refresh(ctx context.Context, fetch func(context.Context) (T, error), log zerolog.Logger) {
	data, err := fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Live query failed")
		var zero T
		data = zero
	}
	s.publish(Snapshot[T]{Data: data, Err: err, At: time.Now()})
}

// publish replaces any pending snapshot with snap.
func (s *Subscription[T]) publish(snap Snapshot[T]) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
