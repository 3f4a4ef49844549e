// Package live turns change events on Redis Pub/Sub topics into streams of
// re-queried snapshots. Each snapshot is a full recomputation; there is no
// diffing.
package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Change kinds carried by an Event.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Event announces that a document under Topic changed.
type Event struct {
	Topic  string    `json:"topic"`
	Kind   string    `json:"kind"`
	ID     uuid.UUID `json:"id"`
	Entity string    `json:"entity"`
}

// Feed delivers events for the topics it was opened on.
type Feed interface {
	Events() <-chan Event
	Close() error
}

// Notifier publishes change events and opens feeds on topics.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, topics ...string) (Feed, error)
}

// ─── Redis ─────────────────────────────────────────────────────────────────

// RedisNotifier fans events out through Redis Pub/Sub so every server
// instance sees every write.
type RedisNotifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisNotifier creates a Notifier backed by Redis Pub/Sub.
func NewRedisNotifier(rdb *redis.Client, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb: rdb,
		log: log.With().Str("component", "live_notifier").Logger(),
	}
}

// Publish sends ev on its topic.
func (n *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, ev.Topic, payload).Err()
}

// Subscribe opens a feed and waits for Redis to confirm the subscription,
// so an event published after Subscribe returns is never missed.
func (n *RedisNotifier) Subscribe(ctx context.Context, topics ...string) (Feed, error) {
	pubsub := n.rdb.Subscribe(ctx, topics...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	f := newRedisFeed(pubsub)
	go f.run(pubsub.Channel(), n.log)
	return f, nil
}

// redisFeed forwards Pub/Sub messages until Close. A consumer that stops
// reading never pins the forwarding goroutine.
type redisFeed struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
	err    error
}

func newRedisFeed(pubsub *redis.PubSub) *redisFeed {
	return &redisFeed{
		pubsub: pubsub,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
}

func (f *redisFeed) run(msgs <-chan *redis.Message, log zerolog.Logger) {
	defer close(f.events)
	for {
		select {
		case <-f.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Str("topic", msg.Channel).Msg("Dropping malformed change event")
				continue
			}
			ev.Topic = msg.Channel
			select {
			case f.events <- ev:
			case <-f.done:
				return
			}
		}
	}
}

func (f *redisFeed) Events() <-chan Event { return f.events }

func (f *redisFeed) Close() error {
	f.once.Do(func() {
		close(f.done)
		f.err = f.pubsub.Close()
	})
	return f.err
}

// ─── In-process ────────────────────────────────────────────────────────────

// MemoryNotifier delivers events within a single process. It backs tests
// and single-node tooling.
type MemoryNotifier struct {
	mu    sync.Mutex
	feeds map[*memoryFeed]struct{}
}

// NewMemoryNotifier creates an empty in-process notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{feeds: make(map[*memoryFeed]struct{})}
}

// Publish delivers ev to every open feed watching its topic. A full feed
// drops the event; the next one triggers the same re-query.
func (n *MemoryNotifier) Publish(_ context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for f := range n.feeds {
		if _, ok := f.topics[ev.Topic]; !ok {
			continue
		}
		select {
		case f.events <- ev:
		default:
		}
	}
	return nil
}

// Subscribe opens an in-process feed on topics.
func (n *MemoryNotifier) Subscribe(_ context.Context, topics ...string) (Feed, error) {
	f := &memoryFeed{
		owner:  n,
		topics: make(map[string]struct{}, len(topics)),
		events: make(chan Event, 16),
	}
	for _, t := range topics {
		f.topics[t] = struct{}{}
	}
	n.mu.Lock()
	n.feeds[f] = struct{}{}
	n.mu.Unlock()
	return f, nil
}

type memoryFeed struct {
	owner  *MemoryNotifier
	topics map[string]struct{}
	events chan Event
	once   sync.Once
}

func (f *memoryFeed) Events() <-chan Event { return f.events }

func (f *memoryFeed) Close() error {
	f.once.Do(func() {
		f.owner.mu.Lock()
		delete(f.owner.feeds, f)
		f.owner.mu.Unlock()
		close(f.events)
	})
	return nil
}
