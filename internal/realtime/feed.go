// Package realtime carries change notifications for gateway paths so that
// open views can refresh when a document they show is written or removed.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/store"
)

// Op is the kind of write behind a change.
type Op string

const (
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// Change describes one write to a gateway path.
type Change struct {
	Path string    `json:"path"`
	Op   Op        `json:"op"`
	At   time.Time `json:"at"`
}

// Collection returns the top-level collection the change belongs to.
func (c Change) Collection() string {
	return store.TopLevel(c.Path)
}

// Feed publishes changes and lets callers follow one collection.
type Feed interface {
	Publish(ctx context.Context, c Change) error
	// Subscribe delivers changes under collection until ctx ends or the
	// returned stop function is called.
	Subscribe(ctx context.Context, collection string) (<-chan Change, func(), error)
}

// ─── Redis Pub/Sub ────────────────────────────────────────────────────

// RedisFeed fans changes out over one channel per collection, so every
// server instance sees writes made by the others.
type RedisFeed struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewRedisFeed(rdb *redis.Client, log zerolog.Logger) *RedisFeed {
	return &RedisFeed{rdb: rdb, log: log.With().Str("component", "change_feed").Logger()}
}

func (f *RedisFeed) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, config.CacheKey.ChangeChannel(c.Collection()), payload).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, collection string) (<-chan Change, func(), error) {
	pubsub := f.rdb.Subscribe(ctx, config.CacheKey.ChangeChannel(collection))
	// Wait for the subscription confirmation so no change published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				f.log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed change")
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	stop := func() { once.Do(func() { _ = pubsub.Close() }) }
	return out, stop, nil
}

// ─── In-process ───────────────────────────────────────────────────────

// LocalFeed delivers changes within one process. Slow subscribers drop
// changes instead of blocking writers.
type LocalFeed struct {
	mu   sync.Mutex
	subs map[string]map[chan Change]struct{}
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[string]map[chan Change]struct{})}
}

func (f *LocalFeed) Publish(_ context.Context, c Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[c.Collection()] {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

func (f *LocalFeed) Subscribe(ctx context.Context, collection string) (<-chan Change, func(), error) {
	ch := make(chan Change, 16)
	f.mu.Lock()
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[chan Change]struct{})
	}
	f.subs[collection][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[collection], ch)
			f.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ch, stop, nil
}
