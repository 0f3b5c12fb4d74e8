package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"reepaygw/internal/webhook"
)

// EventDeduper tracks processed webhook event ids.
type EventDeduper interface {
	// Seen marks id as processed and reports whether it already was.
	Seen(ctx context.Context, id string) (bool, error)
	// Forget removes id so a redelivery is processed again.
	Forget(ctx context.Context, id string) error
}

type redisEventDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisEventDeduper) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+":"+id, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

func (d *redisEventDeduper) Forget(ctx context.Context, id string) error {
	return d.client.Del(ctx, d.prefix+":"+id).Err()
}

type memoryEventDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
	now    func() time.Time
}

// NewMemoryEventDeduper returns a process-local deduper.
func NewMemoryEventDeduper(ttl time.Duration) EventDeduper {
	return newMemoryEventDeduper(ttl, time.Now)
}

func newMemoryEventDeduper(ttl time.Duration, now func() time.Time) *memoryEventDeduper {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &memoryEventDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now().Add(ttl),
		now:    now,
	}
}

func (d *memoryEventDeduper) Seen(_ context.Context, id string) (bool, error) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[id]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[id] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for key, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, key)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

func (d *memoryEventDeduper) Forget(_ context.Context, id string) error {
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
	return nil
}

const defaultDedupTTL = 24 * time.Hour

// NewEventDeduper builds a Redis deduper and falls back to in-memory on failure.
func NewEventDeduper(addr, pass string, db int, ttl time.Duration) (EventDeduper, error) {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	if addr == "" {
		return NewMemoryEventDeduper(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return NewMemoryEventDeduper(ttl), err
	}

	return &redisEventDeduper{
		client: client,
		prefix: "reepay:event",
		ttl:    ttl,
	}, nil
}

// WebhookScope gives each request its own webhook event cache so parsing
// the body more than once within the request verifies it only once.
func WebhookScope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(webhook.WithScope(req.Context())))
			return next(c)
		}
	}
}
