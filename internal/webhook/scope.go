package webhook

import (
	"context"
	"sync"
)

type scopeKey struct{}

type scope struct {
	mu    sync.Mutex
	event *Event
}

// WithScope returns a context carrying an empty per-request event slot.
func WithScope(ctx context.Context) context.Context {
	if scopeFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &scope{})
}

// CachedEvent returns the event stored in the request scope, if any.
func CachedEvent(ctx context.Context) (*Event, bool) {
	s := scopeFrom(ctx)
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event, s.event != nil
}

func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}
