package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// RecordingSink captures notifications.
type RecordingSink struct {
	mu  sync.Mutex
	got []common.Notification
}

func (s *RecordingSink) Notify(_ context.Context, n common.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
}

func (s *RecordingSink) All() []common.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]common.Notification(nil), s.got...)
}

// Last returns the most recent notification, or nil.
func (s *RecordingSink) Last() *common.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.got) == 0 {
		return nil
	}
	n := s.got[len(s.got)-1]
	return &n
}

// CapturePublisher records published events and returns Err.
type CapturePublisher struct {
	mu     sync.Mutex
	events []*common.Event
	Err    error
}

func (p *CapturePublisher) Publish(_ context.Context, e *common.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.Err
}

func (p *CapturePublisher) Types() []common.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]common.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// AsUser returns a context carrying a user with role r.
func AsUser(r user.Role) context.Context {
	return user.WithUser(context.Background(), &user.User{ID: "u-" + string(r), Name: string(r) + " user", Role: r})
}

// FixedClock returns a clock stuck at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// RoleAuthorizer grants permissions from the built-in role table.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, p user.Permission) (*user.User, error) {
	u, ok := user.FromContext(ctx)
	if !ok {
		return nil, errors.Unauthorized("authentication required")
	}
	if !user.DefaultRolePermissions().Grants(u.Role, p) {
		return nil, errors.Forbidden("permission denied").WithDetail(string(p))
	}
	return u, nil
}

// Invalidations counts Invalidate calls.
type Invalidations struct {
	mu sync.Mutex
	n  int
}

func (i *Invalidations) Invalidate() {
	i.mu.Lock()
	i.n++
	i.mu.Unlock()
}

func (i *Invalidations) Count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.n
}
