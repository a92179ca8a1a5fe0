package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// StateLoader builds a fresh State.
type StateLoader interface {
	Load(ctx context.Context) (*State, error)
}

// Recorder observes state loads.
type Recorder interface {
	RecordDashboardLoad(d time.Duration, err error, counts map[string]int)
	RecordHeatmapBuild(level string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordDashboardLoad(time.Duration, error, map[string]int) {}
func (nopRecorder) RecordHeatmapBuild(string, time.Duration)                 {}

// Invalidator is implemented by anything caching the State. Write paths call
// Invalidate after a successful write.
type Invalidator interface {
	Invalidate()
}

// Store keeps the last successfully loaded State. A failed refresh leaves
// the previous State in place so readers keep seeing stale data rather than
// nothing.
type Store struct {
	loader   StateLoader
	maxAge   time.Duration
	sink     notify.Sink
	recorder Recorder
	logger   logging.Logger
	now      func() time.Time

	mu      sync.RWMutex
	current *State
	dirty   bool
	gen     uint64

	refreshMu sync.Mutex
	loads     singleflight.Group
}

// NewStore returns an empty Store. maxAge of zero disables age-based refresh.
func NewStore(loader StateLoader, maxAge time.Duration, sink notify.Sink, recorder Recorder, logger logging.Logger) *Store {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Store{
		loader:   loader,
		maxAge:   maxAge,
		sink:     notify.OrNop(sink),
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Current returns the held State without loading.
func (s *Store) Current() (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Invalidate marks the held State for reload on the next Get.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.gen++
	s.mu.Unlock()
}

func (s *Store) needsRefresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.dirty {
		return true
	}
	return s.maxAge > 0 && s.now().Sub(s.current.LoadedAt()) >= s.maxAge
}

// Get returns a State, refreshing it when missing, invalidated or too old.
// Concurrent callers share one reload. When a refresh fails and an older
// State exists, the older State is returned without error.
func (s *Store) Get(ctx context.Context) (*State, error) {
	if !s.needsRefresh() {
		st, _ := s.Current()
		return st, nil
	}
	_, err, _ := s.loads.Do("state", func() (interface{}, error) {
		return nil, s.refresh(context.WithoutCancel(ctx), false)
	})
	st, ok := s.Current()
	if ok {
		if err != nil {
			s.logger.Warn("serving stale dashboard state", logging.Time("loaded_at", st.LoadedAt()), logging.Err(err))
		}
		return st, nil
	}
	if err == nil {
		err = errors.Internal("dashboard state unavailable")
	}
	return nil, err
}

// Refresh loads a new State. On failure the previous State is kept, the
// user is notified and the error is returned.
func (s *Store) Refresh(ctx context.Context) error {
	return s.refresh(ctx, true)
}

// refresh reloads the State. Unless forced it skips the load when another
// caller refreshed while this one waited for refreshMu.
func (s *Store) refresh(ctx context.Context, force bool) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if !force && !s.needsRefresh() {
		return nil
	}

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	start := s.now()
	st, err := s.loader.Load(ctx)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.recorder.RecordDashboardLoad(elapsed, err, nil)
		s.logger.Error("dashboard load failed", logging.Duration("elapsed", elapsed), logging.Err(err))
		notify.Failure(ctx, s.sink, "", "dashboard", "Failed to load dashboard data", err)
		return err
	}

	s.recorder.RecordDashboardLoad(elapsed, nil, st.Counts())
	s.mu.Lock()
	s.current = st
	// A write that landed during the load keeps the state dirty.
	s.dirty = s.gen != gen
	s.mu.Unlock()

	s.logger.Debug("dashboard state loaded",
		logging.Duration("elapsed", elapsed),
		logging.Any("counts", st.Counts()))
	return nil
}
