package main

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
)

// StaleSweeper flags long-untouched blockers.
type StaleSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// Locker keeps replicas from sweeping concurrently.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// SweepRecorder observes sweep runs.
type SweepRecorder interface {
	RecordSweep(d time.Duration)
}

// Sweeper runs the stale blocker sweep once per interval, the first run
// immediately. A nil lock means this is the only replica.
type Sweeper struct {
	svc      StaleSweeper
	lock     Locker
	interval time.Duration
	recorder SweepRecorder
	logger   logging.Logger
	now      func() time.Time
}

func NewSweeper(svc StaleSweeper, lock Locker, interval time.Duration, recorder SweepRecorder, logger logging.Logger) *Sweeper {
	return &Sweeper{svc: svc, lock: lock, interval: interval, recorder: recorder, logger: logger, now: time.Now}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.logger.Info("stale blocker sweep scheduled", logging.Duration("interval", s.interval))
	for {
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// SweepOnce runs one sweep if the lock can be taken and reports how many
// blockers were flagged. Errors are logged; the next tick tries again.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx)
		if err != nil {
			s.logger.Warn("sweep lock unavailable", logging.Err(err))
			return 0
		}
		if !ok {
			s.logger.Debug("sweep running on another replica")
			return 0
		}
		defer func() {
			if err := s.lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("sweep lock release failed", logging.Err(err))
			}
		}()
	}

	start := s.now()
	n, err := s.svc.SweepStale(ctx)
	s.recorder.RecordSweep(s.now().Sub(start))
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("stale blocker sweep failed", logging.Err(err))
		}
		return 0
	}
	return n
}
