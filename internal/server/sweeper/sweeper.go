// Package sweeper periodically purges expired sessions.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/robfig/cron/v3"
)

const runTimeout = 30 * time.Second

// Cleaner removes expired sessions and reports how many were removed.
type Cleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// Observer is told about the outcome of every run.
type Observer interface {
	ObserveSweep(removed int64, err error)
}

type Sweeper struct {
	cron     *cron.Cron
	cleaner  Cleaner
	observer Observer
	log      logging.Logger
}

// New schedules cleaner on a cron spec such as "@every 15m" or "*/5 * * * *".
// observer may be nil.
func New(schedule string, cleaner Cleaner, observer Observer, log logging.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(),
		cleaner:  cleaner,
		observer: observer,
		log:      log,
	}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep or ctx, whichever
// finishes first.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Run performs a single sweep. Errors are logged, never propagated, so a
// failing store cannot affect request handling.
func (s *Sweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	n, err := s.cleaner.CleanupExpiredSessions(ctx)
	if s.observer != nil {
		s.observer.ObserveSweep(n, err)
	}
	if err != nil {
		s.log.Warn(ctx, "session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info(ctx, "expired sessions removed", "count", n)
	}
}
