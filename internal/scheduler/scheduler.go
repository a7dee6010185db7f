// Package scheduler runs fixed cost generation on an interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/service"
)

// Generator creates the transactions that are due at now.
type Generator interface {
	GenerateDue(ctx context.Context, now time.Time) (service.GenerationSummary, error)
}

// Scheduler calls a Generator once at start and then on every tick.
type Scheduler struct {
	generator Generator
	interval  time.Duration
	logger    *logrus.Logger
	now       func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func New(generator Generator, interval time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		generator: generator,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Start launches the loop in its own goroutine.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
	s.logger.WithField("interval", s.interval.String()).Info("Scheduler.Start")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	summary, err := s.generator.GenerateDue(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("Scheduler.tick")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"generated": summary.Generated,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"nextCheck": now.Add(s.interval).Format(time.RFC3339),
	}).Debug("Scheduler.tick")
}

// Stop cancels the loop and waits for an in-flight run to return or for ctx
// to end, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.once.Do(s.cancel)
	select {
	case <-s.done:
		s.logger.Info("Scheduler.Stop")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
