package monitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seopulse/shield/pkg/common"
)

// Sweeper periodically evicts stale monitor state. It is owned by the
// service lifecycle: started once at boot and cancelled at shutdown.
// Cancellation loses nothing since all monitor state is ephemeral.
type Sweeper struct {
	logger   *logrus.Logger
	monitor  *Monitor
	interval time.Duration
	doneCh   chan struct{}
}

func NewSweeper(logger *logrus.Logger, monitor *Monitor, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = common.SweepInterval
	}
	return &Sweeper{
		logger:   logger,
		monitor:  monitor,
		interval: interval,
		doneCh:   make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (s *Sweeper) Run(ctx context.Context) error {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.interval.String()).Info("cleanup sweeper started")
	for {
		select {
		case <-ticker.C:
			s.monitor.Cleanup()
		case <-ctx.Done():
			s.logger.Info("cleanup sweeper stopped")
			return ctx.Err()
		}
	}
}

// Done is closed once Run has returned.
func (s *Sweeper) Done() <-chan struct{} {
	return s.doneCh
}
