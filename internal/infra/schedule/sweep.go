package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"hotelcore/internal/app/blockings"
)

// BlockingSweep activates planned blockings whose window has opened and
// completes active ones whose end date has passed.
type BlockingSweep struct {
	Resolver *blockings.Service
	Logger   *slog.Logger
	cron     *cron.Cron
}

func NewBlockingSweep(resolver *blockings.Service, logger *slog.Logger) *BlockingSweep {
	return &BlockingSweep{Resolver: resolver, Logger: logger}
}

// Start registers the sweep with the given cron spec and begins scheduling.
func (s *BlockingSweep) Start(ctx context.Context, spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *BlockingSweep) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *BlockingSweep) RunOnce(ctx context.Context) {
	now := time.Now().UTC()
	activated, err := s.Resolver.ActivateDue(ctx, now)
	if err != nil && s.Logger != nil {
		s.Logger.Error("blocking activation sweep failed", "error", err)
	}
	completed, err := s.Resolver.CompleteDue(ctx, now)
	if err != nil && s.Logger != nil {
		s.Logger.Error("blocking completion sweep failed", "error", err)
	}
	if s.Logger != nil && (activated > 0 || completed > 0) {
		s.Logger.Info("blocking sweep", "activated", activated, "completed", completed)
	}
}
