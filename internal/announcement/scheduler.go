package announcement

import (
	"context"
	"time"

	"CampusEvents/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler periodically emails announcements flagged for notification.
type Scheduler struct {
	service  *AnnouncementService
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(service *AnnouncementService, cfg *config.AppConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{service: service, interval: cfg.AnnouncementPollInterval, logger: logger}
}

// Register ties the scheduler to the application lifecycle.
func (s *Scheduler) Register(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.logger.Info("Starting announcement scheduler", zap.Duration("interval", s.interval))

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.service.SendDue(ctx)
	if err != nil {
		s.logger.Error("Announcement run failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Announcement run finished", zap.Int("sent", n))
	}
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.logger.Info("Stopping announcement scheduler")
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
