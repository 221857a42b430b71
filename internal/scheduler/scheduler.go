package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/config"
	"github.com/katwe/bakeledger/internal/resolver"
	"github.com/katwe/bakeledger/internal/session"
)

// Scheduler manages the autosave draft timer and the nightly re-sync of
// records whose remote write failed. Both tasks are owned here so session
// teardown and process shutdown stop them deterministically.
type Scheduler struct {
	cron     *cron.Cron
	sessions *session.Manager
	resolver *resolver.Resolver
	cfg      config.AutosaveConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.AutosaveConfig, sessions *session.Manager, res *resolver.Resolver, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		sessions: sessions,
		resolver: res,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.Duration("autosave_interval", s.cfg.Interval),
		zap.String("resync_schedule", s.cfg.ResyncSchedule))

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.Interval), s.autosaveDrafts); err != nil {
		s.logger.Error("failed to schedule draft autosave", zap.Error(err))
	}
	if _, err := s.cron.AddFunc(s.cfg.ResyncSchedule, s.resyncPending); err != nil {
		s.logger.Error("failed to schedule pending re-sync", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) autosaveDrafts() {
	s.sessions.AutosaveTick()
}

func (s *Scheduler) resyncPending() {
	s.logger.Info("re-syncing pending records")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s.resolver.ResyncPending(ctx)
}
