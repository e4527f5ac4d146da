// Package jobs runs the engine's background maintenance on a shared
// scheduler: closing out stale sessions, expiring unreviewed suggestions, and
// refreshing progress rollups.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/lucavoss/adeptly-backend/internal/app"
	"github.com/lucavoss/adeptly-backend/internal/data/repos"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
	"github.com/lucavoss/adeptly-backend/internal/services"
)

// staleBatchSize caps how many sessions one sweep pass finalizes.
const staleBatchSize = 200

type Sweeper struct {
	cfg       app.Config
	sessions  repos.SessionRepo
	sessionSv services.SessionService
	review    services.ReviewService
	progress  services.ProgressService
	scheduler *gocron.Scheduler
	log       *logger.Logger
}

func NewSweeper(
	cfg app.Config,
	sessions repos.SessionRepo,
	sessionSv services.SessionService,
	review services.ReviewService,
	progress services.ProgressService,
	baseLog *logger.Logger,
) *Sweeper {
	return &Sweeper{
		cfg:       cfg,
		sessions:  sessions,
		sessionSv: sessionSv,
		review:    review,
		progress:  progress,
		scheduler: gocron.NewScheduler(time.UTC),
		log:       baseLog.With("service", "Sweeper"),
	}
}

// Start registers the jobs and runs the scheduler in the background.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.scheduler.Every(s.cfg.SweepInterval).Do(func() {
		s.sweepSessions(ctx)
		s.sweepSuggestions(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(s.cfg.ProgressInterval).Do(func() {
		if err := s.progress.RecomputeRecent(ctx); err != nil {
			s.log.Error("progress recompute sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("background jobs started",
		"sweep_interval", s.cfg.SweepInterval,
		"progress_interval", s.cfg.ProgressInterval)
	return nil
}

func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

// sweepSessions finalizes sessions whose cache entry has expired. The durable
// table is the source of staleness; the per-session lock inside
// FinalizeExpired keeps the sweep from racing a live submit.
func (s *Sweeper) sweepSessions(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.MaxSessionTTL)
	stale, err := s.sessions.ListStaleOpen(ctx, nil, cutoff, staleBatchSize)
	if err != nil {
		s.log.Error("stale session scan failed", "error", err)
		return
	}
	closed := 0
	for _, sess := range stale {
		if err := s.sessionSv.FinalizeExpired(ctx, sess.ID); err != nil {
			s.log.Warn("stale session not finalized", "session_id", sess.ID, "error", err)
			continue
		}
		closed++
	}
	if closed > 0 {
		s.log.Info("stale sessions closed", "count", closed)
	}
}

func (s *Sweeper) sweepSuggestions(ctx context.Context) {
	if _, err := s.review.ExpireStale(ctx); err != nil {
		s.log.Error("suggestion expiry sweep failed", "error", err)
	}
}
