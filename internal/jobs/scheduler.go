package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"trailbook/api/internal/repository"
)

// Scheduler runs background maintenance: expired reset tokens are purged
// nightly and the denormalized tour rating columns are reconciled hourly.
type Scheduler struct {
	cron    *cron.Cron
	users   *repository.UserRepository
	reviews *repository.ReviewRepository
	log     zerolog.Logger
}

func NewScheduler(users *repository.UserRepository, reviews *repository.ReviewRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		users:   users,
		reviews: reviews,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@daily", s.purgeResetTokens); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.reconcileRatings); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs, up to a short grace period.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler jobs still running at shutdown")
	}
}

func (s *Scheduler) purgeResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := s.users.PurgeExpiredResetTokens(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("purge reset tokens failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("expired reset tokens cleared")
	}
}

func (s *Scheduler) reconcileRatings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	updated, err := s.reviews.ReconcileTourRatings(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reconcile tour ratings failed")
		return
	}
	if updated > 0 {
		s.log.Info().Int64("tours", updated).Msg("tour rating stats reconciled")
	}
}
