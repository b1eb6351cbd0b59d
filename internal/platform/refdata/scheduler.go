package refdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Scheduler keeps the cache fresh on a fixed interval.
type Scheduler struct {
	cache     *Cache
	interval  time.Duration
	scheduler *gocron.Scheduler
	log       zerolog.Logger
}

func NewScheduler(cache *Cache, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cache:     cache,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.UTC),
		log:       log.With().Str("component", "refdata-scheduler").Logger(),
	}
}

// Start performs the initial load, then schedules periodic reloads.
// The initial load is fatal so the service never serves without
// reference data; later failures only log and keep the old snapshot.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.cache.Reload(ctx); err != nil {
		return fmt.Errorf("initial reference data load: %w", err)
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		reloadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.cache.Reload(reloadCtx); err != nil {
			s.log.Error().Err(err).Msg("reference data reload failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reference data reload: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.Info().Dur("interval", s.interval).Msg("reference data scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
