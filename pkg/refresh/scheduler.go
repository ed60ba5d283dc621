package refresh

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler requests a refresh on a fixed interval
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	log     zerolog.Logger
}

// NewScheduler registers a periodic refresh of service every interval
func NewScheduler(service *Service, interval time.Duration, log zerolog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	s := &Scheduler{
		cron:    cron.New(),
		service: service,
		log:     log.With().Str("component", "scheduler").Logger(),
	}

	schedule := "@every " + interval.String()
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	s.log.Info().Str("schedule", schedule).Msg("Refresh scheduled")
	return s, nil
}

func (s *Scheduler) tick() {
	if !s.service.RequestRefresh() {
		s.log.Debug().Msg("Scheduled refresh skipped")
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for a running tick to return
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
