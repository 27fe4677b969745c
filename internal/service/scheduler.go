package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SyncScheduler is a background worker that periodically checks every active
// tenant for new upstream data
type SyncScheduler struct {
	syncService *SyncService
	logger      zerolog.Logger
	interval    time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	mu          sync.Mutex
	running     bool
}

// NewSyncScheduler creates a new scheduler
func NewSyncScheduler(syncService *SyncService, interval time.Duration, logger zerolog.Logger) *SyncScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SyncScheduler{
		syncService: syncService,
		logger:      logger.With().Str("component", "sync_scheduler").Logger(),
		interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the periodic update checks
func (s *SyncScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.interval).Msg("Starting sync scheduler")
	go s.run(ctx)
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping sync scheduler")
	close(s.stopCh)
	<-s.doneCh
	s.logger.Info().Msg("Sync scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SyncScheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	// Run immediately on startup
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		case <-s.stopCh:
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SyncScheduler) tick(ctx context.Context) {
	start := time.Now()
	s.logger.Debug().Msg("Checking tenants for upstream updates")
	s.syncService.CheckForUpdates(ctx)
	s.logger.Debug().Dur("elapsed", time.Since(start)).Msg("Update check complete")
}
