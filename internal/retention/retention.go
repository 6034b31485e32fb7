// Package retention prunes aged heartbeat samples in the background.
// Connectivity classification only ever reads the newest sample per
// device, so dropping samples far beyond the disconnect threshold never
// changes a classification result.
package retention

import (
	"context"
	"log"
	"time"

	"mailbox-status-backend/config"
	"mailbox-status-backend/internal/store"
)

// Service deletes heartbeat samples older than the configured max age.
type Service struct {
	cfg   *config.RetentionConfig
	store store.Store
}

// NewService creates the retention pruner.
func NewService(cfg *config.RetentionConfig, s store.Store) *Service {
	return &Service{cfg: cfg, store: s}
}

// Run starts the pruning loop and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Heartbeat retention is disabled. Not starting.")
		return
	}
	log.Println("Starting heartbeat retention service...")

	s.PruneOnce(ctx)

	timer := time.NewTimer(s.cfg.SweepInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Retention service shutting down.")
			return
		case <-timer.C:
			s.PruneOnce(ctx)
			timer.Reset(s.cfg.SweepInterval)
		}
	}
}

// PruneOnce performs a single pruning sweep.
func (s *Service) PruneOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.MaxAge)
	pruned, err := s.store.PruneHeartbeats(ctx, cutoff)
	if err != nil {
		log.Printf("Error pruning heartbeats: %v", err)
		return
	}
	if pruned > 0 {
		log.Printf("Pruned %d heartbeat samples older than %s", pruned, cutoff.Format(time.RFC3339))
	}
}
