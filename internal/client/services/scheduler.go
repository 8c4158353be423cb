package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/logging"
)

var ErrSyncInProgress = errors.New("sync already in progress")

// Scheduler serialises SyncAll calls made through it and runs them on an
// interval.
type Scheduler struct {
	svc     SyncService
	log     logging.Logger
	running atomic.Bool

	// OnResult, when set, receives the outcome of every scheduled sync.
	OnResult func(models.SyncResult, error)
}

func NewScheduler(svc SyncService, log logging.Logger) *Scheduler {
	return &Scheduler{svc: svc, log: log}
}

// TriggerNow runs SyncAll unless one is already in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) (models.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.SyncResult{}, ErrSyncInProgress
	}
	defer s.running.Store(false)
	return s.svc.SyncAll(ctx)
}

// Run syncs once immediately and then every interval until ctx is done or
// a sync fails with an error no retry can fix.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := s.TriggerNow(ctx)
		switch {
		case errors.Is(err, ErrSyncInProgress):
			s.log.Info(ctx, "scheduled sync skipped, another sync is running")
		case err != nil:
			s.log.Error(ctx, "scheduled sync failed", "error", err)
		}
		if s.OnResult != nil && !errors.Is(err, ErrSyncInProgress) {
			s.OnResult(res, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && isPermanent(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
