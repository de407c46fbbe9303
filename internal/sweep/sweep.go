// Package sweep implements the retention sweep: the periodic job that
// permanently removes accounts soft-deleted longer ago than the grace window,
// together with their soft-deleted transactions. Purging is strictly
// account-scoped; a transaction the user deleted individually is never
// removed except through its own account's purge.
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkaragoz/finbook/internal/repository"
)

// Report summarizes one sweep run. Per-account failures are counted, not
// fatal: the sweep keeps going and the failed account expires again next run.
type Report struct {
	AccountsPurged     int64
	TransactionsPurged int64
	Failures           int
}

// Sweeper purges expired soft-deleted accounts.
type Sweeper struct {
	repo      repository.Repository
	retention time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// New creates a Sweeper with the given retention window.
func New(repo repository.Repository, retention time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		repo:      repo,
		retention: retention,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one sweep pass. It is idempotent: rows purged by an earlier
// pass no longer match the expiry query, so an immediate re-run purges
// nothing and reports no failures.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	cutoff := s.now().Add(-s.retention)

	expired, err := s.repo.ListExpiredAccounts(ctx, cutoff)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, account := range expired {
		purged, err := s.repo.PurgeAccount(ctx, account.UserID, account.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Raced with another purge; already gone.
				continue
			}
			report.Failures++
			s.log.Error().Err(err).
				Str("account", account.ID).
				Msg("retention sweep: purge failed")
			continue
		}
		report.AccountsPurged++
		report.TransactionsPurged += purged
	}

	s.log.Info().
		Int64("accounts", report.AccountsPurged).
		Int64("transactions", report.TransactionsPurged).
		Int("failures", report.Failures).
		Time("cutoff", cutoff).
		Msg("retention sweep finished")

	return report, nil
}

// Start runs the sweep once immediately and then on every interval tick until
// the context is cancelled. Intended to be launched as a goroutine from main.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx); err != nil {
			s.log.Error().Err(err).Msg("retention sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
