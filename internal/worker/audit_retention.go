package worker

import (
	"context"
	"time"

	"github.com/medchain/inventory-api/internal/repository"
	"github.com/medchain/inventory-api/pkg/logger"
)

// AuditRetentionWorker prunes audit records past the retention window.
// The trail is an operational log, not a ledger; expired entries are
// dropped outright rather than archived.
type AuditRetentionWorker struct {
	repo          repository.AuditRepository
	logger        *logger.Logger
	retentionDays int
	interval      time.Duration
}

func NewAuditRetentionWorker(repo repository.AuditRepository, log *logger.Logger, retentionDays int, interval time.Duration) *AuditRetentionWorker {
	return &AuditRetentionWorker{
		repo:          repo,
		logger:        log,
		retentionDays: retentionDays,
		interval:      interval,
	}
}

func (w *AuditRetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("starting audit retention worker",
		"retention_days", w.retentionDays, "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down audit retention worker")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep deletes everything older than the cutoff. A failed sweep only
// delays pruning until the next tick.
func (w *AuditRetentionWorker) sweep(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "audit retention sweep failed")
		return
	}
	if rows > 0 {
		w.logger.Info("pruned audit records",
			"rows", rows, "cutoff", cutoff.Format(time.RFC3339))
	}
}
