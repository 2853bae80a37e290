package worker

import (
	"context"
	"time"

	"github.com/medchain/inventory-api/internal/email"
	"github.com/medchain/inventory-api/internal/inventory"
	"github.com/medchain/inventory-api/internal/model"
	"github.com/medchain/inventory-api/pkg/logger"
	"github.com/medchain/inventory-api/pkg/messaging"
)

// ExpiryScanWorker periodically re-fetches the inventory and alerts the
// admin about batches that are close to expiry or depleted. Alerts are
// best-effort; a failed e-mail only delays notification until the next
// scan.
type ExpiryScanWorker struct {
	inventory    *inventory.Service
	email        email.Service
	broker       messaging.Broker
	logger       *logger.Logger
	alertTo      string
	scanInterval time.Duration
	expiryWindow time.Duration
}

type ExpiryScanConfig struct {
	AlertTo      string
	ScanInterval time.Duration
	ExpiryWindow time.Duration
}

func NewExpiryScanWorker(inv *inventory.Service, mail email.Service, broker messaging.Broker, log *logger.Logger, cfg ExpiryScanConfig) *ExpiryScanWorker {
	return &ExpiryScanWorker{
		inventory:    inv,
		email:        mail,
		broker:       broker,
		logger:       log,
		alertTo:      cfg.AlertTo,
		scanInterval: cfg.ScanInterval,
		expiryWindow: cfg.ExpiryWindow,
	}
}

func (w *ExpiryScanWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	w.logger.Info("starting expiry scan worker", "interval", w.scanInterval.String())

	// First scan runs immediately so a fresh deployment alerts without
	// waiting a full interval.
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down expiry scan worker")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *ExpiryScanWorker) scan(ctx context.Context) {
	if err := w.inventory.Fetch(ctx); err != nil {
		w.logger.Error(err, "expiry scan fetch failed")
		return
	}

	snap := w.inventory.Snapshot()
	cutoff := time.Now().Add(w.expiryWindow).Unix()

	var expiring, depleted []*model.Medicine
	for _, m := range snap.Medicines {
		if m.ExpDate > 0 && m.ExpDate <= cutoff {
			expiring = append(expiring, m)
		}
		if m.StockStatus != model.StockStatusIn {
			depleted = append(depleted, m)
		}
	}

	if w.broker != nil && len(depleted) > 0 {
		if err := w.broker.Publish(ctx, messaging.ChannelLowStock, depleted); err != nil {
			w.logger.Error(err, "failed to publish low stock event")
		}
	}

	if w.email == nil || w.alertTo == "" {
		return
	}
	if len(expiring) > 0 {
		if err := w.email.SendExpiryAlert(ctx, w.alertTo, expiring); err != nil {
			w.logger.Error(err, "failed to send expiry alert")
		}
	}
	if len(depleted) > 0 {
		if err := w.email.SendStockAlert(ctx, w.alertTo, depleted); err != nil {
			w.logger.Error(err, "failed to send stock alert")
		}
	}
}
