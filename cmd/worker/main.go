package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medchain/inventory-api/internal/config"
	"github.com/medchain/inventory-api/internal/docstore"
	"github.com/medchain/inventory-api/internal/email"
	"github.com/medchain/inventory-api/internal/inventory"
	"github.com/medchain/inventory-api/internal/ledger"
	"github.com/medchain/inventory-api/internal/repository/postgres"
	"github.com/medchain/inventory-api/internal/worker"
	"github.com/medchain/inventory-api/pkg/logger"
	"github.com/medchain/inventory-api/pkg/messaging"
	redisBroker "github.com/medchain/inventory-api/pkg/messaging/redis"
	"github.com/medchain/inventory-api/pkg/metrics"
)

// The worker shares the reconciliation core with the API but runs its
// own fetch loop: it never mutates records, it only alerts on them.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("medchain", "inventory_worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ds, err := docstore.NewMongoClient(ctx, cfg.Docstore, appMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to document store")
	}
	defer ds.Close(context.Background())

	// Read-only ledger access: no signer needed.
	lc := ledger.NewHTTPClient(cfg.Ledger.GatewayURL, cfg.Ledger.Timeout,
		zerolog.New(os.Stdout).With().Timestamp().Logger(), ledger.WithMetrics(appMetrics))

	inventorySvc := inventory.NewService(ds, lc, appLogger, inventory.WithMetrics(appMetrics))

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		brokerLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &brokerLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	var mail email.Service
	if cfg.SMTP.Enabled {
		mail = email.NewSMTPService(cfg.SMTP)
	}

	// The retention sweep shares the process with the expiry scan; both
	// are periodic and neither blocks the other.
	if cfg.Audit.Enabled {
		db, err := postgres.NewDB(cfg.Audit)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to audit database")
		}
		defer db.Close()

		retention := worker.NewAuditRetentionWorker(postgres.NewAuditRepository(db),
			appLogger, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval)
		go retention.Start(ctx)
	}

	scanner := worker.NewExpiryScanWorker(inventorySvc, mail, broker, appLogger, worker.ExpiryScanConfig{
		AlertTo:      cfg.SMTP.AlertTo,
		ScanInterval: cfg.Worker.ScanInterval,
		ExpiryWindow: cfg.Worker.ExpiryWindow,
	})

	scanner.Start(ctx)
}
