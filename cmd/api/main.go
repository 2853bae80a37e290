package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medchain/inventory-api/internal/config"
	"github.com/medchain/inventory-api/internal/docstore"
	auditHandler "github.com/medchain/inventory-api/internal/handler/audit"
	"github.com/medchain/inventory-api/internal/handler/health"
	inventoryHandler "github.com/medchain/inventory-api/internal/handler/inventory"
	"github.com/medchain/inventory-api/internal/handler/prometheus"
	"github.com/medchain/inventory-api/internal/inventory"
	"github.com/medchain/inventory-api/internal/ledger"
	"github.com/medchain/inventory-api/internal/middleware"
	"github.com/medchain/inventory-api/internal/repository/postgres"
	"github.com/medchain/inventory-api/internal/router"
	auditService "github.com/medchain/inventory-api/internal/service/audit"
	"github.com/medchain/inventory-api/pkg/logger"
	redisBroker "github.com/medchain/inventory-api/pkg/messaging/redis"
	"github.com/medchain/inventory-api/pkg/metrics"
	"github.com/medchain/inventory-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("medchain", "inventory")

	ctx := context.Background()

	// Document store client
	ds, err := docstore.NewMongoClient(ctx, cfg.Docstore, appMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to document store")
	}
	defer ds.Close(context.Background())

	// Ledger gateway client; without a signing key the API serves
	// read-side reconciliation but rejects Add.
	ledgerOpts := []ledger.Option{ledger.WithMetrics(appMetrics)}
	if cfg.Ledger.SigningKey != "" {
		key, err := security.LoadSigningKey(cfg.Ledger.SigningKey, cfg.Ledger.KeyPassphrase)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load ledger signing key")
		}
		ledgerOpts = append(ledgerOpts, ledger.WithSigner(ledger.NewSigner(key, "inventory-admin")))
	} else {
		log.Warn().Msg("no ledger signing key configured, medicine registration disabled")
	}
	lc := ledger.NewHTTPClient(cfg.Ledger.GatewayURL, cfg.Ledger.Timeout,
		zerolog.New(os.Stdout).With().Timestamp().Logger(), ledgerOpts...)

	svcOpts := []inventory.ServiceOption{inventory.WithMetrics(appMetrics)}

	// Audit trail is optional; without it admin actions are only logged.
	var auditor *auditService.Service
	if cfg.Audit.Enabled {
		db, err := postgres.NewDB(cfg.Audit)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to audit database")
		}
		defer db.Close()
		auditor = auditService.NewService(postgres.NewAuditRepository(db))
		svcOpts = append(svcOpts, inventory.WithAuditor(auditor))
	}

	// Event publication is optional too.
	if cfg.Redis.Enabled {
		brokerLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
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
		svcOpts = append(svcOpts, inventory.WithEvents(broker))
	}

	inventorySvc := inventory.NewService(ds, lc, appLogger, svcOpts...)

	// Warm the snapshot; a failed initial fetch is not fatal, the
	// dashboard can retry through /inventory/refresh.
	if err := inventorySvc.Fetch(ctx); err != nil {
		appLogger.Error(err, "initial inventory fetch failed")
	}

	metricsH := prometheus.New()
	healthH := health.NewHandler(ds)
	invH := inventoryHandler.NewHandler(inventorySvc)

	apiHandlers := []router.Handler{invH}
	if auditor != nil {
		apiHandlers = append(apiHandlers, auditHandler.NewHandler(auditor))
	}

	r := router.NewRouter(router.Config{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORS:             middleware.DefaultCORSConfig(),
	}, metricsH, healthH, apiHandlers...)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting inventory API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
