package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/auth"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/cart"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/config"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/events"
	httpapi "github.com/tonyorjime-cloud/agromath-mvp/internal/http"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/lifecycle"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/logging"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/notify"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/quotes"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/sms"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/tracking"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := logging.NewComponentLogger(cfg.LogLevel, "api")

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("store open failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if cfg.RunMigration {
		if err := store.Migrate(); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("schema applied")
	}

	// session + cart live in redis when configured, in process memory
	// otherwise
	var sessions auth.Sessions
	var bag cart.Bag
	if cfg.RedisAddr != "" {
		sessions = auth.NewRedisSessions(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		bag = cart.NewRedisBag(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
	} else {
		sessions = auth.NewMemorySessions(cfg.SessionTTL)
		bag = cart.NewMemoryBag()
	}

	var sender sms.Sender
	if cfg.SMSAPIKey != "" {
		sender = sms.NewTermiiClient(cfg.SMSEndpoint, cfg.SMSAPIKey, cfg.SMSSender)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer producer.Close()
	}

	notifier := notify.NewService(store, logger, cfg.NotifyPageSize)
	engine := lifecycle.NewEngine(store, notifier, producer, logger)

	srv := httpapi.NewServer(cfg, logger, httpapi.Deps{
		Store:     store,
		Auth:      auth.NewService(store, sessions, sender, cfg.OTPTTL, logger),
		Carts:     cart.NewService(bag, store),
		Lifecycle: engine,
		Quotes:    quotes.NewService(store, notifier, logger),
		Notifier:  notifier,
		Tracker:   tracking.NewService(store, logger),
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("agromath api listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
}

func openStore(cfg config.ServerConfig) (*storage.Store, error) {
	if cfg.PGDSN != "" {
		return storage.OpenPostgres(cfg.PGDSN, cfg.StoreTimeout)
	}
	return storage.OpenSQLite(cfg.SQLitePath, cfg.StoreTimeout)
}
