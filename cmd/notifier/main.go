// The notifier worker consumes order lifecycle events from Kafka and
// delivers SMS alerts to the affected users. It is fully out-of-band: the
// API never waits on it, and losing it degrades the system to in-app
// notifications only.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/config"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/logging"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/sms"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

var (
	eventsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_events_consumed_total",
		Help: "Total lifecycle events consumed",
	})
	eventsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_events_invalid_total",
		Help: "Total invalid messages received",
	})
	smsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_sms_sent_total",
		Help: "Total SMS alerts delivered",
	})
	smsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_sms_failed_total",
		Help: "Total SMS alerts that exhausted retries",
	})
)

func init() {
	prometheus.MustRegister(eventsConsumed, eventsInvalid, smsSent, smsFailed)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}
	logger := logging.NewComponentLogger(cfg.LogLevel, "notifier")

	if cfg.SMSAPIKey == "" {
		logger.Error("TERMII_API_KEY not set; notifier has nothing to do")
		os.Exit(1)
	}
	brokers := cfg.KafkaBrokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "agromath-notifier"
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("store open failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sender := sms.NewTermiiClient(cfg.SMSEndpoint, cfg.SMSAPIKey, cfg.SMSSender)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		logger.Info("metrics listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: cfg.KafkaTopic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer r.Close()

	logger.Info("notifier consuming", "topic", cfg.KafkaTopic, "brokers", strings.Join(brokers, ","), "group", group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down notifier")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		eventsConsumed.Inc()

		var ev models.LifecycleEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			eventsInvalid.Inc()
			logger.Warn("invalid event", "error", err)
			continue
		}
		deliver(ctx, logger, store, sender, ev)
	}
}

// deliver texts every user the event names. A user without a phone or with
// delivery failures is skipped; SMS is strictly best effort.
func deliver(ctx context.Context, logger *slog.Logger, store *storage.Store, sender sms.Sender, ev models.LifecycleEvent) {
	users, err := store.UsersByID(ctx, ev.UserIDs)
	if err != nil {
		logger.Warn("user lookup failed", "order_id", ev.OrderID, "error", err)
		return
	}
	for _, u := range users {
		if u.Phone == "" {
			continue
		}
		if err := sendWithRetry(ctx, sender, u.Phone, ev.Message, 3, 200*time.Millisecond); err != nil {
			smsFailed.Inc()
			logger.Warn("sms delivery failed", "order_id", ev.OrderID, "user_id", u.ID, "error", err)
			continue
		}
		smsSent.Inc()
	}
}

// sendWithRetry retries transient gateway failures with doubling backoff.
func sendWithRetry(ctx context.Context, sender sms.Sender, phone, text string, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = sender.Send(ctx, phone, text); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}

func openStore(cfg config.ServerConfig) (*storage.Store, error) {
	if cfg.PGDSN != "" {
		return storage.OpenPostgres(cfg.PGDSN, cfg.StoreTimeout)
	}
	return storage.OpenSQLite(cfg.SQLitePath, cfg.StoreTimeout)
}
