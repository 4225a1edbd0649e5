package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"borrowhub-notify/internal/common/auth"
	"borrowhub-notify/internal/common/config"
	"borrowhub-notify/internal/common/database"
	"borrowhub-notify/internal/common/logger"
	"borrowhub-notify/internal/common/observability"
	"borrowhub-notify/internal/notify/api"
	"borrowhub-notify/internal/notify/cache"
	"borrowhub-notify/internal/notify/poller"
	"borrowhub-notify/internal/notify/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification agent...",
		zap.String("hub", cfg.Hub.BaseURL),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("notification-agent")
	defer obs.Shutdown()

	ctx, cancelSession := context.WithCancel(context.Background())
	defer cancelSession()

	// --- Session token source ---
	var tokens auth.TokenSource
	if cfg.Auth.Token != "" {
		tokens = auth.NewStaticTokenSource(cfg.Auth.Token)
	} else {
		session := auth.NewSessionClient(cfg.Auth.TokenURL, cfg.Auth.Username, cfg.Auth.Password)
		err = retryWithBackoff(func() error {
			_, err := session.Token(ctx)
			return err
		}, 5, 2*time.Second, zapLog, "Hub login")
		if err != nil {
			zapLog.Fatal("login failed after retries", zap.Error(err))
		}
		tokens = session
	}
	zapLog.Info("Session established")

	// --- Hub API client + store ---
	hubClient := api.NewClient(cfg.Hub.BaseURL, cfg.Hub.GetRequestTimeout(), tokens, log)

	storeOpts := []store.Option{store.WithObservability(obs)}

	// --- Snapshot cache (optional) ---
	var redisClient *database.RedisClient
	if cfg.Cache.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Cache.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("snapshot cache unavailable, continuing without it", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			snapCache := cache.New(redisClient, cfg.Auth.Username, cfg.Cache.GetTTL())
			storeOpts = append(storeOpts, store.WithCache(snapCache))
		}
	}

	notifStore := store.New(hubClient, log, storeOpts...)
	if err := notifStore.LoadCached(ctx); err == nil && notifStore.UnreadCount() > 0 {
		zapLog.Info("restored cached snapshot", zap.Int("unreadCount", notifStore.UnreadCount()))
	}

	// --- Unread badge feed ---
	updates := notifStore.Subscribe()
	go func() {
		lastUnread := -1
		for snap := range updates {
			if snap.UnreadCount != lastUnread {
				zapLog.Info("unread count changed",
					zap.Int("unreadCount", snap.UnreadCount),
					zap.Int("notifications", len(snap.Notifications)),
				)
				lastUnread = snap.UnreadCount
			}
		}
	}()

	// --- Poller ---
	notifPoller := poller.New(notifStore, cfg.Polling.GetInterval(), log)
	if err := notifPoller.Start(ctx); err != nil {
		zapLog.Fatal("poller start failed", zap.Error(err))
	}

	// --- Metrics + pprof listener ---
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.Handle("/debug/pprof/", http.DefaultServeMux)
			addr := cfg.Metrics.GetListenAddr()
			zapLog.Info("metrics listener started", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				zapLog.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	// --- Wait for shutdown signal ---
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	zapLog.Info("Shutting down notification agent...")
	notifPoller.Stop()
	cancelSession()
	zapLog.Info("Shutdown complete")
}
