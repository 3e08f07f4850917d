package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dukerupert/neurocalm/internal/config"
	"github.com/dukerupert/neurocalm/internal/database"
	"github.com/dukerupert/neurocalm/internal/dedup"
	"github.com/dukerupert/neurocalm/internal/email"
	"github.com/dukerupert/neurocalm/internal/logging"
	"github.com/dukerupert/neurocalm/internal/metrics"
	"github.com/dukerupert/neurocalm/internal/redis"
	"github.com/dukerupert/neurocalm/internal/server"
	"github.com/dukerupert/neurocalm/internal/session"
	"github.com/dukerupert/neurocalm/internal/store"
)

// expirer is implemented by the session stores that need periodic sweeping.
type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.JSONLogs())

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database ready", "dialect", db.Dialect())

	var rdb *goredis.Client
	if cfg.Session.Backend == config.SessionRedis {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			logger.Error("failed to connect to redis", "error", err, "addr", cfg.Redis.Addr)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	var (
		sessionStore session.Store
		sweeper      expirer
	)
	switch cfg.Session.Backend {
	case config.SessionRedis:
		sessionStore = session.NewRedisStore(rdb)
	case config.SessionMemory:
		ms := session.NewMemoryStore()
		sessionStore, sweeper = ms, ms
	default:
		ss := store.NewSessionStore(db)
		sessionStore, sweeper = ss, ss
	}
	sessions := session.NewManager(sessionStore, session.Options{
		Secret: cfg.SessionSecret(),
		TTL:    cfg.Session.TTL,
		Secure: cfg.Production(),
	})
	if cfg.Session.Secret == "" {
		logger.Warn("SESSION_SECRET not set, using development secret")
	}

	var (
		dc       dedup.Checker
		memDedup *dedup.MemoryChecker
	)
	if rdb != nil {
		dc = dedup.NewRedisChecker(rdb)
	} else {
		memDedup = dedup.NewMemoryChecker()
		dc = memDedup
	}

	mailer := newMailer(cfg, logger)

	srv, err := server.New(db, sessions, dc, email.NewService(mailer), server.Config{
		TrustProxy:  cfg.Production(),
		OTPTTL:      cfg.OTPTTL,
		DedupWindow: cfg.DedupWindow,
		RateLimit:   cfg.RateLimit,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           server.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if sweeper != nil {
					if n, err := sweeper.DeleteExpired(cleanupCtx); err != nil {
						logger.Error("cleanup expired sessions", "error", err)
					} else if n > 0 {
						metrics.ExpiredSessionsDeletedTotal.Add(float64(n))
						logger.Info("cleaned up expired sessions", "count", n)
					}
				}
				srv.RateLimiter().Cleanup()
				if memDedup != nil {
					memDedup.Cleanup()
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("neurocalm starting", "addr", cfg.Addr(), "env", cfg.Env, "sessions", cfg.Session.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		logger.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cleanupCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// newMailer prefers Postmark, then an SMTP relay. Without either, development
// logs codes and production refuses to start.
func newMailer(cfg *config.Config, logger *slog.Logger) email.Mailer {
	from := cfg.Mail.From
	if from == "" {
		from = cfg.Mail.User
	}

	pm := email.NewPostmarkClient(cfg.Mail.PostmarkToken, from)
	if pm.Configured() {
		logger.Info("mail via postmark", "from", from)
		return pm
	}

	smtpClient := email.NewSMTPClient(email.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     from,
	})
	if smtpClient.Configured() {
		logger.Info("mail via smtp", "host", cfg.Mail.SMTPHost, "port", cfg.Mail.SMTPPort)
		return smtpClient
	}

	if cfg.Production() {
		logger.Error("no mail relay configured, set POSTMARK_TOKEN or EMAIL_USER/EMAIL_PASS")
		os.Exit(1)
	}
	return email.LogMailer{Logger: logger.With("component", "email")}
}
