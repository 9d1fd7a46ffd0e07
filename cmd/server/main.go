package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/houseshare/internal/auth"
	"github.com/mmynk/houseshare/internal/billing"
	"github.com/mmynk/houseshare/internal/config"
	"github.com/mmynk/houseshare/internal/lock"
	"github.com/mmynk/houseshare/internal/membership"
	"github.com/mmynk/houseshare/internal/metrics"
	"github.com/mmynk/houseshare/internal/middleware"
	"github.com/mmynk/houseshare/internal/service"
	"github.com/mmynk/houseshare/internal/storage/sqlstore"
	"github.com/mmynk/houseshare/internal/wallet"
	"github.com/mmynk/houseshare/pkg/api/apiconnect"
	"github.com/mmynk/houseshare/pkg/logging"
)

const (
	limiterCleanupSpec = "@every 5m"
	limiterMaxIdle     = 10 * time.Minute
	shutdownTimeout    = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	store, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	locks, closeLocks := newLocker(cfg)
	defer closeLocks()

	gateway := wallet.NewPaystack(wallet.PaystackConfig{
		BaseURL:   cfg.PaystackBaseURL,
		SecretKey: cfg.PaystackSecretKey,
		Timeout:   cfg.GatewayTimeout,
	})

	members := membership.NewService(store, locks)
	ledger := wallet.NewLedger(store, locks, gateway)
	engine := billing.NewEngine(store, locks)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(limiterCleanupSpec, func() {
		if n := limiter.Cleanup(limiterMaxIdle); n > 0 {
			slog.Debug("Evicted idle rate limiters", "count", n)
		}
	}); err != nil {
		slog.Error("Failed to schedule limiter cleanup", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Rate limiting keys on the authenticated user, so it runs after RequireAuth.
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(),
		middleware.RequireAuth(jwtManager, apiconnect.PublicProcedures...),
		middleware.LoggingInterceptor(),
		limiter.Interceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager), interceptors))
	mux.Handle(apiconnect.NewHouseServiceHandler(service.NewHouseService(members), interceptors))
	mux.Handle(apiconnect.NewBillServiceHandler(service.NewBillService(engine), interceptors))
	mux.Handle(apiconnect.NewWalletServiceHandler(service.NewWalletService(ledger), interceptors))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(requestLogger(corsMiddleware(mux)), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// newLocker returns a Redis-backed locker when REDIS_ADDR is set so several
// instances can share one database, and an in-process locker otherwise.
func newLocker(cfg *config.Config) (lock.Locker, func()) {
	if cfg.RedisAddr == "" {
		slog.Info("Using in-process locks")
		return lock.NewLocal(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	slog.Info("Using redis locks", "address", cfg.RedisAddr, "ttl", cfg.LockTTL)
	return lock.NewRedis(client, cfg.LockTTL), func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
}

// requestLogger logs every HTTP request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, "+middleware.ReasonHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
