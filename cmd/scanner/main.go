package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"hradmin/internal/config"
	"hradmin/internal/httpserver"
	"hradmin/internal/logging"
	"hradmin/internal/observability"
	"hradmin/internal/providers/agent"
	"hradmin/internal/scanner"
	"hradmin/internal/store/pg"
)

func main() {
	cfg := config.LoadScanner()
	logging.Init("scanner", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.NewPool(ctx, cfg.DBDSN, pg.PoolOptions{})
	if err != nil {
		slog.Error("scanner db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	store := pg.New(db)

	observability.Register(prometheus.DefaultRegisterer)

	interval, err := time.ParseDuration(cfg.ScanInterval)
	if err != nil {
		slog.Error("invalid SCAN_INTERVAL", "err", err, "value", cfg.ScanInterval)
		os.Exit(1)
	}

	agentClient := &agent.Client{
		BaseURL:   cfg.AgentBaseURL,
		AuthToken: cfg.AgentAuthToken,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "campaign-agent",
		MaxRequests: 3,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 10 },
	})

	sc := &scanner.Scanner{
		Agent:    agentClient,
		Store:    store,
		Interval: interval,
		OrgID:    cfg.OrgID,
		Limiter:  rate.NewLimiter(rate.Limit(cfg.AgentRPS), cfg.AgentBurst),
		Breaker:  cb,
	}

	s := httpserver.New()
	s.Mux.HandleFunc("/healthz", httpserver.Healthz())
	s.Mux.HandleFunc("/readyz", httpserver.Readyz(2*time.Second, func(ctx context.Context) error {
		return db.Ping(ctx)
	}))
	healthSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpserver.Logging(s.Mux),
	}
	go func() {
		slog.Info("scanner health listening", "port", cfg.Port)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("scanner health server failed", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("scanner shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = healthSrv.Shutdown(shutdownCtx)
	}()

	sc.Run(ctx)
}
