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

	"hradmin/internal/config"
	"hradmin/internal/httpserver"
	"hradmin/internal/logging"
	"hradmin/internal/observability"
	"hradmin/internal/providers/agent"
	"hradmin/internal/providers/compliance"
	"hradmin/internal/service"
	"hradmin/internal/store/pg"
)

func main() {
	cfg := config.LoadAPI()
	logging.Init("api", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.NewPool(ctx, cfg.DBDSN, pg.PoolOptions{})
	if err != nil {
		slog.Error("api db connect failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	store := pg.New(db)

	agentClient := &agent.Client{
		BaseURL:   cfg.AgentBaseURL,
		AuthToken: cfg.AgentAuthToken,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
	checker := &compliance.Client{
		BaseURL:   cfg.ComplianceBaseURL,
		AuthToken: cfg.AgentAuthToken,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
		UseAI:     cfg.ComplianceUseAI,
	}

	compose := &service.ComposeService{
		Drafts:                  service.NewDraftStore(),
		Checker:                 checker,
		Agent:                   agentClient,
		Store:                   store,
		MaxCheckAttemptsPerFile: cfg.ComplianceMaxAttemptsPerFile,
	}
	contacts := &service.ContactService{Store: store}
	categories := &service.CategoryService{Store: store}
	roles := &service.RoleService{Store: store}
	licenses := &service.LicenseService{Store: store}
	documents := &service.DocumentService{Store: store}

	s := httpserver.New()
	(&httpserver.CampaignAPI{Compose: compose, MaxAttachmentBytes: cfg.MaxAttachmentBytes}).Register(s.Mux)
	(&httpserver.ContactAPI{Contacts: contacts, Categories: categories}).Register(s.Mux)
	(&httpserver.AdminAPI{Roles: roles}).Register(s.Mux)
	(&httpserver.RecordsAPI{Licenses: licenses, Documents: documents, MaxDocumentBytes: cfg.MaxDocumentBytes}).Register(s.Mux)

	s.Mux.HandleFunc("/healthz", httpserver.Healthz())
	s.Mux.HandleFunc("/readyz", httpserver.Readyz(2*time.Second, func(ctx context.Context) error {
		return db.Ping(ctx)
	}))

	handler := httpserver.Logging(
		httpserver.BearerAuth(cfg.APIAuthToken)(
			httpserver.Metrics(observability.APIRequests)(s.Mux)))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("api shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("api listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("api server failed", "err", err)
		os.Exit(1)
	}

	db.Close()
}
