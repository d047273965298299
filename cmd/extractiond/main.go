// Command extractiond runs the iterative invoice extraction service: HTTP in,
// vision-model cascade out, Postgres for persisted invoices, a local TTL
// store for in-flight sessions.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumis-app/invoice-ocr/internal/common"
	"github.com/lumis-app/invoice-ocr/internal/export"
	"github.com/lumis-app/invoice-ocr/internal/llm"
	"github.com/lumis-app/invoice-ocr/internal/llm/openrouter"
	"github.com/lumis-app/invoice-ocr/internal/repository"
	"github.com/lumis-app/invoice-ocr/internal/server"
	"github.com/lumis-app/invoice-ocr/internal/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := repository.HealthCheck(ctx, pool, logger); err != nil {
		return common.WrapError(err, "database health check")
	}

	store, err := session.NewSQLiteStore(cfg.Sessions.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	invoices := repository.NewInvoiceRepository(pool, logger)
	callLogs := repository.NewCallLogRepository(pool, logger)

	callers := make([]llm.ModelCaller, 0, len(cfg.LLM.Models))
	for _, model := range cfg.LLM.Models {
		client := openrouter.NewClient(openrouter.Config{
			APIKey:           cfg.LLM.APIKey,
			BaseURL:          cfg.LLM.BaseURL,
			Model:            model,
			Temperature:      cfg.LLM.Temperature,
			Timeout:          cfg.LLM.Timeout,
			CostPerMTokenUSD: cfg.LLM.CostPerMTokenUSD,
		}, logger)
		callers = append(callers, llm.NewAuditedCaller(client, callLogs, logger))
	}
	cascade := llm.NewCascade(callers, logger)

	sessions := session.NewService(store, cascade, invoices, cfg.Sessions.TTL, logger)
	exporter := export.NewService(invoices, logger)
	srv := server.New(sessions, exporter, server.HeaderAuthenticator{}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http.listening", "addr", cfg.Server.HTTPAddr, "models", cfg.LLM.Models)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
