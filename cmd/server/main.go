package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"facturaia/internal/app"
	"facturaia/internal/config"
	"facturaia/internal/handler"
	"facturaia/internal/logger"
	"facturaia/internal/router"
	"facturaia/internal/service"
	"facturaia/internal/watcher"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return err
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := handler.RegisterValidators(); err != nil {
		return err
	}

	svc := a.Services
	r := router.Setup(svc.Auth, router.Handlers{
		Auth:    handler.NewAuthHandler(svc.Auth),
		User:    handler.NewUserHandler(svc.Users),
		Company: handler.NewCompanyHandler(svc.Companies),
		Contact: handler.NewContactHandler(svc.Contacts),
		Invoice: handler.NewInvoiceHandler(svc.Invoices, svc.Ingestion, cfg.Server.MaxUploadSize),
		AI:      handler.NewAIHandler(svc.Assistant),
		Report:  handler.NewReportHandler(svc.Reports),
		Health:  handler.NewHealthHandler(a.DB),
	}, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	var wg sync.WaitGroup
	if cfg.Watch.Enabled {
		w := watcher.New(cfg.Watch, svc.Ingestion)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				log.Error().Err(err).Msg("watcher stopped")
			}
		}()
	}
	if cfg.Overdue.Enabled {
		worker := service.NewOverdueWorker(a.Repos.Invoices, cfg.Overdue.Interval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Start(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stop()
		wg.Wait()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}
