package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/daily-briefing/internal/domain/briefing"
	"github.com/yanqian/daily-briefing/internal/infra/config"
)

// App encapsulates the admin server and the slot scheduler.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	briefing  briefing.Service
	scheduler *Scheduler
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, briefingSvc briefing.Service, scheduler *Scheduler) *App {
	return &App{
		cfg:       cfg,
		logger:    logger.With("component", "bootstrap"),
		server:    server,
		briefing:  briefingSvc,
		scheduler: scheduler,
	}
}

// Serve starts the HTTP server and the slot scheduler and blocks until shutdown.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		a.scheduler.Run(ctx)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := a.server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	<-schedDone
	return serveErr
}

// RunOnce executes a single briefing for the current slot.
func (a *App) RunOnce(ctx context.Context) (briefing.Report, error) {
	return a.briefing.Run(ctx)
}

// SendPreview re-sends the weekly wardrobe preview.
func (a *App) SendPreview(ctx context.Context) (briefing.Report, error) {
	return a.briefing.SendPreview(ctx)
}

// Clean removes stale dated artifacts.
func (a *App) Clean(ctx context.Context) (int, error) {
	return a.briefing.Clean(ctx)
}
