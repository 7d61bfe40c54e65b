package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SentiPulse/internal/domain/repository"
	"SentiPulse/internal/handler/api"
	"SentiPulse/internal/usecase"
	pkgcache "SentiPulse/pkg/cache"
	"SentiPulse/pkg/config"
	xhttp "SentiPulse/pkg/http"
	applogger "SentiPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    *api.DashboardHandler
	collector  *usecase.StreamCollector
	archive    repository.PostArchive
	sink       repository.AlertSink
	shared     pkgcache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. collector, archive,
// sink and shared may be nil when the matching subsystem is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler *api.DashboardHandler,
	collector *usecase.StreamCollector,
	archive repository.PostArchive,
	sink repository.AlertSink,
	shared pkgcache.Service,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		collector: collector,
		archive:   archive,
		sink:      sink,
		shared:    shared,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(a.handler, serverOpts...)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("stream collector error", applogger.Error(err))
			}
		}()
		a.log.Info("stream collector started",
			applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.log.Warn("stream collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("archive close error", applogger.Error(err))
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Warn("alert sink close error", applogger.Error(err))
		}
	}
	if a.shared != nil {
		if err := a.shared.Close(); err != nil {
			a.log.Warn("shared cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
