package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/bedrockconverse"
	"github.com/claude-vim/claude-bridge/internal/proxy"
)

// App orchestrates the lifecycle of the proxy server and related services.
type App struct {
	proxy           *proxy.Proxy
	health          *Health
	listen          string
	shutdownTimeout time.Duration
}

// New creates an App serving cfg with streamer as the upstream transport.
func New(cfg *Config, streamer bedrockconverse.Streamer) (*App, error) {
	health := NewHealth()

	proxyServer, err := proxy.New(streamer, health,
		proxy.WithRequestOptions(cfg.RequestOptions()),
		proxy.WithModels(cfg.Bedrock.Models),
		proxy.WithMaxRequestBytes(cfg.Server.MaxRequestBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}

	return &App{
		proxy:           proxyServer,
		health:          health,
		listen:          cfg.Server.Listen,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Health returns the readiness state served by the health endpoints.
func (a *App) Health() *Health {
	return a.health
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting proxy server")
	proxyErrCh, err := a.proxy.Start(gCtx, a.listen)
	if err != nil {
		return fmt.Errorf("proxy startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.proxy.Shutdown)

	a.health.SetPhase(PhaseServing)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "proxy runtime error", "error", err)
				return fmt.Errorf("proxy: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	a.health.SetPhase(PhaseDraining)
	slog.InfoContext(ctx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.InfoContext(ctx, "application stopped")
	return nil
}
