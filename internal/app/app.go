package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/heartmarshall/json-auditor/internal/config"
	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/service/audit"
	"github.com/heartmarshall/json-auditor/internal/transport/middleware"
	"github.com/heartmarshall/json-auditor/internal/transport/rest"
)

// Run is the server entry point. It loads configuration, opens the chain
// store, serves the HTTP API and shuts down gracefully when ctx is done.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting json-auditor",
		slog.String("version", BuildVersion()),
		slog.String("driver", cfg.Database.Driver),
		slog.String("order_policy", cfg.Auditor.OrderPolicy),
		slog.Bool("tracing", cfg.Tracing.Enabled),
	)

	shutdownTracing, err := SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("flush traces", slog.String("error", err.Error()))
		}
	}()

	store, closeStore, err := OpenStore(ctx, cfg.Database, logger, false)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	defer closeStore()

	svc, err := audit.NewService(logger, store, audit.Settings{
		OrderPolicy:      domain.OrderPolicy(cfg.Auditor.OrderPolicy),
		MaxDocumentBytes: cfg.Auditor.MaxDocumentBytes,
	})
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	handler := NewRouter(RouterDeps{
		Logger:  logger,
		Audit:   rest.NewAuditHandler(svc, logger, cfg.Auditor.MaxDocumentBytes),
		Health:  rest.NewHealthHandler(store, cfg.Database.Driver, Version),
		Limiter: limiter,
		Config:  cfg,
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// RouterDeps holds what NewRouter wires together.
type RouterDeps struct {
	Logger  *slog.Logger
	Audit   *rest.AuditHandler
	Health  *rest.HealthHandler
	Limiter *middleware.RateLimiter
	Config  *config.Config
}

// NewRouter builds the HTTP handler with the standard middleware stack.
func NewRouter(d RouterDeps) http.Handler {
	var tracing middleware.Middleware
	if d.Config.Tracing.Enabled {
		tracing = otelhttp.NewMiddleware(d.Config.Tracing.ServiceName)
	}

	var writeLimit middleware.Middleware
	if d.Limiter != nil {
		writeLimit = d.Limiter.Limit(d.Config.Server.WriteRateLimit, middleware.ClientIP)
	}

	r := chi.NewRouter()
	r.Use(middleware.Chain(
		tracing,
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
	))
	rest.Routes(r, d.Audit, d.Health, writeLimit)
	return r
}

func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
