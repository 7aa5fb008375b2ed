package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/novaspire/internal/adapters/http/api"
	"github.com/okian/novaspire/internal/adapters/http/site"
	"github.com/okian/novaspire/internal/adapters/http/swagger"
	app "github.com/okian/novaspire/internal/app"
	"github.com/okian/novaspire/internal/config"
	"github.com/okian/novaspire/pkg/logger"
	"github.com/okian/novaspire/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	siteReadTimeout       = 60 * time.Second
	opsReadTimeout        = 10 * time.Second
	opsWriteTimeout       = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	siteHandler, err := newSiteHandler(ctx, cfg, svc, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build site", logger.Error(err))
		return
	}

	// Backend calls have no deadline by default, so the site server does not
	// cap response writes either.
	siteSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           siteHandler,
		ReadTimeout:       siteReadTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	servers := []*http.Server{siteSrv}

	if cfg.OpsAddr != "" {
		opsHandler, err := newOpsHandler(ctx, svc)
		if err != nil {
			loggerInstance.Error(ctx, "failed to build ops api", logger.Error(err))
			return
		}
		servers = append(servers, &http.Server{
			Addr:              cfg.OpsAddr,
			Handler:           opsHandler,
			ReadTimeout:       opsReadTimeout,
			WriteTimeout:      opsWriteTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		})
	}

	for _, srv := range servers {
		go serve(ctx, stop, srv, loggerInstance)
	}

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down servers...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.String("addr", srv.Addr), logger.Error(err))
		}
	}

	loggerInstance.Info(shutdownCtx, "servers stopped")
}

func newService(cfg *config.Config, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log),
		app.WithBackendURL(cfg.BackendURL),
		app.WithBackendTimeout(cfg.BackendTimeout()),
		app.WithStashSize(cfg.StashSize),
		app.WithStashTTL(cfg.StashTTL()),
	)
}

// newSiteHandler builds the user facing mux: the four views and nothing else.
func newSiteHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) (http.Handler, error) {
	router, err := site.NewRouter(svc,
		site.WithLogger(log.Named("site")),
		site.WithMaxUploadBytes(cfg.MaxUploadBytes),
	)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	router.Register(ctx, mux)
	return mux, nil
}

// newOpsHandler builds the mux for /healthz, /stats and the API docs.
func newOpsHandler(ctx context.Context, svc *app.Service) (http.Handler, error) {
	apiServer, err := api.NewServer(svc)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	apiServer.Register(ctx, mux)
	return mux, nil
}

// serve runs srv until it is shut down. A listener failure stops the
// whole process.
func serve(ctx context.Context, stop context.CancelFunc, srv *http.Server, log logger.Logger) {
	log.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "HTTP server failed", logger.String("addr", srv.Addr), logger.Error(err))
		stop()
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
