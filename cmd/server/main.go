// Command pk-server starts the policy-keeper HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/and161185/policy-keeper/internal/config"
	"github.com/and161185/policy-keeper/internal/metrics"
	"github.com/and161185/policy-keeper/internal/migrate"
	"github.com/and161185/policy-keeper/internal/repository"
	"github.com/and161185/policy-keeper/internal/repository/memory"
	"github.com/and161185/policy-keeper/internal/repository/postgres"
	httpserver "github.com/and161185/policy-keeper/internal/server/http"
	"github.com/and161185/policy-keeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	// Flags override env
	addr := flag.String("addr", cfg.Server.Addr, "listen address")
	dsn := flag.String("dsn", cfg.Database.DSN(), "PostgreSQL DSN")
	storage := flag.String("storage", cfg.App.Storage, "storage backend: postgres|memory")
	dev := flag.Bool("dev", cfg.App.Dev, "development logging")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	logger := newLogger(*dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
		zap.String("storage", *storage),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		if err := migrate.Up(ctx, *dsn); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		v, err := migrate.Version(ctx, *dsn)
		if err != nil {
			logger.Fatal("migrate version", zap.Error(err))
		}
		logger.Info("migrations applied", zap.Int64("version", v))
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Repositories
	var (
		clientRepo repository.ClientRepository
		policyRepo repository.PolicyRepository
		ready      httpserver.Pinger
	)
	switch *storage {
	case config.StorageMemory:
		mem := memory.NewDB()
		clientRepo, policyRepo, ready = memory.NewClientRepo(mem), memory.NewPolicyRepo(mem), mem
		logger.Warn("using in-memory storage; data is lost on exit")
	default:
		if cfg.App.Migrate {
			if err := migrate.Up(ctx, *dsn); err != nil {
				logger.Fatal("migrate up", zap.Error(err))
			}
		}
		db, err := postgres.New(ctx, *dsn)
		if err != nil {
			logger.Fatal("pgxpool.New", zap.Error(err))
		}
		defer db.Close()
		clientRepo, policyRepo, ready = postgres.NewClientRepo(db), postgres.NewPolicyRepo(db), db
	}

	// Services
	clientSvc := service.NewClientService(clientRepo, logger, m)
	policySvc := service.NewPolicyService(policyRepo, clientRepo, logger, m)

	app := httpserver.New(clientSvc, policySvc, logger, m)
	handler := app.Router(httpserver.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Gatherer:    reg,
		Ready:       ready,
	})
	srv := httpserver.NewHTTPServer(*addr, handler, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}
