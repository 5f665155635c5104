package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/attrengine/internal/config"
	"github.com/udisondev/attrengine/internal/db"
	"github.com/udisondev/attrengine/internal/metrics"
	"github.com/udisondev/attrengine/internal/registry"
)

const ConfigPath = "config/attrserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("ATTR_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("attrserver starting",
		"log_level", cfg.LogLevel,
		"store", cfg.Store,
		"sweep_interval", cfg.SweepInterval,
		"save_interval", cfg.SaveInterval)

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	reg := registry.New(
		registry.WithDefaults(cfg.DefaultBases()),
		registry.WithMetrics(metrics.New(promReg)),
	)
	reg.OnDeath(func(ev registry.DeathEvent) {
		slog.Debug("death signal", "entityID", ev.EntityID)
	})

	var save registry.SaveFunc
	if repo != nil {
		snapshots := db.NewSnapshotService(repo, cfg.SaveConcurrency)
		loaded, err := snapshots.LoadAll(ctx, reg)
		if err != nil {
			return fmt.Errorf("loading snapshots: %w", err)
		}
		slog.Info("registry restored", "entities", loaded)

		save = func(ctx context.Context) error {
			_, err := snapshots.SaveAll(ctx, reg)
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting maintenance loop")
		if err := reg.RunMaintenance(gctx, cfg.SweepInterval, cfg.SaveInterval, save); err != nil {
			return fmt.Errorf("maintenance loop: %w", err)
		}
		return nil
	})

	if cfg.MetricsAddress != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("starting metrics server", "address", cfg.MetricsAddress)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// openStore opens the configured snapshot repository. The memory store has
// no repository and returns nil.
func openStore(ctx context.Context, cfg config.Engine) (db.SnapshotRepository, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
		return db.NewPostgresSnapshotRepository(database.Pool()), database.Close, nil

	case config.StoreSQLite:
		repo, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		slog.Info("sqlite store opened", "path", cfg.SQLitePath)
		return repo, func() {
			if err := repo.Close(); err != nil {
				slog.Error("closing sqlite store", "error", err)
			}
		}, nil

	default:
		slog.Warn("memory store selected, state is not persisted")
		return nil, func() {}, nil
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
