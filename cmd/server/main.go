package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/oggyb/hire-match/internal/app"
	"github.com/oggyb/hire-match/internal/cache"
	"github.com/oggyb/hire-match/internal/config"
	"github.com/oggyb/hire-match/internal/db"
	"github.com/oggyb/hire-match/internal/logger"
	"github.com/oggyb/hire-match/internal/server"
	"github.com/oggyb/hire-match/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:          "hire-match",
		Short:        "Matching and application lifecycle gRPC server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (env always wins)")

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(cfgFile)
			if err != nil {
				return err
			}
			// NewDB migrates on open
			if _, err := db.NewDB(cfg); err != nil {
				logger.Error("migration failed", "err", err)
				return err
			}
			logger.Info("schema migrated", "driver", cfg.DB.Driver)
			return nil
		},
	})

	return root
}

// setup loads config and initializes the global logger.
func setup(cfgFile string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger.InitFromConfig(cfg)
	return cfg, nil
}

func serve(ctx context.Context, cfgFile string) error {
	cfg, err := setup(cfgFile)
	if err != nil {
		return err
	}
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return err
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return err
	}

	appCtx := app.New(database, redisCache, log)
	defer func() {
		if err := appCtx.Close(); err != nil {
			log.Warn("failed to release connections", "err", err)
		}
	}()
	services := service.New(appCtx)

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics.Addr)
	}

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr, "env", cfg.App.ENV)

	if err := server.StartGRPCServer(ctx, cfg, log, services.Registrars()...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
		return err
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "err", err)
	}
}
