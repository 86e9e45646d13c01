package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/shipbridge/api/controllers"
	"github.com/angelmondragon/shipbridge/api/routes"
	"github.com/angelmondragon/shipbridge/internal/app"
	"github.com/angelmondragon/shipbridge/pkg/config"
	"github.com/angelmondragon/shipbridge/pkg/instance"
	"github.com/angelmondragon/shipbridge/pkg/logger"
	"github.com/angelmondragon/shipbridge/pkg/migrate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	if cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate {
		conn, err := a.Remote.Conn(ctx)
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "skipping dev migrations, remote unavailable")
		} else if err := migrate.MaybeRunDev(ctx, cfg, logg, conn); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	if err := a.StartWatcher(ctx); err != nil {
		logg.Error(ctx, "failed to start change watcher", err)
		os.Exit(1)
	}

	schedulerDone, err := a.StartScheduler(ctx)
	if err != nil {
		logg.Error(ctx, "failed to start scheduler", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"mode":     a.Switch.Mode().String(),
	})
	logg.Info(ctx, "starting api server")

	var redisPinger controllers.Pinger
	if a.Redis != nil {
		redisPinger = a.Redis
	}
	var live controllers.LiveSource
	if a.Watcher != nil {
		live = a.Watcher
	}
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			a.Local,
			a.Remote,
			redisPinger,
			a.Registry,
			a.Switch,
			a.Bundles,
			a.Settings,
			a.Remote,
			a.Engine,
			live,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		<-schedulerDone
		logg.Info(shutdownCtx, "api server stopped")
	}
}
