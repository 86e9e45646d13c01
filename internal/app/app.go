// Package app wires the stores, the mode switch, the sync engine and the
// change watcher from configuration. Both the API server and the CLI boot
// through it.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shipbridge/internal/bundles"
	"github.com/angelmondragon/shipbridge/internal/changes"
	"github.com/angelmondragon/shipbridge/internal/cron"
	"github.com/angelmondragon/shipbridge/internal/mode"
	"github.com/angelmondragon/shipbridge/internal/syncengine"
	"github.com/angelmondragon/shipbridge/pkg/config"
	"github.com/angelmondragon/shipbridge/pkg/db"
	"github.com/angelmondragon/shipbridge/pkg/db/models"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	"github.com/angelmondragon/shipbridge/pkg/logger"
	"github.com/angelmondragon/shipbridge/pkg/metrics"
	"github.com/angelmondragon/shipbridge/pkg/redis"
	"github.com/angelmondragon/shipbridge/pkg/settings"
)

const (
	syncLockName      = "sync"
	schedulerLockName = "scheduler"
)

type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Settings *settings.Store
	Local    *db.Client
	Remote   *mode.RemoteProvider
	Redis    *redis.Client
	Registry *prometheus.Registry
	Metrics  *metrics.SyncMetrics
	Switch   *mode.Switch
	Bundles  *bundles.Manager
	Engine   *syncengine.Engine
	Watcher  *changes.Watcher

	transport enums.ChangeTransport
	closers   []func() error
}

// Bootstrap opens the local store and the settings file, prepares a lazy
// remote provider and optionally connects to Redis. Nothing here touches the
// remote store.
func Bootstrap(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logg}
	if err := a.bootstrap(ctx); err != nil {
		return nil, multierr.Append(err, a.Close())
	}
	return a, nil
}

func (a *App) bootstrap(ctx context.Context) error {
	cfg, logg := a.Config, a.Logger

	policy, err := enums.ParseDeletionPolicy(cfg.Sync.DeletionPolicy)
	if err != nil {
		return fmt.Errorf("deletion policy: %w", err)
	}
	a.transport, err = enums.ParseChangeTransport(cfg.Sync.ChangeTransport)
	if err != nil {
		return err
	}

	store, err := settings.Open(ctx, cfg.State.Path)
	if err != nil {
		return err
	}
	a.Settings = store
	a.closers = append(a.closers, store.Close)

	local, err := db.OpenLocal(ctx, cfg.Local, logg, models.LocalModels()...)
	if err != nil {
		return err
	}
	a.Local = local
	a.closers = append(a.closers, local.Close)

	a.Remote = mode.NewRemoteProvider(cfg.Remote, store, mode.DefaultOpener(logg))
	a.closers = append(a.closers, a.Remote.Close)

	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
	}

	a.Registry = prometheus.NewRegistry()
	a.Metrics = metrics.NewSyncMetrics(a.Registry)

	var notifier mode.Notifier
	if a.transport == enums.ChangeTransportRedis {
		if a.Redis == nil {
			return fmt.Errorf("change transport %q requires redis", a.transport)
		}
		notifier = changes.NewPublisher(a.Redis, cfg.Sync.ChangeChannel)
	}

	switchOpts := []mode.Option{mode.WithLogger(logg)}
	if notifier != nil {
		switchOpts = append(switchOpts, mode.WithNotifier(notifier))
	}
	localStore := mode.NewLocalStore(local.DB())
	a.Switch, err = mode.NewSwitch(ctx, store, localStore, a.Remote, policy, switchOpts...)
	if err != nil {
		return err
	}
	a.Bundles = bundles.NewManager(a.Switch, logg)

	engineOpts := []syncengine.Option{
		syncengine.WithLogger(logg),
		syncengine.WithMetrics(a.Metrics),
	}
	if notifier != nil {
		engineOpts = append(engineOpts, syncengine.WithNotifier(notifier))
	}
	if a.Redis != nil {
		lock, err := syncengine.NewRedisLock(a.Redis, a.Redis.LockKey(syncLockName), cfg.Sync.LockTTL)
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, syncengine.WithLock(lock))
	}
	a.Engine = syncengine.New(localStore, a.Remote, store, engineOpts...)

	return nil
}

// StartWatcher subscribes to remote change notifications whenever the
// session is online. Long-running processes call it; one-shot commands do
// not. The "none" transport leaves Watcher nil.
func (a *App) StartWatcher(ctx context.Context) error {
	var sub changes.Subscriber
	switch a.transport {
	case enums.ChangeTransportRedis:
		sub = changes.NewRedisSubscriber(a.Redis, a.Config.Sync.ChangeChannel)
	case enums.ChangeTransportPostgres:
		sub = changes.NewPGSubscriber(a.Remote, a.Config.Sync.ChangeChannel)
	default:
		return nil
	}

	a.Watcher = changes.NewWatcher(sub, a.Remote,
		changes.WithDebounce(a.Config.Sync.DebounceWindow),
		changes.WithWatcherLogger(a.Logger),
		changes.WithWatcherMetrics(a.Metrics),
	)
	a.closers = append(a.closers, a.Watcher.Close)
	return a.Watcher.Attach(ctx, a.Switch)
}

// StartScheduler runs auto-sync and the bundle exclusivity check in the
// background when an interval is configured. It returns the scheduler's
// exit through done; a disabled scheduler closes done immediately.
func (a *App) StartScheduler(ctx context.Context) (<-chan error, error) {
	done := make(chan error, 1)
	interval := a.Config.Sync.AutoInterval
	if interval <= 0 {
		close(done)
		return done, nil
	}

	params := cron.ServiceParams{
		Logger:   a.Logger,
		Registry: cron.NewRegistry(cron.NewSyncJob(a.Engine, a.Logger), cron.NewExclusivityJob(a.Bundles, a.Logger)),
		Metrics:  metrics.NewJobMetrics(a.Registry),
		Interval: interval,
	}
	if a.Redis != nil {
		lock, err := syncengine.NewRedisLock(a.Redis, a.Redis.LockKey(schedulerLockName), interval)
		if err != nil {
			return nil, err
		}
		params.Lock = lock
	}
	service, err := cron.NewService(params)
	if err != nil {
		return nil, err
	}

	a.Logger.Info(a.Logger.WithFields(ctx, map[string]any{
		"interval": interval.String(),
		"jobs":     params.Registry.Names(),
	}), "scheduler starting")
	go func() {
		done <- service.Run(ctx)
		close(done)
	}()
	return done, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
