package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shipbridge/internal/bundles"
	"github.com/angelmondragon/shipbridge/internal/syncengine"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

// Syncer is the slice of the sync engine the auto-sync job drives.
type Syncer interface {
	Sync(ctx context.Context) (syncengine.Result, error)
}

// SyncJob reconciles the stores on every cycle. A missing remote
// configuration or a sync already in flight is not a failure.
type SyncJob struct {
	engine Syncer
	logg   *logger.Logger
}

func NewSyncJob(engine Syncer, logg *logger.Logger) *SyncJob {
	return &SyncJob{engine: engine, logg: logg}
}

func (j *SyncJob) Name() string { return "auto_sync" }

func (j *SyncJob) Run(ctx context.Context) error {
	result, err := j.engine.Sync(ctx)
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured), pkgerrors.IsCode(err, pkgerrors.CodeConflict):
		if j.logg != nil {
			j.logg.Debug(j.logg.WithField(ctx, "reason", err.Error()), "auto sync skipped")
		}
		return nil
	case err != nil:
		if j.logg != nil && !pkgerrors.IsRetryable(err) {
			j.logg.Warn(ctx, "auto sync failed with a permanent error; later cycles will fail the same way")
		}
		return err
	}
	if j.logg != nil {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"pushed": result.Pushed,
			"pulled": result.Pulled,
		}), "auto sync complete")
	}
	return nil
}

// Checker reports orders held by more than one live shipment.
type Checker interface {
	Violations(ctx context.Context) ([]bundles.Violation, error)
}

// ExclusivityJob surfaces bundles that broke order exclusivity, which can
// happen when two sessions bundle the same order and then sync.
type ExclusivityJob struct {
	checker Checker
	logg    *logger.Logger
}

func NewExclusivityJob(checker Checker, logg *logger.Logger) *ExclusivityJob {
	return &ExclusivityJob{checker: checker, logg: logg}
}

func (j *ExclusivityJob) Name() string { return "bundle_exclusivity" }

func (j *ExclusivityJob) Run(ctx context.Context) error {
	violations, err := j.checker.Violations(ctx)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured) {
			return nil
		}
		return err
	}
	if len(violations) == 0 {
		return nil
	}
	if j.logg != nil {
		for _, v := range violations {
			j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
				"order_uuid": v.OrderUUID,
				"shipments":  v.Shipments,
			}), "order bundled more than once")
		}
	}
	return fmt.Errorf("%d orders are bundled more than once", len(violations))
}
