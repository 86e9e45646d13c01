package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/shipbridge/internal/bundles"
	"github.com/angelmondragon/shipbridge/internal/syncengine"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
)

type syncFunc func(ctx context.Context) (syncengine.Result, error)

func (f syncFunc) Sync(ctx context.Context) (syncengine.Result, error) { return f(ctx) }

type checkFunc func(ctx context.Context) ([]bundles.Violation, error)

func (f checkFunc) Violations(ctx context.Context) ([]bundles.Violation, error) { return f(ctx) }

func TestSyncJobSkipsExpectedConditions(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success"},
		{name: "not configured", err: pkgerrors.New(pkgerrors.CodeNotConfigured, "missing")},
		{name: "already running", err: pkgerrors.New(pkgerrors.CodeConflict, "sync already running")},
		{name: "network", err: pkgerrors.New(pkgerrors.CodeNetwork, "down"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewSyncJob(syncFunc(func(context.Context) (syncengine.Result, error) {
				return syncengine.Result{Pushed: 1}, tt.err
			}), nil)
			err := job.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExclusivityJobFailsOnViolations(t *testing.T) {
	clean := NewExclusivityJob(checkFunc(func(context.Context) ([]bundles.Violation, error) {
		return nil, nil
	}), nil)
	assert.NoError(t, clean.Run(context.Background()))

	broken := NewExclusivityJob(checkFunc(func(context.Context) ([]bundles.Violation, error) {
		return []bundles.Violation{{OrderUUID: "o1", Shipments: []string{"s1", "s2"}}}, nil
	}), nil)
	assert.ErrorContains(t, broken.Run(context.Background()), "1 orders")

	failing := NewExclusivityJob(checkFunc(func(context.Context) ([]bundles.Violation, error) {
		return nil, errors.New("read failed")
	}), nil)
	assert.Error(t, failing.Run(context.Background()))
}
