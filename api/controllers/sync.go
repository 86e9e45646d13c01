package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shipbridge/api/responses"
	"github.com/angelmondragon/shipbridge/internal/changes"
	"github.com/angelmondragon/shipbridge/internal/syncengine"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

// Syncer runs a reconciliation between the local and remote stores.
type Syncer interface {
	Sync(ctx context.Context) (syncengine.Result, error)
	LastSyncTime(ctx context.Context) (int64, error)
}

type syncResponse struct {
	syncengine.Result
	LastSyncTime int64 `json:"last_sync_time"`
}

func SyncRun(engine Syncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := engine.Sync(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		last, err := engine.LastSyncTime(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read last sync time"))
			return
		}
		responses.WriteSuccess(w, syncResponse{Result: result, LastSyncTime: last})
	}
}

func SyncStatus(engine Syncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		last, err := engine.LastSyncTime(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read last sync time"))
			return
		}
		responses.WriteSuccess(w, map[string]int64{"last_sync_time": last})
	}
}

// LiveSource exposes the latest change-driven remote view.
type LiveSource interface {
	Snapshot() changes.Snapshot
}

func LiveSnapshot(watcher LiveSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if watcher == nil {
			responses.WriteSuccess(w, changes.Snapshot{})
			return
		}
		responses.WriteSuccess(w, watcher.Snapshot())
	}
}
