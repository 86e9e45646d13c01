package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shipbridge/api/responses"
	"github.com/angelmondragon/shipbridge/pkg/config"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

const envHeader = "X-Shipbridge-Env"

// Pinger is any dependency with a health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails only when the local store is down. The remote store and
// Redis are reported but optional: an offline session works without them.
func HealthReady(cfg *config.Config, logg *logger.Logger, local, remote, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()

		checks := map[string]string{"local": probe(ctx, local)}
		checks["remote"] = probe(ctx, remote)
		checks["redis"] = probe(ctx, redis)

		if checks["local"] != "ok" {
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"checks": checks}), "health.not_ready")
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "checks": checks})
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	err := p.Ping(ctx)
	switch {
	case err == nil:
		return "ok"
	case pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured):
		return "not_configured"
	default:
		return "error"
	}
}
