package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shipbridge/api/responses"
	"github.com/angelmondragon/shipbridge/api/validators"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

// CredentialStore persists the remote endpoint and API key.
type CredentialStore interface {
	SetRemoteCredentials(ctx context.Context, endpoint, apiKey string) error
	ClearRemoteCredentials(ctx context.Context) error
}

// Reconfigurer drops a cached remote connection after credentials change.
type Reconfigurer interface {
	Reconfigure()
}

type remoteRequest struct {
	URL    string `json:"url" validate:"required,url"`
	APIKey string `json:"api_key" validate:"required"`
}

func RemoteSet(creds CredentialStore, provider Reconfigurer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := creds.SetRemoteCredentials(r.Context(), req.URL, req.APIKey); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store remote credentials"))
			return
		}
		provider.Reconfigure()
		if logg != nil {
			logg.Info(r.Context(), "remote credentials updated")
		}
		responses.WriteSuccess(w, map[string]bool{"configured": true})
	}
}

func RemoteClear(creds CredentialStore, provider Reconfigurer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := creds.ClearRemoteCredentials(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear remote credentials"))
			return
		}
		provider.Reconfigure()
		responses.WriteSuccess(w, map[string]bool{"configured": false})
	}
}
