package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shipbridge/api/responses"
	"github.com/angelmondragon/shipbridge/api/validators"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

// ModeSwitch is the part of mode.Switch the mode endpoints use.
type ModeSwitch interface {
	Mode() enums.Mode
	Policy() enums.DeletionPolicy
	SetMode(ctx context.Context, m enums.Mode) error
}

type modeResponse struct {
	Mode           enums.Mode           `json:"mode"`
	DeletionPolicy enums.DeletionPolicy `json:"deletion_policy"`
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=offline online"`
}

func ModeGet(sw ModeSwitch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, modeResponse{Mode: sw.Mode(), DeletionPolicy: sw.Policy()})
	}
}

// ModeSet switches the session between the local and the remote store. No
// data moves; run a sync to reconcile.
func ModeSet(sw ModeSwitch, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req modeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m, err := enums.ParseMode(req.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mode"))
			return
		}
		if err := sw.SetMode(r.Context(), m); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, modeResponse{Mode: sw.Mode(), DeletionPolicy: sw.Policy()})
	}
}
