package shipments

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shipbridge/api/responses"
	"github.com/angelmondragon/shipbridge/api/validators"
	"github.com/angelmondragon/shipbridge/internal/bundles"
	"github.com/angelmondragon/shipbridge/internal/orders"
	internalshipments "github.com/angelmondragon/shipbridge/internal/shipments"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

// Reader lists and loads shipments through the mode switch.
type Reader interface {
	ListShipments(ctx context.Context) ([]internalshipments.Shipment, error)
	GetShipment(ctx context.Context, id string) (*internalshipments.Shipment, error)
}

// Bundler enforces order exclusivity on writes; *bundles.Manager satisfies it.
type Bundler interface {
	ListAvailableOrders(ctx context.Context, editing string) ([]orders.Order, error)
	CreateBundle(ctx context.Context, in bundles.Input) (internalshipments.Shipment, error)
	UpdateBundle(ctx context.Context, id string, in bundles.Input) (internalshipments.Shipment, error)
	DeleteBundle(ctx context.Context, id string) error
	Violations(ctx context.Context) ([]bundles.Violation, error)
}

func List(reader Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := reader.ListShipments(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []internalshipments.Shipment{}
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(reader Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := shipmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sh, err := reader.GetShipment(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sh.Deleted {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found"))
			return
		}
		responses.WriteSuccess(w, sh)
	}
}

// Available lists orders not held by any live bundle. ?editing=<uuid> keeps
// that bundle's own orders selectable.
func Available(bundler Bundler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := bundler.ListAvailableOrders(r.Context(), validators.QueryString(r, "editing"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []orders.Order{}
		}
		responses.WriteSuccess(w, list)
	}
}

func Create(bundler Bundler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in bundles.Input
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saved, err := bundler.CreateBundle(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, saved)
	}
}

func Update(bundler Bundler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := shipmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var in bundles.Input
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saved, err := bundler.UpdateBundle(r.Context(), id, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}

func Delete(bundler Bundler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := shipmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := bundler.DeleteBundle(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Violations reports orders held by more than one live bundle, which can
// appear after two sessions bundled the same order offline.
func Violations(bundler Bundler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := bundler.Violations(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []bundles.Violation{}
		}
		responses.WriteSuccess(w, list)
	}
}

func shipmentID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "shipmentId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shipment id is required")
	}
	return id, nil
}
