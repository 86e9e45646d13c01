package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shipbridge/api/responses"
	"github.com/angelmondragon/shipbridge/api/validators"
	internalorders "github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

// Service is the routed order surface; *mode.Switch satisfies it.
type Service interface {
	ListOrders(ctx context.Context) ([]internalorders.Order, error)
	GetOrder(ctx context.Context, id string) (*internalorders.Order, error)
	SaveOrder(ctx context.Context, o internalorders.Order) (internalorders.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// orderRequest is the editable part of an order. Identity and timestamps are
// owned by the server.
type orderRequest struct {
	Customer    string   `json:"customer"`
	City        string   `json:"city"`
	Material    string   `json:"material"`
	Qty         int      `json:"qty"`
	Status      string   `json:"status"`
	Note        string   `json:"note"`
	Attachments []string `json:"attachments"`
	InvoiceNo   string   `json:"invoice_no"`
	InvoiceDate string   `json:"invoice_date"`
	VehicleNo   string   `json:"vehicle_no"`
	Transporter string   `json:"transporter"`
	LRNo        string   `json:"lr_no"`
}

func (req orderRequest) toOrder() internalorders.Order {
	return internalorders.Order{
		Customer:    req.Customer,
		City:        req.City,
		Material:    req.Material,
		Qty:         req.Qty,
		Status:      enums.OrderStatus(req.Status),
		Note:        req.Note,
		Attachments: req.Attachments,
		InvoiceNo:   req.InvoiceNo,
		InvoiceDate: req.InvoiceDate,
		VehicleNo:   req.VehicleNo,
		Transporter: req.Transporter,
		LRNo:        req.LRNo,
	}
}

func List(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []internalorders.Order{}
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.Deleted {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func Create(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saved, err := svc.SaveOrder(r.Context(), req.toOrder())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, saved)
	}
}

// Update replaces the editable fields of an existing order. An unknown uuid
// is NOT_FOUND rather than an implicit create.
func Update(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req orderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		current, err := svc.GetOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if current.Deleted {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		next := req.toOrder()
		next.UUID = current.UUID
		saved, err := svc.SaveOrder(r.Context(), next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}

func Delete(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteOrder(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func orderID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return id, nil
}
