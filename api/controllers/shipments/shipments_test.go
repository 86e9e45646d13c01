package shipments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shipbridge/api/responses"
	"github.com/angelmondragon/shipbridge/internal/bundles"
	"github.com/angelmondragon/shipbridge/internal/mode"
	"github.com/angelmondragon/shipbridge/internal/orders"
	internalshipments "github.com/angelmondragon/shipbridge/internal/shipments"
	"github.com/angelmondragon/shipbridge/pkg/db"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
)

type fixture struct {
	sw      *mode.Switch
	manager *bundles.Manager
	orders  []orders.Order
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	ctx := context.Background()
	sw, err := mode.NewSwitch(ctx, nil, mode.NewLocalStore(db.NewLocalTestDB(t)), nil, enums.DeletionSoft)
	if err != nil {
		t.Fatalf("new switch: %v", err)
	}
	f := &fixture{sw: sw, manager: bundles.NewManager(sw, nil)}
	for i := 0; i < n; i++ {
		o, err := sw.SaveOrder(ctx, orders.Order{Customer: fmt.Sprintf("c%d", i), City: "Pune", Material: "Steel", Qty: 1})
		if err != nil {
			t.Fatalf("save order: %v", err)
		}
		f.orders = append(f.orders, o)
	}
	return f
}

func withShipmentID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("shipmentId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func bundleBody(reference string, ids ...string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = `"` + id + `"`
	}
	return fmt.Sprintf(`{"reference":%q,"dispatch_date":"2026-03-01","order_uuids":[%s]}`, reference, strings.Join(quoted, ","))
}

func (f *fixture) create(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	Create(f.manager, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/shipments", strings.NewReader(body)))
	return resp
}

func decodeShipment(t *testing.T, resp *httptest.ResponseRecorder) internalshipments.Shipment {
	t.Helper()
	var envelope struct {
		Data internalshipments.Shipment `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func availableCount(t *testing.T, f *fixture, editing string) int {
	t.Helper()
	resp := httptest.NewRecorder()
	Available(f.manager, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/shipments/available?editing="+editing, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []orders.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return len(envelope.Data)
}

func TestCreateBundleAndAvailability(t *testing.T) {
	f := newFixture(t, 3)
	resp := f.create(t, bundleBody("SHP-1", f.orders[0].UUID, f.orders[1].UUID))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	bundle := decodeShipment(t, resp)

	if got := availableCount(t, f, ""); got != 1 {
		t.Fatalf("expected 1 available order, got %d", got)
	}
	if got := availableCount(t, f, bundle.UUID); got != 3 {
		t.Fatalf("expected own orders to stay selectable, got %d", got)
	}

	resp = f.create(t, bundleBody("SHP-2", f.orders[1].UUID))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for held order got %d", resp.Code)
	}
	var envelope responses.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestCreateBundleValidation(t *testing.T) {
	f := newFixture(t, 1)
	tests := []struct {
		name string
		body string
	}{
		{name: "missing reference", body: bundleBody("", f.orders[0].UUID)},
		{name: "no orders", body: bundleBody("SHP-1")},
		{name: "missing date", body: fmt.Sprintf(`{"reference":"SHP-1","order_uuids":[%q]}`, f.orders[0].UUID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := f.create(t, tt.body); resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
		})
	}
}

func TestUpdateDeleteAndDetail(t *testing.T) {
	f := newFixture(t, 2)
	bundle := decodeShipment(t, f.create(t, bundleBody("SHP-1", f.orders[0].UUID)))

	resp := httptest.NewRecorder()
	req := withShipmentID(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(bundleBody("SHP-1b", f.orders[0].UUID, f.orders[1].UUID))), bundle.UUID)
	Update(f.manager, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	updated := decodeShipment(t, resp)
	if updated.Reference != "SHP-1b" || len(updated.OrderUUIDs) != 2 {
		t.Fatalf("unexpected update %+v", updated)
	}

	resp = httptest.NewRecorder()
	Delete(f.manager, nil).ServeHTTP(resp, withShipmentID(httptest.NewRequest(http.MethodDelete, "/", nil), bundle.UUID))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	Detail(f.sw, nil).ServeHTTP(resp, withShipmentID(httptest.NewRequest(http.MethodGet, "/", nil), bundle.UUID))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if got := availableCount(t, f, ""); got != 2 {
		t.Fatalf("deleting a bundle releases its orders, got %d available", got)
	}
}

func TestViolationsEmpty(t *testing.T) {
	f := newFixture(t, 0)
	resp := httptest.NewRecorder()
	Violations(f.manager, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"data":[]`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}
