package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shipbridge/internal/bundles"
	"github.com/angelmondragon/shipbridge/internal/mode"
	"github.com/angelmondragon/shipbridge/internal/syncengine"
	"github.com/angelmondragon/shipbridge/pkg/config"
	"github.com/angelmondragon/shipbridge/pkg/db"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	"github.com/angelmondragon/shipbridge/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCreds struct{ reconfigured int }

func (*stubCreds) SetRemoteCredentials(context.Context, string, string) error { return nil }
func (*stubCreds) ClearRemoteCredentials(context.Context) error               { return nil }
func (s *stubCreds) Reconfigure()                                             { s.reconfigured++ }

type stubSyncer struct{}

func (stubSyncer) Sync(context.Context) (syncengine.Result, error) {
	return syncengine.Result{Pushed: 1}, nil
}

func (stubSyncer) LastSyncTime(context.Context) (int64, error) { return 42, nil }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func newTestRouter(t *testing.T) (http.Handler, *stubCreds) {
	t.Helper()
	sw, err := mode.NewSwitch(context.Background(), nil, mode.NewLocalStore(db.NewLocalTestDB(t)), nil, enums.DeletionSoft)
	if err != nil {
		t.Fatalf("new switch: %v", err)
	}
	reg := prometheus.NewRegistry()
	metrics.NewSyncMetrics(reg).ObserveRun("ok", 0)

	creds := &stubCreds{}
	router := NewRouter(
		testConfig(),
		nil,
		stubPinger{},
		nil,
		nil,
		reg,
		sw,
		bundles.NewManager(sw, nil),
		creds,
		creds,
		stubSyncer{},
		nil,
	)
	return router, creds
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	if resp := serve(router, http.MethodGet, "/health/live", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", resp.Code)
	}
	resp := serve(router, http.MethodGet, "/health/ready", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected ready 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header from middleware")
	}
}

func TestOrderAndShipmentRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := serve(router, http.MethodPost, "/api/v1/orders", `{"customer":"Acme","city":"Pune","material":"Steel","qty":3}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Data struct {
			UUID string `json:"uuid"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp := serve(router, http.MethodGet, "/api/v1/orders/"+created.Data.UUID, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected order detail 200 got %d", resp.Code)
	}

	body := `{"reference":"LR-1","dispatch_date":"2026-03-01","order_uuids":["` + created.Data.UUID + `"]}`
	if resp := serve(router, http.MethodPost, "/api/v1/shipments", body); resp.Code != http.StatusCreated {
		t.Fatalf("expected shipment 201 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = serve(router, http.MethodGet, "/api/v1/shipments/available", "")
	if resp.Code != http.StatusOK || strings.Contains(resp.Body.String(), created.Data.UUID) {
		t.Fatalf("bundled order should not be available: %d %s", resp.Code, resp.Body.String())
	}

	resp = serve(router, http.MethodGet, "/api/v1/shipments/violations", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"data":[]`) {
		t.Fatalf("unexpected violations response %d %s", resp.Code, resp.Body.String())
	}
}

func TestModeRemoteAndSyncRoutes(t *testing.T) {
	router, creds := newTestRouter(t)

	resp := serve(router, http.MethodGet, "/api/v1/mode", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"mode":"offline"`) {
		t.Fatalf("unexpected mode response %d %s", resp.Code, resp.Body.String())
	}

	resp = serve(router, http.MethodPut, "/api/v1/remote", `{"url":"postgres://db.example.com/ship","api_key":"k"}`)
	if resp.Code != http.StatusOK || creds.reconfigured != 1 {
		t.Fatalf("remote set failed: %d %s", resp.Code, resp.Body.String())
	}

	resp = serve(router, http.MethodPost, "/api/v1/sync", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"last_sync_time":42`) {
		t.Fatalf("unexpected sync response %d %s", resp.Code, resp.Body.String())
	}

	resp = serve(router, http.MethodGet, "/api/v1/live", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"live":false`) {
		t.Fatalf("unexpected live response %d %s", resp.Code, resp.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := serve(router, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "shipbridge_sync_runs_total") {
		t.Fatalf("expected sync metrics in output")
	}
}
