package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/shipbridge/internal/changes"
	"github.com/angelmondragon/shipbridge/internal/syncengine"
	"github.com/angelmondragon/shipbridge/pkg/config"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
)

type stubSwitch struct {
	mode enums.Mode
	err  error
}

func (s *stubSwitch) Mode() enums.Mode             { return s.mode }
func (s *stubSwitch) Policy() enums.DeletionPolicy { return enums.DeletionSoft }
func (s *stubSwitch) SetMode(_ context.Context, m enums.Mode) error {
	if s.err != nil {
		return s.err
	}
	s.mode = m
	return nil
}

type stubCreds struct {
	url, key     string
	cleared      bool
	reconfigured int
}

func (s *stubCreds) SetRemoteCredentials(_ context.Context, url, key string) error {
	s.url, s.key = url, key
	return nil
}

func (s *stubCreds) ClearRemoteCredentials(context.Context) error {
	s.cleared = true
	return nil
}

func (s *stubCreds) Reconfigure() { s.reconfigured++ }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type stubSyncer struct {
	result syncengine.Result
	err    error
	last   int64
}

func (s *stubSyncer) Sync(context.Context) (syncengine.Result, error) { return s.result, s.err }
func (s *stubSyncer) LastSyncTime(context.Context) (int64, error)     { return s.last, nil }

func TestModeGetAndSet(t *testing.T) {
	sw := &stubSwitch{mode: enums.ModeOffline}

	resp := httptest.NewRecorder()
	ModeSet(sw, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/v1/mode", strings.NewReader(`{"mode":"online"}`)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if sw.mode != enums.ModeOnline {
		t.Fatalf("mode not applied")
	}

	resp = httptest.NewRecorder()
	ModeSet(sw, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/v1/mode", strings.NewReader(`{"mode":"hybrid"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	ModeGet(sw).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/mode", nil))
	var envelope struct {
		Data modeResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Mode != enums.ModeOnline || envelope.Data.DeletionPolicy != enums.DeletionSoft {
		t.Fatalf("unexpected mode payload %+v", envelope.Data)
	}
}

func TestRemoteSetAndClear(t *testing.T) {
	creds := &stubCreds{}

	resp := httptest.NewRecorder()
	body := `{"url":"postgres://db.example.com:5432/ship","api_key":"secret"}`
	RemoteSet(creds, creds, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/v1/remote", strings.NewReader(body)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if creds.key != "secret" || creds.reconfigured != 1 {
		t.Fatalf("credentials not applied: %+v", creds)
	}

	resp = httptest.NewRecorder()
	RemoteSet(creds, creds, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/v1/remote", strings.NewReader(`{"url":"postgres://x"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without api key got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	RemoteClear(creds, creds, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/remote", nil))
	if resp.Code != http.StatusOK || !creds.cleared || creds.reconfigured != 2 {
		t.Fatalf("clear failed: %d %+v", resp.Code, creds)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	ok := pingFunc(func(context.Context) error { return nil })
	notConfigured := pingFunc(func(context.Context) error {
		return pkgerrors.New(pkgerrors.CodeNotConfigured, "missing")
	})
	down := pingFunc(func(context.Context) error { return errors.New("disk I/O error") })

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, ok, notConfigured, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"remote":"not_configured"`) || !strings.Contains(resp.Body.String(), `"redis":"disabled"`) {
		t.Fatalf("unexpected checks %s", resp.Body.String())
	}
	if resp.Header().Get(envHeader) != "dev" {
		t.Fatalf("missing env header")
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, down, ok, ok).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestSyncRun(t *testing.T) {
	syncer := &stubSyncer{result: syncengine.Result{Pushed: 2, Pulled: 1}, last: 150}

	resp := httptest.NewRecorder()
	SyncRun(syncer, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data syncResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Pushed != 2 || envelope.Data.Pulled != 1 || envelope.Data.LastSyncTime != 150 {
		t.Fatalf("unexpected sync payload %+v", envelope.Data)
	}

	syncer.err = pkgerrors.New(pkgerrors.CodeNotConfigured, "remote endpoint and api key are not configured")
	resp = httptest.NewRecorder()
	SyncRun(syncer, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if resp.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 got %d", resp.Code)
	}
}

type stubLive struct{ snap changes.Snapshot }

func (s stubLive) Snapshot() changes.Snapshot { return s.snap }

func TestLiveSnapshot(t *testing.T) {
	resp := httptest.NewRecorder()
	LiveSnapshot(stubLive{snap: changes.Snapshot{Live: true}}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/live", nil))
	if !strings.Contains(resp.Body.String(), `"live":true`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}
