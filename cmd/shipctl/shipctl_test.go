package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shipbridge/internal/app"
	"github.com/angelmondragon/shipbridge/pkg/config"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

func testBoot(t *testing.T) bootstrapFunc {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		App:   config.AppConfig{Env: "test"},
		Local: config.LocalConfig{Path: filepath.Join(dir, "local.db")},
		State: config.StateConfig{Path: filepath.Join(dir, "state.db")},
		Sync:  config.SyncConfig{DeletionPolicy: "soft", ChangeTransport: "postgres"},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return func(ctx context.Context) (*app.App, error) {
		return app.Bootstrap(ctx, cfg, logg)
	}
}

func run(t *testing.T, boot bootstrapFunc, stdin string, args ...string) (string, error) {
	t.Helper()
	s := &session{boot: boot}
	root := newRootCmd(s)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	require.NoError(t, s.close())
	return out.String(), err
}

func TestModeCommands(t *testing.T) {
	boot := testBoot(t)

	out, err := run(t, boot, "", "mode", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "offline")

	_, err = run(t, boot, "", "mode", "set", "online")
	require.NoError(t, err)

	out, err = run(t, boot, "", "mode", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "online")

	_, err = run(t, boot, "", "mode", "set", "hybrid")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestOrdersImportListExport(t *testing.T) {
	boot := testBoot(t)
	csvIn := "customer,city,material,qty\nAcme,Pune,Steel,4\nBeta,Nashik,Copper,2\n"

	out, err := run(t, boot, csvIn, "orders", "import")
	require.NoError(t, err)
	assert.Contains(t, out, "created 2, updated 0, failed 0")

	out, err = run(t, boot, "", "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Nashik")

	path := filepath.Join(t.TempDir(), "orders.csv")
	out, err = run(t, boot, "", "orders", "export", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 orders")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "uuid,customer,city"))
	assert.Contains(t, string(data), "Copper")
}

func TestRemoteAndSyncCommands(t *testing.T) {
	boot := testBoot(t)

	_, err := run(t, boot, "", "sync")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured), "got %v", err)

	out, err := run(t, boot, "", "remote", "set", "--url", "postgres://db.example.com/ship", "--api-key", "k")
	require.NoError(t, err)
	assert.Contains(t, out, "saved")

	out, err = run(t, boot, "", "remote", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")

	_, err = run(t, boot, "", "remote", "set", "--url", "postgres://db.example.com/ship")
	assert.Error(t, err)
}

func TestBundlesCheckClean(t *testing.T) {
	out, err := run(t, testBoot(t), "", "bundles", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "no exclusivity violations")
}
