package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func readEmbedded(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(Embedded(), "*"+suffix)
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s migration", suffix)
	data, err := fs.ReadFile(Embedded(), matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, Validate(Embedded()))
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readEmbedded(t, "_create_orders.sql")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CONSTRAINT orders_uuid_key UNIQUE (uuid)",
		"attachments JSONB",
		"updated_at TIMESTAMPTZ NOT NULL",
		"CHECK (qty > 0)",
		"DROP TABLE IF EXISTS orders",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestShipmentsMigrationContainsConstraints(t *testing.T) {
	content := readEmbedded(t, "_create_shipments.sql")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS shipments",
		"CONSTRAINT shipments_uuid_key UNIQUE (uuid)",
		"order_uuids JSONB",
		"dispatch_date DATE",
		"DROP TABLE IF EXISTS shipments",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestNotifyTriggersUseChangeChannel(t *testing.T) {
	content := readEmbedded(t, "_change_notify_triggers.sql")
	assert.Contains(t, content, "pg_notify('shipbridge_changes', TG_TABLE_NAME)")
	assert.Contains(t, content, "ON orders")
	assert.Contains(t, content, "ON shipments")
}

func TestValidateRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
		want  string
	}{
		{
			name:  "bad name",
			files: fstest.MapFS{"create_orders.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}},
			want:  "invalid migration filename",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
				"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			},
			want: "duplicate migration version",
		},
		{
			name:  "missing down",
			files: fstest.MapFS{"20260101000000_a.sql": {Data: []byte("-- +goose Up\n")}},
			want:  "missing \"-- +goose Down\"",
		},
		{
			name:  "markers reversed",
			files: fstest.MapFS{"20260101000000_a.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")}},
			want:  "before",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.files)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	err := Validate(fstest.MapFS{
		"orders.sql":           {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260101000000_a.sql": {Data: []byte("-- +goose Up\n")},
		"README.md":            {Data: []byte("ignored")},
	})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Carrier Column!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_carrier_column.sql"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(filepath.Join(dir, "x"), "  ")
	assert.Error(t, err)
}

func TestCreateSQLMigrationRejectsVersionReuse(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

	path, err := createSQLMigrationAt(dir, "add_carrier", at)
	require.NoError(t, err)
	assert.Equal(t, "20261016093000_add_carrier.sql", filepath.Base(path))

	_, err = createSQLMigrationAt(dir, "add_vehicle", at)
	assert.ErrorContains(t, err, "already used")
}
