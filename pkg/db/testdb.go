package db

import (
	"fmt"
	"testing"

	"github.com/angelmondragon/shipbridge/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewLocalTestDB creates a fresh in-memory SQLite database with the local
// schema applied.
func NewLocalTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDB(t, models.LocalModels()...)
}

// NewRemoteTestDB creates a fresh in-memory SQLite database shaped like the
// remote schema, so remote repositories can be exercised without Postgres.
func NewRemoteTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDB(t, models.RemoteModels()...)
}

func newTestDB(t *testing.T, schema ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("getting sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(schema...); err != nil {
		sqlDB.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return conn
}
