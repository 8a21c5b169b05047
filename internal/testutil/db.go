package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/DoyleJ11/league-backend/internal/db"
)

// NewTestDB creates a temporary SQLite database with the schema applied.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.Options{
		Driver:      db.DriverSQLite,
		DSN:         filepath.Join(t.TempDir(), "test.db"),
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(gdb)
	})

	return gdb
}
