// Package dbtest opens isolated, migrated SQLite databases for package
// tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inventory-backend/internal/database"
)

var seq atomic.Int64

// New returns an in-memory database behind a single connection.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:dbtest_%d?mode=memory&cache=shared&_foreign_keys=on", seq.Add(1))
	// one connection: a shared in-memory db must outlive the test body
	return open(t, dsn, 1)
}

// NewConcurrent returns a file-backed database with a pool of connections,
// so transactions from different goroutines really overlap. Writers wait on
// each other through the busy timeout instead of failing fast.
func NewConcurrent(t testing.TB, conns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=10000", path)
	return open(t, dsn, conns)
}

func open(t testing.TB, dsn string, conns int) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(dsn), zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}
