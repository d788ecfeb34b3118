// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"carparts/internal/config"
	"carparts/internal/db"
	"carparts/internal/model"
)

// NewDB opens a migrated SQLite database in a temp dir owned by t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	gormDB, err := db.Open(config.DatabaseConfig{Driver: "sqlite", SQLitePath: path, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, model.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}
