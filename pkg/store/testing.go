package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestStore opens an in-memory SQLite database, auto-migrates the
// schema, and returns a ready-to-use Store. Grounded on
// acdtunes-spacetraders/internal/infrastructure/database/connection.go's
// NewTestConnection + AutoMigrate pattern.
func NewTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	s := New(db)
	require.NoError(t, s.AutoMigrate())
	return s
}
