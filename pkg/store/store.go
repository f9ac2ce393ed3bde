// Package store is the durable relational layer: projects, BOM line
// items, the shared component catalog, matches, potential matches, and
// the distributor response cache. It exposes typed CRUD operations, not
// raw query strings, following the repository idiom.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

// Store wraps a *gorm.DB connection and implements every persisted
// operation named by the matching pipeline, the queue runner, the
// ingestion pass, and the HTTP API.
type Store struct {
	db *gorm.DB
}

// New wraps an already-connected, already-migrated *gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for callers (e.g. health checks)
// that need it directly. Business logic should go through Store's typed
// methods instead.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// SQLDB returns the raw *sql.DB beneath the gorm connection, for
// pkg/database.Health's connection-pool stats.
func (s *Store) SQLDB() (*sql.DB, error) {
	return s.db.DB()
}

// withCtx scopes a query to the caller's context, following the
// repository idiom of db.WithContext(ctx)... on every call.
func (s *Store) withCtx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction runs fn inside a single database transaction, giving fn a
// *Store scoped to that transaction. Used by Ingestion (project + all
// BomItems in one write) and by MatchPipeline's delete-then-write re-run
// rule.
func (s *Store) Transaction(ctx context.Context, fn func(txStore *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// AutoMigrate creates or updates every table this service owns. Used by
// tests (sqlite) and as a fallback path; production schema changes are
// expected to flow through pkg/database's golang-migrate migrations.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(
		&models.Project{},
		&models.BomItem{},
		&models.Component{},
		&models.BomItemMatch{},
		&models.PotentialBomMatch{},
		&models.CacheEntry{},
	); err != nil {
		return fmt.Errorf("store: automigrate: %w", err)
	}
	return nil
}
