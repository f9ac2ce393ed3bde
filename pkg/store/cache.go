package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

// GetCachedResponse returns the newest cached distributor response for
// (term, searchType) younger than maxAge, or false on a miss. Any
// database error is logged and treated as a miss — cache read failures
// must never propagate, per spec.md §4.2, mirroring
// cache_manager.py's blanket except-and-log.
func (s *Store) GetCachedResponse(ctx context.Context, term string, searchType models.SearchType, maxAge time.Duration) (json.RawMessage, bool) {
	var entry models.CacheEntry
	cutoff := time.Now().Add(-maxAge)
	err := s.withCtx(ctx).
		Where("search_term = ? AND search_type = ? AND cached_at >= ?", term, string(searchType), cutoff).
		Order("cached_at desc").
		First(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Warn("distributor cache read failed, treating as miss",
				"search_term", term, "search_type", searchType, "error", err)
		}
		return nil, false
	}
	return entry.ResponseData.Raw(), true
}

// PutCachedResponse upserts the (term, searchType) cache row, the newest
// write winning per spec.md's uniqueness rule. Failures are logged and
// swallowed — a cache outage must degrade matching, not break it.
func (s *Store) PutCachedResponse(ctx context.Context, term string, searchType models.SearchType, payload json.RawMessage) {
	entry := models.CacheEntry{
		SearchTerm:   term,
		SearchType:   string(searchType),
		ResponseData: models.JSONBlob(payload),
		CachedAt:     time.Now().UTC(),
	}
	err := s.withCtx(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "search_term"}, {Name: "search_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"response_data", "cached_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		slog.Warn("distributor cache write failed", "search_term", term, "search_type", searchType, "error", err)
	}
}
