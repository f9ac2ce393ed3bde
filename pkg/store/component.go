package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

// isUniqueViolation detects a unique-constraint violation across both
// backends this service runs against: Postgres (pgx wraps it with SQLSTATE
// 23505) and SQLite (gorm-sqlite surfaces the driver's own message). The
// source's equivalent is SQLAlchemy's IntegrityError catch in
// get_or_create_component.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint")
}

// GetOrCreateComponent looks the Component up by distributor part number
// first, then by manufacturer part number, creating it if absent. Safe
// under concurrent callers: an insert race that loses to a unique
// constraint falls back to a fresh lookup instead of erroring.
func (s *Store) GetOrCreateComponent(ctx context.Context, c models.Component) (*models.Component, error) {
	existing, err := s.getComponentByDistributorPN(ctx, c.DistributorPartNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if c.ManufacturerPartNumber != "" {
		existing, err := s.GetComponentByMpn(ctx, c.ManufacturerPartNumber)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	created := c
	if insertErr := s.withCtx(ctx).Create(&created).Error; insertErr != nil {
		if isUniqueViolation(insertErr) {
			// Lost the race to a concurrent insert; the winning row is
			// now visible to a fresh lookup.
			return s.getComponentByDistributorPN(ctx, c.DistributorPartNumber)
		}
		return nil, fmt.Errorf("store: create component: %w", insertErr)
	}
	return &created, nil
}

func (s *Store) getComponentByDistributorPN(ctx context.Context, distributorPN string) (*models.Component, error) {
	var comp models.Component
	err := s.withCtx(ctx).First(&comp, "distributor_part_number = ?", distributorPN).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get component by distributor pn: %w", err)
	}
	return &comp, nil
}

// GetComponentByMpn looks a Component up by manufacturer part number.
func (s *Store) GetComponentByMpn(ctx context.Context, mpn string) (*models.Component, error) {
	var comp models.Component
	err := s.withCtx(ctx).First(&comp, "manufacturer_part_number = ?", mpn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get component by mpn: %w", err)
	}
	return &comp, nil
}

// CreateBomItemMatch inserts a BomItemMatch row. It does not commit on
// its own — callers that need delete-then-write atomicity (MatchPipeline
// re-runs) wrap this in Store.Transaction.
func (s *Store) CreateBomItemMatch(ctx context.Context, m *models.BomItemMatch) error {
	if err := s.withCtx(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("store: create bom item match: %w", err)
	}
	return nil
}

// DeleteBomItemMatches removes every existing match row for a BomItem,
// used by MatchPipeline before writing a fresh terminal status on
// re-run.
func (s *Store) DeleteBomItemMatches(ctx context.Context, bomItemID uint) error {
	if err := s.withCtx(ctx).Where("bom_item_id = ?", bomItemID).Delete(&models.BomItemMatch{}).Error; err != nil {
		return fmt.Errorf("store: delete bom item matches: %w", err)
	}
	return nil
}

// CreatePotentialMatch inserts one ranked alternative for a BomItem.
func (s *Store) CreatePotentialMatch(ctx context.Context, m *models.PotentialBomMatch) error {
	if err := s.withCtx(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("store: create potential match: %w", err)
	}
	return nil
}

// DeletePotentialMatches removes every existing potential-match row for
// a BomItem, used alongside DeleteBomItemMatches on re-run.
func (s *Store) DeletePotentialMatches(ctx context.Context, bomItemID uint) error {
	if err := s.withCtx(ctx).Where("bom_item_id = ?", bomItemID).Delete(&models.PotentialBomMatch{}).Error; err != nil {
		return fmt.Errorf("store: delete potential matches: %w", err)
	}
	return nil
}

// GetPotentialMatches returns a BomItem's ranked alternatives, ordered
// by rank.
func (s *Store) GetPotentialMatches(ctx context.Context, bomItemID uint) ([]models.PotentialBomMatch, error) {
	var matches []models.PotentialBomMatch
	if err := s.withCtx(ctx).
		Preload("Component").
		Where("bom_item_id = ?", bomItemID).
		Order("rank asc").
		Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("store: get potential matches: %w", err)
	}
	return matches, nil
}
