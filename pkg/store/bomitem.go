package store

import (
	"context"
	"fmt"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

// CreateBomItem inserts one BomItem row for a Project.
func (s *Store) CreateBomItem(ctx context.Context, item *models.BomItem) error {
	if err := s.withCtx(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("store: create bom item: %w", err)
	}
	return nil
}
