package store

import (
	"context"
	"fmt"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

// FinishedRow is one (BomItem, BomItemMatch?, Component?) triple,
// mirroring crud.py's get_finished_project_data outer join.
type FinishedRow struct {
	Item      models.BomItem
	Match     *models.BomItemMatch
	Component *models.Component
}

// GetFinishedProjectData loads every BomItem for a project alongside its
// most recent match (if any) and that match's Component (if any),
// preserving BomItem insertion order. Used by the API's processing and
// finished response branches.
func (s *Store) GetFinishedProjectData(ctx context.Context, projectID string) ([]FinishedRow, error) {
	items, err := s.GetBomItems(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("store: get finished project data: %w", err)
	}

	rows := make([]FinishedRow, 0, len(items))
	for _, item := range items {
		row := FinishedRow{Item: item}

		var match models.BomItemMatch
		err := s.withCtx(ctx).
			Where("bom_item_id = ?", item.ID).
			Order("created_at desc").
			First(&match).Error
		if err == nil {
			row.Match = &match
			if match.ComponentID != nil {
				var comp models.Component
				if cerr := s.withCtx(ctx).First(&comp, "id = ?", *match.ComponentID).Error; cerr == nil {
					row.Component = &comp
				}
			}
		}

		rows = append(rows, row)
	}
	return rows, nil
}
