package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

// validTransitions is a direct translation of the source's
// valid_transitions table: the legal next-states for each current
// Project status. Any transition not present here is rejected.
var validTransitions = map[models.ProjectStatus][]models.ProjectStatus{
	models.ProjectQueued:     {models.ProjectProcessing, models.ProjectCancelled},
	models.ProjectProcessing: {models.ProjectFinished, models.ProjectError, models.ProjectCancelled},
	models.ProjectFinished:   {models.ProjectCancelled},
	models.ProjectError:      {models.ProjectCancelled},
	models.ProjectCancelled:  {},
}

func isLegalTransition(from, to models.ProjectStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CreateProject inserts a new Project row, status defaulted to queued by
// the caller (Ingestion always passes ProjectQueued).
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	if err := s.withCtx(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("store: create project: %w", err)
	}
	return nil
}

// GetProject loads a Project by its opaque identifier.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.withCtx(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get project: %w", err)
	}
	return &p, nil
}

// GetBomItems returns a Project's BomItems in insertion order.
func (s *Store) GetBomItems(ctx context.Context, projectID string) ([]models.BomItem, error) {
	var items []models.BomItem
	if err := s.withCtx(ctx).
		Where("project_id = ?", projectID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("store: get bom items: %w", err)
	}
	return items, nil
}

// GetQueueInfo returns the 1-based position of projectID among all
// queued projects (oldest first) and the total queued count. Returns
// (0, 0) if the project is absent or not currently queued.
func (s *Store) GetQueueInfo(ctx context.Context, projectID string) (position int, total int, err error) {
	var project models.Project
	if err := s.withCtx(ctx).First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("store: get queue info: %w", err)
	}
	if project.Status != models.ProjectQueued {
		return 0, 0, nil
	}

	var total64 int64
	if err := s.withCtx(ctx).Model(&models.Project{}).
		Where("status = ?", models.ProjectQueued).
		Count(&total64).Error; err != nil {
		return 0, 0, fmt.Errorf("store: count queued: %w", err)
	}

	var ahead int64
	if err := s.withCtx(ctx).Model(&models.Project{}).
		Where("status = ? AND created_at <= ?", models.ProjectQueued, project.CreatedAt).
		Count(&ahead).Error; err != nil {
		return 0, 0, fmt.Errorf("store: count ahead: %w", err)
	}

	return int(ahead), int(total64), nil
}

// CountQueuedProjects returns the number of projects currently queued.
func (s *Store) CountQueuedProjects(ctx context.Context) (int, error) {
	var total int64
	if err := s.withCtx(ctx).Model(&models.Project{}).
		Where("status = ?", models.ProjectQueued).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("store: count queued projects: %w", err)
	}
	return int(total), nil
}

// FindNextQueued returns the oldest queued Project, or ErrNotFound if
// none is waiting.
func (s *Store) FindNextQueued(ctx context.Context) (*models.Project, error) {
	var p models.Project
	err := s.withCtx(ctx).
		Where("status = ?", models.ProjectQueued).
		Order("created_at asc").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: find next queued: %w", err)
	}
	return &p, nil
}

// UpdateProjectStatus transitions a Project's status, stamping
// start/end timestamps as appropriate, inside one transaction. Rejects
// any transition absent from validTransitions with ErrIllegalTransition.
func (s *Store) UpdateProjectStatus(ctx context.Context, id string, newStatus models.ProjectStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("store: update project status: load: %w", err)
		}

		if !isLegalTransition(p.Status, newStatus) {
			return ErrIllegalTransition
		}

		updates := map[string]interface{}{"status": newStatus}
		now := time.Now().UTC()
		switch newStatus {
		case models.ProjectProcessing:
			updates["started_at"] = now
		case models.ProjectFinished, models.ProjectError:
			updates["ended_at"] = now
		}

		if err := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("store: update project status: write: %w", err)
		}
		return nil
	})
}

// DeleteProject cancels a Project if it is queued or errored (spec.md's
// cancellation is a soft transition, not a physical delete — a project
// in `processing` or already `finished`/`cancelled` cannot be deleted
// via this path).
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != models.ProjectQueued && p.Status != models.ProjectError {
		return ErrIllegalTransition
	}
	return s.UpdateProjectStatus(ctx, id, models.ProjectCancelled)
}
