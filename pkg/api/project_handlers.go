package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

// createProjectRequest is the loosely typed ingestion body, per
// spec.md §4.8: arbitrary keys per component, coerced downstream.
type createProjectRequest struct {
	ProjectName        *string           `json:"project_name"`
	ProjectDescription *string           `json:"project_description"`
	Components         []json.RawMessage `json:"components"`
}

// createProjectResponse mirrors spec.md §6's POST /project shape.
type createProjectResponse struct {
	ProjectID          string   `json:"project_id"`
	TruncationInfo     string   `json:"truncation_info,omitempty"`
	ProcessingWarnings []string `json:"processing_warnings,omitempty"`
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.Ingestion.Run(c.Request.Context(), req.ProjectName, req.ProjectDescription, req.Components)
	if err != nil {
		slog.Error("ingestion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest bom"})
		return
	}

	c.JSON(http.StatusOK, createProjectResponse{
		ProjectID:          result.ProjectID,
		TruncationInfo:     result.TruncationInfo,
		ProcessingWarnings: result.ProcessingWarnings,
	})
}

func (s *Server) queueLength(c *gin.Context) {
	n, err := s.Store.CountQueuedProjects(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read queue length"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue_length": n})
}

func (s *Server) deleteProject(c *gin.Context) {
	id := c.Param("id")
	err := s.Store.DeleteProject(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	case errors.Is(err, store.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "project cannot be cancelled from its current status"})
	default:
		slog.Error("delete project failed", "project_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel project"})
	}
}

func (s *Server) getProject(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	project, err := s.Store.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		slog.Error("get project failed", "project_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read project"})
		return
	}

	switch project.Status {
	case models.ProjectQueued:
		s.renderQueued(c, project)
	case models.ProjectProcessing:
		s.renderProcessing(c, project)
	case models.ProjectFinished:
		s.renderFinished(c, project)
	case models.ProjectError:
		s.renderError(c, project)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	}
}

func (s *Server) renderQueued(c *gin.Context, project *models.Project) {
	ctx := c.Request.Context()
	items, err := s.Store.GetBomItems(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bom"})
		return
	}
	position, total, err := s.Store.GetQueueInfo(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load queue position"})
		return
	}

	components := make([]bomComponentResponse, len(items))
	for i, item := range items {
		components[i] = bomComponentFromItem(item)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         project.Status,
		"position":       position,
		"total_in_queue": total,
		"bom": gin.H{
			"components":          components,
			"project_name":        project.Name,
			"project_description": project.Description,
		},
	})
}

func (s *Server) renderProcessing(c *gin.Context, project *models.Project) {
	ctx := c.Request.Context()
	rows, err := s.Store.GetFinishedProjectData(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bom"})
		return
	}

	components := make([]matchedComponentResponse, len(rows))
	for i, row := range rows {
		components[i] = matchedComponentFromRow(row)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": project.Status,
		"bom": gin.H{
			"components":          components,
			"project_name":        project.Name,
			"project_description": project.Description,
		},
	})
}

func (s *Server) renderFinished(c *gin.Context, project *models.Project) {
	ctx := c.Request.Context()
	rows, err := s.Store.GetFinishedProjectData(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bom"})
		return
	}

	components := make([]matchedComponentResponse, len(rows))
	for i, row := range rows {
		resp := matchedComponentFromRow(row)
		resp.PotentialMatches = s.renderPotentials(ctx, row.Item.ID)
		components[i] = resp
	}

	c.JSON(http.StatusOK, gin.H{
		"status": project.Status,
		"bom": gin.H{
			"components":          components,
			"project_name":        project.Name,
			"project_description": project.Description,
		},
		"results": gin.H{
			"start_time": project.StartedAt,
			"end_time":   project.EndedAt,
			"status":     project.Status,
		},
	})
}

func (s *Server) renderError(c *gin.Context, project *models.Project) {
	ctx := c.Request.Context()
	items, err := s.Store.GetBomItems(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bom"})
		return
	}

	components := make([]bomComponentResponse, len(items))
	for i, item := range items {
		components[i] = bomComponentFromItem(item)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": project.Status,
		"bom": gin.H{
			"components": components,
		},
	})
}

// renderPotentials loads a BomItem's ranked alternatives and, for any
// lacking a linked Component, attempts a best-effort distributor lookup
// to fill in display fields inline. The lookup never persists a new
// match — grounded on original_source/api/projects.py get_project's
// backfill block, simplified per SPEC_FULL.md's design note to a
// read-only, non-blocking convenience rather than a write-back.
func (s *Server) renderPotentials(ctx context.Context, bomItemID uint) []potentialMatchResponse {
	potentials, err := s.Store.GetPotentialMatches(ctx, bomItemID)
	if err != nil {
		slog.Warn("failed to load potential matches", "bom_item_id", bomItemID, "error", err)
		return nil
	}

	out := make([]potentialMatchResponse, len(potentials))
	for i, p := range potentials {
		resp := potentialMatchResponse{
			Rank:                   p.Rank,
			ManufacturerPartNumber: p.ManufacturerPartNumber,
			Reason:                 p.Reason,
			SelectionState:         p.SelectionState,
		}
		if p.Component != nil {
			resp.DistributorPartNumber = p.Component.DistributorPartNumber
			resp.ManufacturerName = p.Component.ManufacturerName
			resp.DistributorDescription = p.Component.Description
			resp.DatasheetURL = p.Component.DatasheetURL
			resp.Availability = p.Component.Availability
			resp.Price = decimalToFloat(p.Component.UnitPrice)
		} else if s.Distributor != nil {
			s.backfillPotential(ctx, p.ManufacturerPartNumber, &resp)
		}
		out[i] = resp
	}
	return out
}

func (s *Server) backfillPotential(ctx context.Context, mpn string, resp *potentialMatchResponse) {
	bctx, cancel := context.WithTimeout(ctx, backfillTimeout)
	defer cancel()

	rec, err := s.Distributor.SearchByMpn(bctx, mpn)
	if err != nil {
		slog.Warn("potential match backfill failed", "mpn", mpn, "error", err)
		return
	}

	resp.DistributorPartNumber = rec.DistributorPartNumber
	resp.ManufacturerName = rec.ManufacturerName
	resp.DistributorDescription = rec.Description
	resp.DatasheetURL = rec.DatasheetURL
	resp.Availability = rec.Availability
	if rec.Price != nil {
		f, _ := rec.Price.Float64()
		resp.Price = &f
	}
}
