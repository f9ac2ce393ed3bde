// Package ingestion turns an arbitrary client-supplied BOM payload into
// a queued Project: validate each row against the canonical schema,
// fall back to one LLM reformatting pass when rows don't validate
// as-is, synthesize a fallback row for anything still invalid, cap to
// the first 20 valid rows, and persist everything in one transaction.
// Grounded on original_source/api/projects.py's create_project.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/LastZactionHero/part-finder/pkg/llm"
	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

// maxBomItems is the per-project row cap, matching
// original_source/api/projects.py's truncation to 20.
const maxBomItems = 20

// Result is returned to the HTTP layer after a successful ingest.
type Result struct {
	ProjectID        string
	TruncationInfo   string
	ProcessingWarnings []string
}

// Ingestion turns raw BOM payloads into queued Projects.
type Ingestion struct {
	Store    *store.Store
	LLM      llm.Client
	validate *validator.Validate
}

// New builds an Ingestion over the given Store and LLM client.
func New(st *store.Store, llmClient llm.Client) *Ingestion {
	return &Ingestion{Store: st, LLM: llmClient, validate: validator.New()}
}

// Run validates, normalizes, truncates, and persists rawComponents (each
// element an arbitrary JSON object) as a new queued Project.
// projectName and projectDescription are optional caller-supplied
// metadata, persisted as-is.
func (ing *Ingestion) Run(ctx context.Context, projectName, projectDescription *string, rawComponents []json.RawMessage) (*Result, error) {
	rows, warnings := ing.validateRows(rawComponents)

	if anyInvalid(rows) {
		reformatted, ok := ing.tryReformat(ctx, rawComponents)
		if ok {
			rows, warnings = ing.validateRows(reformatted)
		}
	}

	finalRows := make([]models.RawBomRow, len(rows))
	for i, r := range rows {
		if r.valid {
			finalRows[i] = r.row
			continue
		}
		finalRows[i] = fallbackRow(r.raw)
	}

	truncationInfo := ""
	if len(finalRows) > maxBomItems {
		truncationInfo = fmt.Sprintf("BOM truncated from %d to %d", len(finalRows), maxBomItems)
		finalRows = finalRows[:maxBomItems]
	}

	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        projectName,
		Description: projectDescription,
		Status:      models.ProjectQueued,
	}

	err := ing.Store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateProject(ctx, project); err != nil {
			return err
		}
		for _, row := range finalRows {
			item := models.BomItem{
				ProjectID:   project.ID,
				Qty:         row.Qty,
				Description: row.Description,
				Package:     row.Package,
			}
			if row.PossibleMpn != "" || row.Notes != "" {
				notes := combineNotes(row.PossibleMpn, row.Notes)
				item.Notes = &notes
			}
			if err := tx.CreateBomItem(ctx, &item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingestion: persist project: %w", err)
	}

	return &Result{
		ProjectID:          project.ID,
		TruncationInfo:      truncationInfo,
		ProcessingWarnings: warnings,
	}, nil
}

// rowResult pairs a raw input row with its validated form, if any.
type rowResult struct {
	raw   json.RawMessage
	row   models.RawBomRow
	valid bool
}

func (ing *Ingestion) validateRows(raw []json.RawMessage) ([]rowResult, []string) {
	results := make([]rowResult, len(raw))
	var warnings []string
	for i, item := range raw {
		results[i].raw = item

		var row models.RawBomRow
		if err := json.Unmarshal(item, &row); err != nil {
			warnings = append(warnings, fmt.Sprintf("item at index %d is not a valid object: %v", i, err))
			continue
		}
		if err := ing.validate.Struct(row); err != nil {
			warnings = append(warnings, fmt.Sprintf("validation failed for component %d: %v", i, err))
			continue
		}
		results[i].row = row
		results[i].valid = true
	}
	return results, warnings
}

// tryReformat asks the LLM to normalize the raw row list into the
// canonical shape, returning the parsed array and whether it produced a
// usable JSON list. A failure here is swallowed: the caller falls back
// to per-row synthesis, matching the original's "fall back to direct
// processing" behavior.
func (ing *Ingestion) tryReformat(ctx context.Context, raw []json.RawMessage) ([]json.RawMessage, bool) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}

	resp, err := ing.LLM.NormalizeBomRows(ctx, string(payload))
	if err != nil {
		return nil, false
	}

	var reformatted []json.RawMessage
	if err := json.Unmarshal([]byte(resp), &reformatted); err != nil {
		return nil, false
	}
	return reformatted, true
}

func anyInvalid(rows []rowResult) bool {
	for _, r := range rows {
		if !r.valid {
			return true
		}
	}
	return false
}

// fallbackRow synthesizes a canonical row from one that failed
// validation, embedding the original data in the description so nothing
// is silently dropped.
func fallbackRow(raw json.RawMessage) models.RawBomRow {
	return models.RawBomRow{
		Qty:         1,
		Description: fmt.Sprintf("Original Data (validation failed): %s", string(raw)),
		Package:     "unknown",
	}
}

func combineNotes(possibleMpn, notes string) string {
	if possibleMpn == "" {
		return notes
	}
	if notes == "" {
		return possibleMpn
	}
	return possibleMpn + "; " + notes
}
