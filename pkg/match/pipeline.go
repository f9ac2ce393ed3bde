// Package match implements the per-BomItem matching state machine:
// search-term generation, distributor keyword search, LLM ranking, and
// final component resolution. Grounded line-for-line on
// original_source/core/processor.py's _process_single_bom_item.
package match

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LastZactionHero/part-finder/pkg/distributor"
	"github.com/LastZactionHero/part-finder/pkg/llm"
	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

// candidateCap bounds how many deduplicated keyword-search candidates are
// shown to the LLM evaluation prompt, per spec.md §4.5's "implementation
// defined cap, suggested >= 10".
const candidateCap = 10

// potentialMatchCap bounds how many non-chosen candidates are persisted
// as PotentialBomMatch rows, mirroring crud.py create_potential_bom_match's
// documented rank range of 1-5.
const potentialMatchCap = 5

// DistributorClient is the subset of *distributor.Client the pipeline
// depends on, letting tests substitute a hand-written fake instead of a
// mocking framework.
type DistributorClient interface {
	SearchByKeyword(ctx context.Context, keyword string, records int) ([]distributor.PartRecord, error)
	SearchByMpn(ctx context.Context, mpn string) (*distributor.PartRecord, error)
}

// Pipeline runs the state machine for one BomItem at a time. A Pipeline
// holds no per-run state and is safe to share across worker goroutines.
type Pipeline struct {
	Store       *store.Store
	Distributor DistributorClient
	LLM         llm.Client
}

// New builds a Pipeline over the given dependencies.
func New(st *store.Store, dist DistributorClient, llmClient llm.Client) *Pipeline {
	return &Pipeline{Store: st, Distributor: dist, LLM: llmClient}
}

// Run executes the matching state machine for one BomItem and persists
// exactly one terminal BomItemMatch, plus zero or more PotentialBomMatch
// rows for candidates the LLM considered but did not choose. Run never
// propagates an error to the caller: every stage failure is captured as
// a terminal status from the closed vocabulary and written to the Store.
// A panic anywhere in the run is recovered and written as
// worker_uncaught_exception, mirroring processor.py's outer
// try/except around _process_single_bom_item.
func (p *Pipeline) Run(ctx context.Context, item models.BomItem, projectName, projectDescription string, bom []llm.BomContextRow) (status models.MatchStatus) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("match pipeline panic", "bom_item_id", item.ID, "panic", r)
			status = p.finish(ctx, item.ID, nil, models.MatchWorkerUncaughtException, nil)
		}
	}()

	info := llm.PartInfo{
		Qty:         item.Qty,
		Description: item.Description,
		PossibleMpn: derefOrEmpty(item.Notes),
		Package:     item.Package,
		Notes:       derefOrEmpty(item.Notes),
	}

	searchTerms, err := p.LLM.GenerateSearchTerms(ctx, info)
	if err != nil {
		slog.Warn("search term generation failed", "bom_item_id", item.ID, "error", err)
		return p.finish(ctx, item.ID, nil, models.MatchLlmError, nil)
	}
	if len(searchTerms) == 0 {
		slog.Warn("no search terms generated", "bom_item_id", item.ID)
		return p.finish(ctx, item.ID, nil, models.MatchSearchTermFailed, nil)
	}

	records, err := p.collectCandidates(ctx, searchTerms)
	if err != nil {
		slog.Error("keyword search failed", "bom_item_id", item.ID, "error", err)
		return p.finish(ctx, item.ID, nil, classifyDistributorError(err), nil)
	}
	if len(records) == 0 {
		slog.Warn("no unique keyword results", "bom_item_id", item.ID)
		return p.finish(ctx, item.ID, nil, models.MatchNoKeywordResults, nil)
	}

	candidates := make([]llm.Candidate, len(records))
	for i, rec := range records {
		candidates[i] = candidateFromRecord(rec)
	}

	chosenMpn, found, err := p.LLM.ChooseBestPart(ctx, info, projectDescription, bom, candidates)
	if err != nil {
		slog.Warn("evaluation failed", "bom_item_id", item.ID, "error", err)
		return p.finish(ctx, item.ID, nil, models.MatchLlmError, nil)
	}
	if !found {
		slog.Warn("llm did not select an mpn", "bom_item_id", item.ID)
		return p.finish(ctx, item.ID, nil, models.MatchEvaluationFailed, nil)
	}

	potentials := buildPotentialMatches(records, chosenMpn, potentialMatchCap)

	componentID, matchStatus, err := p.resolveComponent(ctx, chosenMpn)
	if err != nil {
		slog.Warn("component resolution failed", "bom_item_id", item.ID, "mpn", chosenMpn, "error", err)
		return p.finish(ctx, item.ID, nil, matchStatus, potentials)
	}

	return p.finish(ctx, item.ID, componentID, models.MatchMatched, potentials)
}

// collectCandidates runs a keyword search per term, deduplicating by
// distributor part number while preserving first-seen order, per
// spec.md §4.5's tie-breaking rule.
func (p *Pipeline) collectCandidates(ctx context.Context, searchTerms []string) ([]distributor.PartRecord, error) {
	seen := make(map[string]struct{})
	var out []distributor.PartRecord
	for _, term := range searchTerms {
		results, err := p.Distributor.SearchByKeyword(ctx, term, candidateCap)
		if err != nil {
			return nil, err
		}
		for _, rec := range results {
			if _, ok := seen[rec.DistributorPartNumber]; ok {
				continue
			}
			seen[rec.DistributorPartNumber] = struct{}{}
			out = append(out, rec)
		}
	}
	if len(out) > candidateCap {
		out = out[:candidateCap]
	}
	return out, nil
}

// resolveComponent looks the chosen MPN up locally first, falling back
// to a live distributor lookup, per spec.md §4.5's chosen-MPN branch.
func (p *Pipeline) resolveComponent(ctx context.Context, mpn string) (*uint, models.MatchStatus, error) {
	existing, err := p.Store.GetComponentByMpn(ctx, mpn)
	if err == nil {
		return &existing.ID, models.MatchMatched, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, models.MatchComponentDbError, err
	}

	rec, err := p.Distributor.SearchByMpn(ctx, mpn)
	if err != nil {
		if errors.Is(err, distributor.ErrNotFound) {
			return nil, models.MatchMpnLookupFailed, err
		}
		return nil, models.MatchMouserError, err
	}

	created, err := p.Store.GetOrCreateComponent(ctx, models.Component{
		DistributorPartNumber:  rec.DistributorPartNumber,
		ManufacturerPartNumber: rec.ManufacturerPartNumber,
		ManufacturerName:       rec.ManufacturerName,
		Description:            rec.Description,
		DatasheetURL:           rec.DatasheetURL,
		UnitPrice:              rec.Price,
		Availability:           rec.Availability,
	})
	if err != nil {
		return nil, models.MatchComponentDbError, err
	}
	return &created.ID, models.MatchMatched, nil
}

// finish deletes any prior matches for this BomItem and writes the new
// terminal result in one transaction, implementing spec.md §4.5's
// delete-then-write re-run rule. A transaction failure is logged and
// reported as db_save_error without a further write attempt.
func (p *Pipeline) finish(ctx context.Context, bomItemID uint, componentID *uint, status models.MatchStatus, potentials []models.PotentialBomMatch) models.MatchStatus {
	err := p.Store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.DeleteBomItemMatches(ctx, bomItemID); err != nil {
			return err
		}
		if err := tx.DeletePotentialMatches(ctx, bomItemID); err != nil {
			return err
		}
		if err := tx.CreateBomItemMatch(ctx, &models.BomItemMatch{
			BomItemID:   bomItemID,
			ComponentID: componentID,
			Status:      string(status),
		}); err != nil {
			return err
		}
		for i := range potentials {
			potentials[i].BomItemID = bomItemID
			if err := tx.CreatePotentialMatch(ctx, &potentials[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("match pipeline: failed to persist result", "bom_item_id", bomItemID, "status", status, "error", err)
		return models.MatchDbSaveError
	}
	return status
}

// buildPotentialMatches ranks every candidate other than the chosen MPN,
// in first-seen order, capped at capN rows.
func buildPotentialMatches(records []distributor.PartRecord, chosenMpn string, capN int) []models.PotentialBomMatch {
	var out []models.PotentialBomMatch
	rank := 1
	for _, rec := range records {
		if rec.ManufacturerPartNumber == chosenMpn {
			continue
		}
		out = append(out, models.PotentialBomMatch{
			Rank:                   rank,
			ManufacturerPartNumber: rec.ManufacturerPartNumber,
			SelectionState:         string(models.PotentialProposed),
		})
		rank++
		if rank > capN {
			break
		}
	}
	return out
}

func candidateFromRecord(rec distributor.PartRecord) llm.Candidate {
	price := ""
	if rec.Price != nil {
		price = rec.Price.String()
	}
	return llm.Candidate{
		ManufacturerPartNumber: rec.ManufacturerPartNumber,
		ManufacturerName:       rec.ManufacturerName,
		DistributorPartNumber:  rec.DistributorPartNumber,
		Description:            rec.Description,
		Price:                  price,
		Availability:           rec.Availability,
		DatasheetURL:           rec.DatasheetURL,
	}
}

// classifyDistributorError maps a keyword-search failure onto the closed
// status vocabulary: a known distributor API failure becomes
// mouser_error, anything else becomes processing_error.
func classifyDistributorError(err error) models.MatchStatus {
	if errors.Is(err, distributor.ErrDistributorAPI) {
		return models.MatchMouserError
	}
	return models.MatchProcessingError
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
