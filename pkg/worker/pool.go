// Package worker fans a project's BomItems out over a bounded pool of
// MatchPipeline invocations and joins on completion. Shaped on
// codeready-toolchain-tarsy/pkg/queue's fixed-goroutines-over-a-channel
// pool (pool.go, worker.go), simplified to spec.md §4.6's semantics: no
// claim-from-shared-queue step here — that is QueueRunner's job one
// level up — just fan-out-and-join over one project's line items.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LastZactionHero/part-finder/pkg/llm"
	"github.com/LastZactionHero/part-finder/pkg/match"
	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

// DefaultPoolWidth is the default number of concurrent MatchPipeline
// tasks run for one project, per spec.md §4.6.
const DefaultPoolWidth = 5

// ProjectWorker processes one project's BomItems through a shared
// MatchPipeline, bounded at PoolWidth concurrent tasks.
type ProjectWorker struct {
	Store     *store.Store
	Pipeline  *match.Pipeline
	PoolWidth int
}

// New builds a ProjectWorker. A non-positive poolWidth falls back to
// DefaultPoolWidth.
func New(st *store.Store, pipeline *match.Pipeline, poolWidth int) *ProjectWorker {
	if poolWidth <= 0 {
		poolWidth = DefaultPoolWidth
	}
	return &ProjectWorker{Store: st, Pipeline: pipeline, PoolWidth: poolWidth}
}

// Run loads projectID's BomItems, processes them through the matching
// pipeline at bounded concurrency, and finalizes the project as
// finished once every task has completed — regardless of individual
// outcomes. The only error path is a fatal setup failure: the project
// or its BomItems could not be loaded, or the finalizing status update
// itself failed. On any of these, the project is promoted to
// ProjectError before Run returns, mirroring
// process_project_from_db's outer except setting
// final_project_status = 'error' — a project claimed into processing
// must never be left stuck there. An empty BOM is not an error; it
// finishes immediately.
func (w *ProjectWorker) Run(ctx context.Context, projectID string) error {
	project, err := w.Store.GetProject(ctx, projectID)
	if err != nil {
		w.markError(ctx, projectID)
		return fmt.Errorf("worker: load project: %w", err)
	}

	items, err := w.Store.GetBomItems(ctx, projectID)
	if err != nil {
		w.markError(ctx, projectID)
		return fmt.Errorf("worker: load bom items: %w", err)
	}

	// Immutable snapshot of the full BOM, passed by value to every
	// pipeline invocation as LLM context. No worker mutates it or
	// publishes results back into it — spec.md §4.6's "no cross-item
	// shared mutable context" design note.
	bomSnapshot := make([]llm.BomContextRow, len(items))
	for i, item := range items {
		bomSnapshot[i] = llm.BomContextRow{
			Description: item.Description,
			Package:     item.Package,
			PossibleMpn: derefOrEmpty(item.Notes),
		}
	}

	w.processItems(ctx, projectID, items, bomSnapshot, derefOrEmpty(project.Name), derefOrEmpty(project.Description))

	if err := w.Store.UpdateProjectStatus(ctx, projectID, models.ProjectFinished); err != nil {
		w.markError(ctx, projectID)
		return fmt.Errorf("worker: finalize project status: %w", err)
	}
	return nil
}

// markError promotes projectID to ProjectError following a fatal setup
// failure. A failure here is logged and otherwise swallowed: Run has
// already failed and is about to return its own error to the caller.
func (w *ProjectWorker) markError(ctx context.Context, projectID string) {
	if err := w.Store.UpdateProjectStatus(ctx, projectID, models.ProjectError); err != nil {
		slog.Error("worker: failed to mark project as errored", "project_id", projectID, "error", err)
	}
}

func (w *ProjectWorker) processItems(ctx context.Context, projectID string, items []models.BomItem, bomSnapshot []llm.BomContextRow, projectName, projectDescription string) {
	width := w.PoolWidth
	if width > len(items) {
		width = len(items)
	}
	if width == 0 {
		return
	}

	work := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < width; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				item := items[idx]
				status := w.Pipeline.Run(ctx, item, projectName, projectDescription, bomSnapshot)
				slog.Info("bom item processed", "project_id", projectID, "bom_item_id", item.ID, "status", status)
			}
		}()
	}
	for i := range items {
		work <- i
	}
	close(work)
	wg.Wait()
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
