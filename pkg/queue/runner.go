// Package queue runs the single-consumer project queue loop: poll for
// the oldest queued project, claim it, hand it to a ProjectWorker, and
// repeat. Grounded directly on
// original_source/core/queue.py process_queue.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

// idlePoll is how long Runner sleeps after finding an empty queue,
// mirroring process_queue's time.sleep(1).
const idlePoll = 1 * time.Second

// errorBackoff is how long Runner sleeps after an unexpected loop
// error, mirroring process_queue's time.sleep(60).
const errorBackoff = 60 * time.Second

// ProjectProcessor is the subset of *worker.ProjectWorker Runner depends
// on, letting tests substitute a hand-written fake.
type ProjectProcessor interface {
	Run(ctx context.Context, projectID string) error
}

// Runner is the single active consumer of the project queue. Exactly
// one Runner is assumed to be active at a time (spec.md §4.7's
// single-runner assumption; multi-runner coordination is out of scope).
type Runner struct {
	Store  *store.Store
	Worker ProjectProcessor
}

// New builds a Runner over the given Store and ProjectProcessor.
func New(st *store.Store, w ProjectProcessor) *Runner {
	return &Runner{Store: st, Worker: w}
}

// Start runs the poll-claim-process loop until ctx is cancelled. Errors
// encountered claiming or dispatching a project are logged with a long
// backoff before the next poll; a project's own status is left to the
// ProjectWorker to finalize.
func (r *Runner) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := r.tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("queue runner: error in processing loop", "error", err)
			if !sleep(ctx, errorBackoff) {
				return
			}
		}
	}
}

// tick runs one iteration of the loop: find the next queued project (or
// idle-sleep if none), claim it, and hand it to the worker.
func (r *Runner) tick(ctx context.Context) error {
	project, err := r.Store.FindNextQueued(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if !sleep(ctx, idlePoll) {
				return context.Canceled
			}
			return nil
		}
		return err
	}

	slog.Info("queue runner: claiming project", "project_id", project.ID)
	if err := r.Store.UpdateProjectStatus(ctx, project.ID, models.ProjectProcessing); err != nil {
		return err
	}

	if err := r.Worker.Run(ctx, project.ID); err != nil {
		// The worker already promoted the project to ProjectError on a
		// fatal setup failure; the error is logged here and the loop
		// goes on to its next poll without the error backoff.
		slog.Error("queue runner: project processing setup failed", "project_id", project.ID, "error", err)
	}
	return nil
}

// sleep waits for d or ctx cancellation, returning false if ctx was
// cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
