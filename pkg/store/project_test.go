package store

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

var projectIDCounter int

func mustCreateProject(t *testing.T, s *Store, status models.ProjectStatus) *models.Project {
	t.Helper()
	projectIDCounter++
	p := &models.Project{ID: "proj-" + string(status) + "-" + strconv.Itoa(projectIDCounter), Status: status}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func TestUpdateProjectStatus_LegalTransitionsSucceedAndStampTimestamps(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, st, models.ProjectQueued)

	require.NoError(t, st.UpdateProjectStatus(ctx, p.ID, models.ProjectProcessing))
	reloaded, err := st.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectProcessing, reloaded.Status)
	assert.NotNil(t, reloaded.StartedAt)

	require.NoError(t, st.UpdateProjectStatus(ctx, p.ID, models.ProjectFinished))
	reloaded, err = st.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectFinished, reloaded.Status)
	assert.NotNil(t, reloaded.EndedAt)
}

func TestUpdateProjectStatus_IllegalTransitionRejected(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, st, models.ProjectQueued)

	err := st.UpdateProjectStatus(ctx, p.ID, models.ProjectFinished)
	assert.True(t, errors.Is(err, ErrIllegalTransition))
}

func TestUpdateProjectStatus_TerminalStatusHasNoLegalNextState(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, st, models.ProjectCancelled)

	err := st.UpdateProjectStatus(ctx, p.ID, models.ProjectQueued)
	assert.True(t, errors.Is(err, ErrIllegalTransition))
}

func TestUpdateProjectStatus_UnknownProjectReturnsNotFound(t *testing.T) {
	st := NewTestStore(t)
	err := st.UpdateProjectStatus(context.Background(), "does-not-exist", models.ProjectProcessing)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteProject_CancelsQueuedProject(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, st, models.ProjectQueued)

	require.NoError(t, st.DeleteProject(ctx, p.ID))
	reloaded, err := st.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCancelled, reloaded.Status)
}

func TestDeleteProject_ProcessingProjectRejected(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, st, models.ProjectProcessing)

	err := st.DeleteProject(ctx, p.ID)
	assert.True(t, errors.Is(err, ErrIllegalTransition))
}

func TestGetQueueInfo_ReportsPositionAmongQueuedProjects(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	first := mustCreateProject(t, st, models.ProjectQueued)
	second := &models.Project{ID: "proj-second", Status: models.ProjectQueued}
	require.NoError(t, st.CreateProject(ctx, second))

	pos, total, err := st.GetQueueInfo(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, pos)

	pos, total, err = st.GetQueueInfo(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, pos)
}

func TestGetQueueInfo_NonQueuedProjectReturnsZero(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	p := mustCreateProject(t, st, models.ProjectFinished)

	pos, total, err := st.GetQueueInfo(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 0, total)
}

func TestFindNextQueued_ReturnsOldestQueuedProject(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	first := mustCreateProject(t, st, models.ProjectQueued)
	require.NoError(t, st.CreateProject(ctx, &models.Project{ID: "proj-other", Status: models.ProjectQueued}))

	next, err := st.FindNextQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, next.ID)
}

func TestFindNextQueued_EmptyQueueReturnsNotFound(t *testing.T) {
	st := NewTestStore(t)
	_, err := st.FindNextQueued(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCountQueuedProjects_CountsOnlyQueuedStatus(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	mustCreateProject(t, st, models.ProjectQueued)
	mustCreateProject(t, st, models.ProjectFinished)

	count, err := st.CountQueuedProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTransaction_RollsBackAllWritesOnError(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	sentinel := errors.New("boom")

	err := st.Transaction(ctx, func(tx *Store) error {
		if err := tx.CreateProject(ctx, &models.Project{ID: "proj-rollback", Status: models.ProjectQueued}); err != nil {
			return err
		}
		return sentinel
	})
	assert.True(t, errors.Is(err, sentinel))

	_, err = st.GetProject(ctx, "proj-rollback")
	assert.True(t, errors.Is(err, ErrNotFound))
}
