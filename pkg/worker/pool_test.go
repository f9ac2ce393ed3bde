package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LastZactionHero/part-finder/pkg/distributor"
	"github.com/LastZactionHero/part-finder/pkg/llm"
	"github.com/LastZactionHero/part-finder/pkg/match"
	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

type fakeDistributor struct{}

func (fakeDistributor) SearchByKeyword(ctx context.Context, keyword string, records int) ([]distributor.PartRecord, error) {
	return []distributor.PartRecord{{DistributorPartNumber: "MOUSER-" + keyword, ManufacturerPartNumber: "MPN-" + keyword}}, nil
}

func (fakeDistributor) SearchByMpn(ctx context.Context, mpn string) (*distributor.PartRecord, error) {
	return &distributor.PartRecord{DistributorPartNumber: "MOUSER-" + mpn, ManufacturerPartNumber: mpn}, nil
}

type fakeLLM struct{}

func (fakeLLM) GenerateSearchTerms(ctx context.Context, info llm.PartInfo) ([]string, error) {
	return []string{info.Description}, nil
}

func (fakeLLM) ChooseBestPart(ctx context.Context, info llm.PartInfo, projectDesc string, bom []llm.BomContextRow, candidates []llm.Candidate) (string, bool, error) {
	if len(candidates) == 0 {
		return "", false, nil
	}
	return candidates[0].ManufacturerPartNumber, true, nil
}

func (fakeLLM) NormalizeBomRows(ctx context.Context, rawRows string) (string, error) {
	return rawRows, nil
}

func TestProjectWorkerRun_FinishesAllItems(t *testing.T) {
	st := store.NewTestStore(t)
	ctx := context.Background()

	projectID := "proj-worker-1"
	require.NoError(t, st.CreateProject(ctx, &models.Project{ID: projectID, Status: models.ProjectProcessing}))
	for i := 0; i < 7; i++ {
		require.NoError(t, st.CreateBomItem(ctx, &models.BomItem{
			ProjectID:   projectID,
			Qty:         1,
			Description: "part",
			Package:     "0805",
		}))
	}

	pipeline := match.New(st, fakeDistributor{}, fakeLLM{})
	w := New(st, pipeline, 3)

	require.NoError(t, w.Run(ctx, projectID))

	project, err := st.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectFinished, project.Status)
	assert.NotNil(t, project.EndedAt)

	rows, err := st.GetFinishedProjectData(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	for _, row := range rows {
		require.NotNil(t, row.Match)
		assert.Equal(t, string(models.MatchMatched), row.Match.Status)
	}
}

func TestProjectWorkerRun_EmptyBomFinishesImmediately(t *testing.T) {
	st := store.NewTestStore(t)
	ctx := context.Background()

	projectID := "proj-worker-empty"
	require.NoError(t, st.CreateProject(ctx, &models.Project{ID: projectID, Status: models.ProjectProcessing}))

	pipeline := match.New(st, fakeDistributor{}, fakeLLM{})
	w := New(st, pipeline, 5)

	require.NoError(t, w.Run(ctx, projectID))

	project, err := st.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectFinished, project.Status)
}

func TestProjectWorkerRun_MissingProjectIsFatal(t *testing.T) {
	st := store.NewTestStore(t)
	pipeline := match.New(st, fakeDistributor{}, fakeLLM{})
	w := New(st, pipeline, 5)

	err := w.Run(context.Background(), "does-not-exist")
	assert.Error(t, err)
}

func TestProjectWorkerRun_FatalSetupFailurePromotesProjectToError(t *testing.T) {
	st := store.NewTestStore(t)
	ctx := context.Background()

	projectID := "proj-worker-setup-failure"
	require.NoError(t, st.CreateProject(ctx, &models.Project{ID: projectID, Status: models.ProjectProcessing}))

	pipeline := match.New(st, fakeDistributor{}, fakeLLM{})
	w := New(st, pipeline, 5)

	// Drop bom_items out from under the already-claimed project so
	// GetBomItems fails while the projects table (and so markError's
	// own status update) stays reachable, simulating a DB hiccup
	// mid-setup.
	sqlDB, err := st.SQLDB()
	require.NoError(t, err)
	_, err = sqlDB.Exec("DROP TABLE bom_items")
	require.NoError(t, err)

	err = w.Run(ctx, projectID)
	assert.Error(t, err)

	project, err := st.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectError, project.Status)
	assert.NotNil(t, project.EndedAt)
}
