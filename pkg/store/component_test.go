package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

func TestGetOrCreateComponent_CreatesWhenAbsent(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()

	comp, err := st.GetOrCreateComponent(ctx, models.Component{
		DistributorPartNumber: "MOUSER-1", ManufacturerPartNumber: "RC0805-10K",
	})
	require.NoError(t, err)
	assert.NotZero(t, comp.ID)
}

func TestGetOrCreateComponent_DedupsByDistributorPartNumber(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()

	first, err := st.GetOrCreateComponent(ctx, models.Component{
		DistributorPartNumber: "MOUSER-1", ManufacturerPartNumber: "RC0805-10K",
	})
	require.NoError(t, err)

	second, err := st.GetOrCreateComponent(ctx, models.Component{
		DistributorPartNumber: "MOUSER-1", ManufacturerPartNumber: "RC0805-10K", Description: "duplicate attempt",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Description, "the existing row must win, not the duplicate insert's fields")
}

func TestGetOrCreateComponent_DedupsByManufacturerPartNumberWhenDistributorPNDiffers(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()

	first, err := st.GetOrCreateComponent(ctx, models.Component{
		DistributorPartNumber: "MOUSER-1", ManufacturerPartNumber: "RC0805-10K",
	})
	require.NoError(t, err)

	second, err := st.GetOrCreateComponent(ctx, models.Component{
		DistributorPartNumber: "DIGIKEY-9", ManufacturerPartNumber: "RC0805-10K",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetComponentByMpn_NotFoundReturnsSentinel(t *testing.T) {
	st := NewTestStore(t)
	_, err := st.GetComponentByMpn(context.Background(), "no-such-mpn")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBomItemMatchAndPotentialMatch_DeleteThenWriteReRun(t *testing.T) {
	st := NewTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.CreateProject(ctx, &models.Project{ID: "proj-1", Status: models.ProjectQueued}))
	item := &models.BomItem{ProjectID: "proj-1", Qty: 1, Description: "resistor", Package: "0805"}
	require.NoError(t, st.CreateBomItem(ctx, item))

	require.NoError(t, st.CreateBomItemMatch(ctx, &models.BomItemMatch{BomItemID: item.ID, Status: string(models.MatchNoKeywordResults)}))
	require.NoError(t, st.CreatePotentialMatch(ctx, &models.PotentialBomMatch{
		BomItemID: item.ID, Rank: 1, ManufacturerPartNumber: "RC0805-10K", SelectionState: string(models.PotentialProposed),
	}))

	require.NoError(t, st.DeleteBomItemMatches(ctx, item.ID))
	require.NoError(t, st.DeletePotentialMatches(ctx, item.ID))
	require.NoError(t, st.CreateBomItemMatch(ctx, &models.BomItemMatch{BomItemID: item.ID, Status: string(models.MatchMatched)}))

	matches, err := st.GetPotentialMatches(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, matches, "re-run must clear stale potential matches, not append to them")
}
