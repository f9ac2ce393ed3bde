package ingestion

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LastZactionHero/part-finder/pkg/llm"
	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

type fakeLLM struct {
	normalized    string
	normalizedErr error
}

func (f *fakeLLM) GenerateSearchTerms(ctx context.Context, info llm.PartInfo) ([]string, error) {
	return nil, nil
}

func (f *fakeLLM) ChooseBestPart(ctx context.Context, info llm.PartInfo, projectDesc string, bom []llm.BomContextRow, candidates []llm.Candidate) (string, bool, error) {
	return "", false, nil
}

func (f *fakeLLM) NormalizeBomRows(ctx context.Context, rawRows string) (string, error) {
	return f.normalized, f.normalizedErr
}

func rawRows(t *testing.T, rows ...map[string]interface{}) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(rows))
	for i, r := range rows {
		b, err := json.Marshal(r)
		require.NoError(t, err)
		out[i] = b
	}
	return out
}

func strp(s string) *string { return &s }

func TestIngestionRun_AllRowsValidPersistsDirectly(t *testing.T) {
	st := store.NewTestStore(t)
	ing := New(st, &fakeLLM{})

	rows := rawRows(t,
		map[string]interface{}{"qty": 10, "description": "10k resistor", "package": "0805"},
		map[string]interface{}{"qty": 2, "description": "100nF cap", "package": "0603"},
	)

	result, err := ing.Run(context.Background(), strp("proj"), nil, rows)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ProjectID)
	assert.Empty(t, result.TruncationInfo)
	assert.Empty(t, result.ProcessingWarnings)

	items, err := st.GetBomItems(context.Background(), result.ProjectID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 10, items[0].Qty)
	assert.Equal(t, "10k resistor", items[0].Description)

	project, err := st.GetProject(context.Background(), result.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectQueued, project.Status)
}

func TestIngestionRun_InvalidRowTriggersReformat(t *testing.T) {
	st := store.NewTestStore(t)

	reformatted, err := json.Marshal([]map[string]interface{}{
		{"qty": 5, "description": "LED red", "package": "0805"},
	})
	require.NoError(t, err)

	ing := New(st, &fakeLLM{normalized: string(reformatted)})

	rows := rawRows(t, map[string]interface{}{"value": "5", "footprint": "0805"})

	result, err := ing.Run(context.Background(), nil, nil, rows)
	require.NoError(t, err)

	items, err := st.GetBomItems(context.Background(), result.ProjectID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Qty)
	assert.Equal(t, "LED red", items[0].Description)
}

func TestIngestionRun_StillInvalidAfterReformatSynthesizesFallback(t *testing.T) {
	st := store.NewTestStore(t)
	ing := New(st, &fakeLLM{normalizedErr: assertErr})

	rows := rawRows(t, map[string]interface{}{"foo": "bar"})

	result, err := ing.Run(context.Background(), nil, nil, rows)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ProcessingWarnings)

	items, err := st.GetBomItems(context.Background(), result.ProjectID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Qty)
	assert.Equal(t, "unknown", items[0].Package)
	assert.Contains(t, items[0].Description, "Original Data (validation failed):")
}

func TestIngestionRun_TruncatesToTwentyRows(t *testing.T) {
	st := store.NewTestStore(t)
	ing := New(st, &fakeLLM{})

	var rowMaps []map[string]interface{}
	for i := 0; i < 25; i++ {
		rowMaps = append(rowMaps, map[string]interface{}{"qty": 1, "description": "part", "package": "0805"})
	}
	rows := rawRows(t, rowMaps...)

	result, err := ing.Run(context.Background(), nil, nil, rows)
	require.NoError(t, err)
	assert.Equal(t, "BOM truncated from 25 to 20", result.TruncationInfo)

	items, err := st.GetBomItems(context.Background(), result.ProjectID)
	require.NoError(t, err)
	assert.Len(t, items, 20)
}

var assertErr = &fakeError{"normalize failed"}

type fakeError struct{ msg string }

func (e *fakeError) Error() string { return e.msg }
