package app

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"redevdash/domain/pipeline"
	"redevdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() pipeline.Batch {
	headers := []string{"Project Name", "ISO", "Process (P) or Bilateral (B)", "Legacy Nameplate Capacity (MW)", "Overall Project Score", "Thermal Operating Score", "Redevelopment Score"}
	return pipeline.Batch{
		Headers: headers,
		Rows: []pipeline.RawRow{
			{Key: "row-1", Cells: map[string]string{"Project Name": "Alpha", "ISO": "PJM", "Process (P) or Bilateral (B)": "P", "Legacy Nameplate Capacity (MW)": "500", "Overall Project Score": "4.2", "Thermal Operating Score": "3.5", "Redevelopment Score": "4"}},
			{Key: "row-2", Cells: map[string]string{"Project Name": "Bravo", "ISO": "ERCOT", "Process (P) or Bilateral (B)": "B", "Legacy Nameplate Capacity (MW)": "250", "Overall Project Score": "2.1"}},
			{Key: "row-3", Cells: map[string]string{"Project Name": "", "ISO": "PJM"}},
		},
	}
}

func TestDashboardService_View(t *testing.T) {
	source := &staticSource{batch: sampleBatch()}
	svc := NewDashboardService(source)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	view, err := svc.View(context.Background(), ViewRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalRows)
	assert.Len(t, view.Rows, 2)
	assert.Equal(t, "static", svc.SourceName())

	view, err = svc.View(context.Background(), ViewRequest{Criteria: pipeline.Criteria{Region: "PJM"}})
	require.NoError(t, err)
	assert.Equal(t, 2, view.FilteredRows)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "Alpha", view.Rows[0].Asset)
	assert.Equal(t, "row-1", view.Rows[0].SourceKey)
	assert.Equal(t, 2, source.loads)
}

func TestDashboardService_ViewSourceError(t *testing.T) {
	svc := NewDashboardService(&staticSource{err: stderrors.New("disk gone")})

	_, err := svc.View(context.Background(), ViewRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load rows from static")
}

func TestDashboardService_Analysis(t *testing.T) {
	svc := NewDashboardService(&staticSource{batch: sampleBatch()})

	analysis, err := svc.Analysis(context.Background(), "row-1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", analysis.ProjectName)
	assert.InDelta(t, 4.2, analysis.OverallScore, 1e-9)

	_, err = svc.Analysis(context.Background(), "row-99")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}
