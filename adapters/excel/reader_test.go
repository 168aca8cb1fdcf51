package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"redevdash/domain/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}
	path := filepath.Join(t.TempDir(), "pipeline.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestDataReader_ReadsFirstSheetAndKeysRows(t *testing.T) {
	path := writeWorkbook(t, "Pipeline", [][]interface{}{
		{" Project Name ", "ISO", "Legacy Nameplate Capacity (MW)"},
		{"Alpha", "PJM", 500},
		{"", "", ""},
		{"Bravo", "NYISO"},
	})

	batch, err := NewDataReader(path, "").ReadBatch()
	require.NoError(t, err)

	assert.Equal(t, []string{"Project Name", "ISO", "Legacy Nameplate Capacity (MW)"}, batch.Headers)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "row-2", batch.Rows[0].Key)
	assert.Equal(t, "500", batch.Rows[0].Get("Legacy Nameplate Capacity (MW)"))
	assert.Equal(t, "row-4", batch.Rows[1].Key)
	assert.Equal(t, "", batch.Rows[1].Get("Legacy Nameplate Capacity (MW)"))
}

func TestDataReader_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{{"Project Name"}, {"Alpha"}})

	_, err := NewDataReader(path, "Missing").ReadBatch()
	assert.Error(t, err)

	batch, err := NewDataReader(path, "Sheet1").ReadBatch()
	require.NoError(t, err)
	assert.Len(t, batch.Rows, 1)
}

func TestDataReader_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.csv")
	content := "Project Name,ISO,Project Name\nAlpha,PJM,dup\nBravo\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	batch, err := NewDataReader(path, "").ReadBatch()
	require.NoError(t, err)

	assert.Equal(t, []string{"Project Name", "ISO"}, batch.Headers)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "Alpha", batch.Rows[0].Get("Project Name"))
	assert.Equal(t, "", batch.Rows[1].Get("ISO"))
	assert.Equal(t, "row-3", batch.Rows[1].Key)
}

func TestDataReader_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.xlsx"), "").ReadBatch()
	assert.Error(t, err)
}

func TestSource_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.csv")
	require.NoError(t, os.WriteFile(path, []byte("Project Name\nAlpha\n"), 0o644))

	src := NewSource(path, "")
	first, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Rows, 1)

	again, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(path, []byte("Project Name\nAlpha\nBravo\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	reloaded, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, reloaded.Rows, 2)
	assert.Contains(t, src.Name(), "pipeline.csv")
}

func TestSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource("unused.xlsx", "").Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExporter_BatchRoundTrip(t *testing.T) {
	batch := pipeline.Batch{
		Headers: []string{"Project Name", "ISO"},
		Rows: []pipeline.RawRow{
			{Key: "1", Cells: map[string]string{"Project Name": "Alpha", "ISO": "PJM"}},
			{Key: "2", Cells: map[string]string{"Project Name": "Bravo"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter().WriteBatch(&buf, batch))

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	read, err := NewDataReader(path, "").ReadBatch()
	require.NoError(t, err)
	assert.Equal(t, batch.Headers, read.Headers)
	require.Len(t, read.Rows, 2)
	assert.Equal(t, "PJM", read.Rows[0].Get("ISO"))
	assert.Equal(t, "row-3", read.Rows[1].Key)
}

func TestExporter_WriteView(t *testing.T) {
	view := pipeline.View{
		Rows: []pipeline.PipelineRow{{
			DisplayID:    1,
			Asset:        "Alpha",
			ISO:          "PJM",
			CapacityMW:   pipeline.Num(500),
			Transmission: []pipeline.TransmissionPoint{},
		}},
		Summary: pipeline.Summary{
			KPIs: []pipeline.KPI{{Label: "PROJECTS", Value: "1", Sub: "1P / 0B"}},
			ISO:  []pipeline.DistributionEntry{{Name: "PJM", Value: 0.5, CapacityMW: 500, Count: 1}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter().WriteView(&buf, view))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{pipelineSheet, summarySheet}, f.GetSheetList())
	name, err := f.GetCellValue(pipelineSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", name)
	mw, err := f.GetCellValue(pipelineSheet, "J2")
	require.NoError(t, err)
	assert.Equal(t, "500", mw)
	kpi, err := f.GetCellValue(summarySheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "PROJECTS", kpi)
}
