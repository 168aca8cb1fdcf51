package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"redevdash/app"
	"redevdash/domain/pipeline"
	"redevdash/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	batch := pipeline.Batch{
		Headers: []string{"Project Name", "Plant Owner", "ISO", "Legacy Nameplate Capacity (MW)", "Overall Project Score", "Legacy COD"},
		Rows: []pipeline.RawRow{
			{Key: "row-1", Cells: map[string]string{"Project Name": "Alpha", "Plant Owner": "Vistra", "ISO": "PJM", "Legacy Nameplate Capacity (MW)": "1,000", "Overall Project Score": "4.5", "Legacy COD": "1998"}},
			{Key: "row-2", Cells: map[string]string{"Project Name": "Bravo", "Plant Owner": "NRG", "ISO": "ERCOT", "Legacy Nameplate Capacity (MW)": "400", "Overall Project Score": "2.0", "Legacy COD": "2004"}},
		},
	}
	a, err := NewApp(app.NewDashboardService(staticSource{batch: batch}), internal.NewNopLogger())
	require.NoError(t, err)
	return a
}

func get(a *App, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestApp_Index(t *testing.T) {
	a := newTestApp(t)

	w := get(a, "/?region=PJM")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Alpha")
	assert.NotContains(t, body, "/projects/row-2/analysis")
	assert.Contains(t, body, "1 of 2 rows")
}

func TestApp_ViewJSON(t *testing.T) {
	a := newTestApp(t)

	w := get(a, "/api/view?sort=mw&direction=desc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var view pipeline.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "Alpha", view.Rows[0].Asset)
	assert.Equal(t, 1, view.Rows[0].DisplayID)
}

func TestApp_Analysis(t *testing.T) {
	a := newTestApp(t)

	w := get(a, "/projects/row-1/analysis")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1")
	assert.Contains(t, w.Body.String(), "Alpha")

	w = get(a, "/api/projects/row-2/analysis")
	require.Equal(t, http.StatusOK, w.Code)
	var analysis pipeline.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.Equal(t, "Bravo", analysis.ProjectName)

	w = get(a, "/api/projects/row-9/analysis")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApp_AnalysisRendersCellTextLiterally(t *testing.T) {
	batch := pipeline.Batch{
		Headers: []string{"Project Name", "ISO"},
		Rows: []pipeline.RawRow{
			{Key: "row-2", Cells: map[string]string{"Project Name": "[click](javascript:alert(document.cookie))", "ISO": "PJM"}},
			{Key: "row-3", Cells: map[string]string{"Project Name": "<script>alert(1)</script>", "ISO": "[x](javascript:void(0))"}},
		},
	}
	a, err := NewApp(app.NewDashboardService(staticSource{batch: batch}), internal.NewNopLogger())
	require.NoError(t, err)

	for _, key := range []string{"row-2", "row-3"} {
		w := get(a, "/projects/"+key+"/analysis")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.NotContains(t, body, `href="javascript:`)
		assert.NotContains(t, body, "<script>alert")
	}

	w := get(a, "/projects/row-2/analysis")
	assert.Contains(t, w.Body.String(), "click")
}

func TestRenderMarkdown_DropsUnsafeLinks(t *testing.T) {
	out := string(renderMarkdown("[click](javascript:alert(1)) and [docs](https://example.com)"))
	assert.NotContains(t, out, `href="javascript:`)
	assert.Contains(t, out, `href="https://example.com"`)
}

func TestApp_Export(t *testing.T) {
	a := newTestApp(t)

	w := get(a, "/export.xlsx?owner=NRG")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Pipeline")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bravo", rows[1][1])
}
