package app

import (
	"context"
	stderrors "errors"
	"testing"

	"redevdash/domain/pipeline"
	"redevdash/internal"
	"redevdash/internal/errors"
	"redevdash/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRowValues(t *testing.T) {
	headers := []string{"Project Name", "ISO", "Legacy Nameplate Capacity (MW)", "Heat Rate (Btu/kWh)"}
	row := pipeline.RawRow{Key: "row-4", Cells: map[string]string{
		"Project Name":                   "Alpha",
		"ISO":                            " PJM ",
		"Legacy Nameplate Capacity (MW)": "1,200",
		"Heat Rate (Btu/kWh)":            "n/a",
	}}

	values := RowValues(row, pipeline.ResolveColumns(headers))
	assert.Equal(t, "row-4", *values["excel_row_id"])
	assert.Equal(t, "Alpha", *values["project_name"])
	assert.Equal(t, "PJM", *values["iso"])
	assert.Equal(t, "1200", *values["legacy_nameplate_capacity_mw"])
	assert.Nil(t, values["heat_rate_btu_kwh"])
	assert.Nil(t, values["plant_owner"])
}

func TestImportService_Import(t *testing.T) {
	repo := new(MockProjectRepository)
	svc := NewImportService(repo, internal.NewNopLogger())

	batch := pipeline.Batch{
		Headers: []string{"Project Name", "ISO"},
		Rows: []pipeline.RawRow{
			{Key: "row-1", Cells: map[string]string{"Project Name": "Alpha", "ISO": "PJM"}},
			{Key: "row-2", Cells: map[string]string{"Project Name": "Bravo", "ISO": "ERCOT"}},
			{Key: "row-3", Cells: map[string]string{"Project Name": " ", "ISO": "MISO"}},
			{Key: "row-4", Cells: map[string]string{"Project Name": "Delta", "ISO": "SPP"}},
		},
	}
	meta := models.RequestMeta{Actor: "import"}

	repo.On("GetByExcelRowID", mock.Anything, "row-1").Return(nil, errors.NotFound("project"))
	repo.On("Create", mock.Anything, mock.Anything, meta).Return(&models.Project{ID: 1}, nil)
	repo.On("GetByExcelRowID", mock.Anything, "row-2").Return(&models.Project{ID: 9, IsActive: true}, nil)
	repo.On("Update", mock.Anything, int64(9), mock.Anything, meta).Return(&models.Project{ID: 9}, nil)
	repo.On("GetByExcelRowID", mock.Anything, "row-4").Return(nil, stderrors.New("connection reset"))

	result, err := svc.Import(context.Background(), batch, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row-4")
	repo.AssertExpectations(t)
}

func TestImportService_ImportSkipsDeactivated(t *testing.T) {
	repo := new(MockProjectRepository)
	svc := NewImportService(repo, internal.NewNopLogger())

	batch := pipeline.Batch{
		Headers: []string{"Project Name"},
		Rows: []pipeline.RawRow{
			{Key: "row-2", Cells: map[string]string{"Project Name": "Retired"}},
		},
	}
	repo.On("GetByExcelRowID", mock.Anything, "row-2").Return(&models.Project{ID: 4, IsActive: false}, nil)

	result, err := svc.Import(context.Background(), batch, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestImportService_ImportCancelled(t *testing.T) {
	svc := NewImportService(new(MockProjectRepository), internal.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Import(ctx, pipeline.Batch{Rows: []pipeline.RawRow{{Key: "row-1"}}}, models.RequestMeta{})
	assert.ErrorIs(t, err, context.Canceled)
}
