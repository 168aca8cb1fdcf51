package app

import (
	"context"
	"fmt"
	"time"

	"redevdash/domain/pipeline"
	"redevdash/internal/errors"
	"redevdash/ports"
)

// DashboardService runs the aggregation pipeline over a row source
type DashboardService struct {
	source ports.RowSource
	now    func() time.Time
}

// NewDashboardService creates a dashboard service
func NewDashboardService(source ports.RowSource) *DashboardService {
	return &DashboardService{source: source, now: time.Now}
}

// ViewRequest carries the filter criteria and table controls of one render
type ViewRequest struct {
	Criteria pipeline.Criteria
	Sort     pipeline.SortSpec
	Search   pipeline.SearchSpec
}

// SourceName identifies where rows come from
func (s *DashboardService) SourceName() string {
	return s.source.Name()
}

// View loads the current batch and derives KPIs, distributions and table rows
func (s *DashboardService) View(ctx context.Context, req ViewRequest) (pipeline.View, error) {
	batch, err := s.source.Load(ctx)
	if err != nil {
		return pipeline.View{}, errors.Wrapf(err, "failed to load rows from %s", s.source.Name())
	}
	return pipeline.Derive(batch, req.Criteria, pipeline.Options{
		Now:    s.now(),
		Sort:   req.Sort,
		Search: req.Search,
	}), nil
}

// Analysis scores a single row identified by its durable key
func (s *DashboardService) Analysis(ctx context.Context, key string) (pipeline.Analysis, error) {
	batch, err := s.source.Load(ctx)
	if err != nil {
		return pipeline.Analysis{}, errors.Wrapf(err, "failed to load rows from %s", s.source.Name())
	}
	for _, row := range batch.Rows {
		if row.Key != key {
			continue
		}
		return AnalyzeRow(batch.Headers, row, s.now()), nil
	}
	return pipeline.Analysis{}, errors.NotFound(fmt.Sprintf("project %s", key))
}

// AnalyzeRow projects one raw row and scores its labelled detail. Rows
// without a name are scored from their raw cells.
func AnalyzeRow(headers []string, row pipeline.RawRow, now time.Time) pipeline.Analysis {
	if len(headers) == 0 {
		headers = pipeline.HeadersOf([]pipeline.RawRow{row})
	}
	cols := pipeline.ResolveColumns(headers)
	detail := row.Cells
	if projected := pipeline.Project([]pipeline.RawRow{row}, cols, pipeline.Options{Now: now}); len(projected) == 1 {
		detail = projected[0].Detail
	}
	return pipeline.Analyze(detail, now)
}
