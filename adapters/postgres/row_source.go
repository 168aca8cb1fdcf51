package postgres

import (
	"context"

	"redevdash/domain/pipeline"
	"redevdash/models"
	"redevdash/ports"
)

// ProjectRowSource feeds active database projects into the aggregation pipeline
type ProjectRowSource struct {
	repo ports.ProjectRepository
}

var _ ports.RowSource = (*ProjectRowSource)(nil)

// NewProjectRowSource creates a row source over a project repository
func NewProjectRowSource(repo ports.ProjectRepository) *ProjectRowSource {
	return &ProjectRowSource{repo: repo}
}

// Name identifies the source
func (s *ProjectRowSource) Name() string {
	return "postgres:projects"
}

// Load reads every active project in id order and relabels its columns with
// the spreadsheet headers
func (s *ProjectRowSource) Load(ctx context.Context) (pipeline.Batch, error) {
	projects, err := s.repo.List(ctx, models.ProjectFilter{
		SortBy: "id",
		Limit:  models.MaxProjectLimit,
	})
	if err != nil {
		return pipeline.Batch{}, err
	}
	return ProjectsToBatch(projects), nil
}

// ProjectsToBatch converts projects into a pipeline batch with the full canonical header list
func ProjectsToBatch(projects []models.Project) pipeline.Batch {
	schema := pipeline.Schema()
	headers := make([]string, len(schema))
	for i, def := range schema {
		headers[i] = def.Label
	}
	rows := make([]pipeline.RawRow, len(projects))
	for i, p := range projects {
		rows[i] = p.RawRow()
	}
	return pipeline.Batch{Headers: headers, Rows: rows}
}
