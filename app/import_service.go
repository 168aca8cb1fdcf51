package app

import (
	"context"
	"strings"

	"redevdash/domain/pipeline"
	"redevdash/internal"
	"redevdash/internal/errors"
	"redevdash/models"
	"redevdash/ports"
)

// ImportResult counts what an import did
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportService copies spreadsheet rows into the projects table, keyed by spreadsheet row
type ImportService struct {
	repo ports.ProjectRepository
	log  *internal.Logger
}

// NewImportService creates an import service
func NewImportService(repo ports.ProjectRepository, logger *internal.Logger) *ImportService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ImportService{repo: repo, log: logger}
}

// Import upserts every named row of the batch. Rows that fail are reported
// and skipped; unparseable numbers are stored as NULL. Rows whose project was
// deactivated stay deactivated and count as skipped.
func (s *ImportService) Import(ctx context.Context, batch pipeline.Batch, meta models.RequestMeta) (*ImportResult, error) {
	headers := batch.Headers
	if len(headers) == 0 {
		headers = pipeline.HeadersOf(batch.Rows)
	}
	cols := pipeline.ResolveColumns(headers)
	if meta.Actor == "" {
		meta.Actor = "import"
	}

	result := &ImportResult{}
	for _, row := range batch.Rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		values := RowValues(row, cols)
		if blank(values["project_name"]) {
			result.Skipped++
			continue
		}

		existing, err := s.repo.GetByExcelRowID(ctx, row.Key)
		switch {
		case err == nil && !existing.IsActive:
			s.log.Debug("[ImportService] row %s belongs to deactivated project %d, skipping", row.Key, existing.ID)
			result.Skipped++
			continue
		case err == nil:
			_, err = s.repo.Update(ctx, existing.ID, values, meta)
			if err == nil {
				result.Updated++
			}
		case errors.HasCode(err, errors.CodeNotFound):
			_, err = s.repo.Create(ctx, values, meta)
			if err == nil {
				result.Created++
			}
		}
		if err != nil {
			s.log.Warn("[ImportService] row %s failed: %v", row.Key, err)
			result.Errors = append(result.Errors, row.Key+": "+err.Error())
			result.Skipped++
		}
	}

	s.log.Info("[ImportService] import finished: %d created, %d updated, %d skipped",
		result.Created, result.Updated, result.Skipped)
	return result, nil
}

// RowValues maps a spreadsheet row onto projects-table columns using the resolved headers
func RowValues(row pipeline.RawRow, cols pipeline.ColumnMap) models.ProjectValues {
	values := make(models.ProjectValues, len(cols)+1)
	key := row.Key
	values["excel_row_id"] = &key
	for _, def := range pipeline.Schema() {
		text := strings.TrimSpace(cols.Value(row, def.Field))
		if text == "" {
			values[def.DBColumn] = nil
			continue
		}
		if def.Numeric {
			n, ok, err := SanitizeNumeric(text)
			if err != nil || !ok {
				values[def.DBColumn] = nil
				continue
			}
			text = n
		}
		values[def.DBColumn] = &text
	}
	return values
}
