package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"redevdash/domain/pipeline"
	"redevdash/internal"
	"redevdash/internal/errors"
	"redevdash/models"
	"redevdash/ports"
)

// columns the API never writes; computed or managed by the repository
var readOnlyProjectFields = map[string]bool{
	"id": true, "mw": true, "hr": true, "cf": true, "mkt": true, "zone": true,
	"is_active": true, "created_at": true, "updated_at": true, "created_by": true, "updated_by": true,
}

// ProjectPage is one page of the project list
type ProjectPage struct {
	Projects []models.Project `json:"projects"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ProjectService validates project input and fronts the repository
type ProjectService struct {
	repo ports.ProjectRepository
	log  *internal.Logger
	now  func() time.Time
}

// NewProjectService creates a project service
func NewProjectService(repo ports.ProjectRepository, logger *internal.Logger) *ProjectService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ProjectService{repo: repo, log: logger, now: time.Now}
}

// List returns a page of active projects and the total matching count
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) (*ProjectPage, error) {
	filter = filter.Normalize()
	projects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list projects")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count projects")
	}
	return &ProjectPage{Projects: projects, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Get returns one active project
func (s *ProjectService) Get(ctx context.Context, id int64) (*models.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByName finds an active project by name or codename
func (s *ProjectService) GetByName(ctx context.Context, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ValidationError("name is required")
	}
	return s.repo.GetByName(ctx, name)
}

// Create validates and inserts a project
func (s *ProjectService) Create(ctx context.Context, input map[string]interface{}, meta models.RequestMeta) (*models.Project, error) {
	values, err := SanitizeProjectInput(input)
	if err != nil {
		return nil, err
	}
	if blank(values["project_name"]) && blank(values["project_codename"]) {
		return nil, errors.ValidationError("project_name or project_codename is required")
	}
	project, err := s.repo.Create(ctx, values, meta)
	if err != nil {
		return nil, err
	}
	s.log.Info("[ProjectService] project %d created by %s", project.ID, meta.Actor)
	return project, nil
}

// Update validates and applies a partial update
func (s *ProjectService) Update(ctx context.Context, id int64, input map[string]interface{}, meta models.RequestMeta) (*models.Project, error) {
	values, err := SanitizeProjectInput(input)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errors.ValidationError("no project fields supplied")
	}
	return s.repo.Update(ctx, id, values, meta)
}

// Delete retires a project
func (s *ProjectService) Delete(ctx context.Context, id int64, meta models.RequestMeta) (*models.Project, error) {
	project, err := s.repo.SoftDelete(ctx, id, meta)
	if err != nil {
		return nil, err
	}
	s.log.Info("[ProjectService] project %d deactivated by %s", id, meta.Actor)
	return project, nil
}

// Stats returns the database-side dashboard statistics
func (s *ProjectService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	return s.repo.DashboardStats(ctx)
}

// FilterOptions returns distinct dropdown values
func (s *ProjectService) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	return s.repo.FilterOptions(ctx)
}

// Health reports database connectivity
func (s *ProjectService) Health(ctx context.Context) models.ConnectionStatus {
	status := s.repo.Ping(ctx)
	if !status.Connected {
		s.log.Warn("[ProjectService] database unreachable: %s", status.Error)
	}
	return status
}

// Analysis scores a stored project
func (s *ProjectService) Analysis(ctx context.Context, id int64) (pipeline.Analysis, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return pipeline.Analysis{}, err
	}
	return AnalyzeRow(nil, project.RawRow(), s.now()), nil
}

// SanitizeProjectInput turns a decoded JSON body into column values. Keys are
// database column names; read-only keys are ignored and unknown keys rejected.
func SanitizeProjectInput(input map[string]interface{}) (models.ProjectValues, error) {
	values := make(models.ProjectValues, len(input))
	for key, raw := range input {
		column := strings.TrimSpace(key)
		if readOnlyProjectFields[column] {
			continue
		}
		def, known := pipeline.LookupDBColumn(column)
		if !known && column != "excel_row_id" {
			return nil, errors.InvalidInput(fmt.Sprintf("unknown project field %q", key))
		}

		text, present, err := inputText(raw)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("field %q: %v", key, err))
		}
		if !present {
			values[column] = nil
			continue
		}
		if known && def.Numeric {
			n, ok, err := SanitizeNumeric(text)
			if err != nil {
				return nil, errors.ValidationError(fmt.Sprintf("%s must be a number", def.Label))
			}
			if !ok {
				values[column] = nil
				continue
			}
			text = n
		}
		values[column] = &text
	}
	return values, nil
}

// SanitizeNumeric strips thousands separators and whitespace. Blank input is
// absent; anything else must parse as a finite number.
func SanitizeNumeric(raw string) (string, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return "", false, nil
	}
	n := pipeline.ParseNumber(raw)
	if !n.Valid {
		return "", false, fmt.Errorf("not a number: %q", raw)
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64), true, nil
}

func inputText(raw interface{}) (string, bool, error) {
	switch v := raw.(type) {
	case nil:
		return "", false, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false, nil
		}
		return strings.TrimSpace(v), true, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	case json.Number:
		return v.String(), true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			text, ok, err := inputText(item)
			if err != nil {
				return "", false, err
			}
			if ok {
				parts = append(parts, text)
			}
		}
		if len(parts) == 0 {
			return "", false, nil
		}
		return strings.Join(parts, ", "), true, nil
	default:
		return "", false, fmt.Errorf("unsupported value type %T", raw)
	}
}

func blank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}
