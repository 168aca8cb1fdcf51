package models

import (
	"encoding/json"
	"strconv"
	"time"

	"redevdash/domain/pipeline"
)

// ProjectValues maps projects-table columns to their text values; nil is NULL
type ProjectValues map[string]*string

// Project is one active or retired row of the projects table
type Project struct {
	ID         int64
	ExcelRowID string
	Values     ProjectValues
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  string
	UpdatedBy  string
}

// Get returns a column value, "" for NULL or missing
func (p Project) Get(column string) string {
	if v, ok := p.Values[column]; ok && v != nil {
		return *v
	}
	return ""
}

// Name returns the project name, falling back to the codename
func (p Project) Name() string {
	if name := p.Get("project_name"); name != "" {
		return name
	}
	return p.Get("project_codename")
}

// MarshalJSON flattens the column values next to the row metadata.
// Numeric columns are emitted as numbers when they parse.
func (p Project) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Values)+7)
	for column, value := range p.Values {
		if value == nil {
			out[column] = nil
			continue
		}
		if def, ok := pipeline.LookupDBColumn(column); ok && def.Numeric {
			if n := pipeline.ParseNumber(*value); n.Valid {
				out[column] = n.Value
				continue
			}
		}
		out[column] = *value
	}
	out["id"] = p.ID
	out["excel_row_id"] = p.ExcelRowID
	out["is_active"] = p.IsActive
	out["created_at"] = p.CreatedAt
	out["updated_at"] = p.UpdatedAt
	out["created_by"] = p.CreatedBy
	out["updated_by"] = p.UpdatedBy
	return json.Marshal(out)
}

// RawRow converts the project into a pipeline row keyed by its primary key,
// with database columns relabelled to their spreadsheet headers
func (p Project) RawRow() pipeline.RawRow {
	cells := make(map[string]string, len(p.Values))
	for column, value := range p.Values {
		def, ok := pipeline.LookupDBColumn(column)
		if !ok || value == nil {
			continue
		}
		cells[def.Label] = *value
	}
	return pipeline.RawRow{Key: strconv.FormatInt(p.ID, 10), Cells: cells}
}

// ProjectFilter mirrors the dashboard list query parameters
type ProjectFilter struct {
	ISO         string `form:"iso" json:"iso"`
	ProcessType string `form:"process_type" json:"process_type"`
	PlantOwner  string `form:"plant_owner" json:"plant_owner"`
	Status      string `form:"status" json:"status"`
	Tech        string `form:"tech" json:"tech"`
	ProjectType string `form:"project_type" json:"project_type"`
	Limit       int    `form:"limit" json:"limit"`
	Offset      int    `form:"offset" json:"offset"`
	SortBy      string `form:"sort_by" json:"sort_by"`
	SortOrder   string `form:"sort_order" json:"sort_order"`
}

// Default page size and the upper bound accepted from callers
const (
	DefaultProjectLimit = 1000
	MaxProjectLimit     = 5000
)

// Normalize applies the default page and clamps bad values
func (f ProjectFilter) Normalize() ProjectFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultProjectLimit
	}
	if f.Limit > MaxProjectLimit {
		f.Limit = MaxProjectLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// CountEntry is one bucket of a grouped count
type CountEntry struct {
	Name  string `json:"name" db:"name"`
	Count int    `json:"count" db:"count"`
}

// RedevEntry groups projects by redevelopment technology
type RedevEntry struct {
	Tech          string   `json:"redev_tech" db:"redev_tech"`
	Count         int      `json:"count" db:"count"`
	TotalCapacity *float64 `json:"total_capacity" db:"total_capacity"`
}

// ScoreStats holds portfolio-wide averages computed by the database
type ScoreStats struct {
	AvgOverall    *float64 `json:"avg_overall" db:"avg_overall"`
	AvgThermal    *float64 `json:"avg_thermal" db:"avg_thermal"`
	AvgRedev      *float64 `json:"avg_redev" db:"avg_redev"`
	TotalMW       *float64 `json:"total_mw" db:"total_mw"`
	TotalProjects int      `json:"total_projects" db:"total_projects"`
}

// DashboardStats is the database-side summary of active projects
type DashboardStats struct {
	TotalProjects      int          `json:"total_projects"`
	ISODistribution    []CountEntry `json:"iso_distribution"`
	TechDistribution   []CountEntry `json:"tech_distribution"`
	StatusDistribution []CountEntry `json:"status_distribution"`
	OwnerDistribution  []CountEntry `json:"owner_distribution"`
	Scores             ScoreStats   `json:"score_stats"`
	RedevDistribution  []RedevEntry `json:"redev_distribution"`
}

// FilterOptions lists the distinct values offered by the dashboard dropdowns
type FilterOptions struct {
	ISOs         []string `json:"isos"`
	Owners       []string `json:"owners"`
	Techs        []string `json:"techs"`
	Statuses     []string `json:"statuses"`
	ProjectTypes []string `json:"project_types"`
	ProcessTypes []string `json:"process_types"`
}

// ConnectionStatus reports database reachability
type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Version   string    `json:"version,omitempty"`
	Error     string    `json:"error,omitempty"`
}
