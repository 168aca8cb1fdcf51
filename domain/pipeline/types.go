package pipeline

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// RawRow is one spreadsheet or database record keyed by column label
type RawRow struct {
	Key   string            `json:"key"`   // Durable identity: "row-N" for sheets, primary key for the database
	Cells map[string]string `json:"cells"` // Column label -> raw cell text, blanks are ""
}

// Get returns the raw cell value for a column, or "" when the column is missing
func (r RawRow) Get(column string) string {
	if r.Cells == nil || column == "" {
		return ""
	}
	return r.Cells[column]
}

// RawRowFromValues builds a RawRow from loosely typed values (numbers, strings, nil)
func RawRowFromValues(key string, values map[string]interface{}) RawRow {
	cells := make(map[string]string, len(values))
	for column, value := range values {
		cells[column] = cellText(value)
	}
	return RawRow{Key: key, Cells: cells}
}

func cellText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Batch is the header list plus rows for one pipeline pass
type Batch struct {
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"rows"`
}

// HeadersOf collects the distinct column labels used by rows, sorted
func HeadersOf(rows []RawRow) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, row := range rows {
		for column := range row.Cells {
			if !seen[column] {
				seen[column] = true
				headers = append(headers, column)
			}
		}
	}
	sort.Strings(headers)
	return headers
}

// Number is a normalized numeric cell. Absent values are never zero.
type Number struct {
	Value float64
	Valid bool
}

// Num wraps a present value
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Or returns the value, or fallback when absent
func (n Number) Or(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Value
}

// NonNegative drops values below zero
func (n Number) NonNegative() Number {
	if !n.Valid || n.Value < 0 {
		return Number{}
	}
	return n
}

// Positive drops values that are zero or below
func (n Number) Positive() Number {
	if !n.Valid || n.Value <= 0 {
		return Number{}
	}
	return n
}

// MarshalJSON encodes absent values as null
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts null or a number
func (n *Number) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*n = Number{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Num(v)
	return nil
}

// KPI is one dashboard tile
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Sub   string `json:"sub,omitempty"`
	Class string `json:"class,omitempty"`
}

// DistributionEntry is one bucket of a grouped distribution.
// Value is the primary aggregate: GW for capacity groupings, member count otherwise.
type DistributionEntry struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	CapacityMW float64 `json:"capacity_mw"`
	Count      int     `json:"count"`
}

// CounterpartyEntry aggregates projects by owner
type CounterpartyEntry struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	CapacityMW float64 `json:"capacity_mw"`
	CapacityGW float64 `json:"capacity_gw"`
	AvgOverall float64 `json:"avg_overall"`
}

// ProjectsLabel renders the member count the way the dashboard shows it
func (c CounterpartyEntry) ProjectsLabel() string {
	if c.Count == 1 {
		return "1 project"
	}
	return strconv.Itoa(c.Count) + " projects"
}

// TransmissionPoint is one point of interconnection decoded from the transmission cell
type TransmissionPoint struct {
	Voltage        string `json:"voltage"`
	InjectionMW    Number `json:"injection_mw"`
	WithdrawalMW   Number `json:"withdrawal_mw"`
	Constraints    string `json:"constraints"` // "-" means none
	ExcessCapacity bool   `json:"excess_capacity"`
}

// PipelineRow is the projected view model for one project
type PipelineRow struct {
	DisplayID int    `json:"id"`         // Position in the current view, regenerated on every pass
	SourceKey string `json:"source_key"` // Durable identity of the underlying record

	Asset       string   `json:"asset"`
	Codename    string   `json:"codename,omitempty"`
	Owner       string   `json:"owner"`
	Location    string   `json:"location"`
	ISO         string   `json:"mkt"`
	Zone        string   `json:"zone"`
	Tech        string   `json:"tech"`
	Fuel        string   `json:"fuel,omitempty"`
	Status      string   `json:"status"`
	ProcessType string   `json:"process_type,omitempty"`
	ProjectType []string `json:"project_type"`
	Contact     string   `json:"contact,omitempty"`

	HeatRate          Number `json:"hr"`
	CapacityMW        Number `json:"mw"`
	CapacityFactor    string `json:"cf"`
	CapacityFactorPct Number `json:"cf_pct"`
	COD               Number `json:"cod"`

	Overall              Number `json:"overall"`
	Thermal              Number `json:"thermal"`
	Redev                Number `json:"redev"`
	TransactabilityScore Number `json:"transactability_score"`
	Transactability      string `json:"transactability,omitempty"`

	RedevTier        string   `json:"redev_tier,omitempty"`
	RedevBaseCase    string   `json:"redev_base_case,omitempty"`
	RedevBaseCases   []string `json:"redev_base_cases"`
	RedevCapacityMW  Number   `json:"redev_capacity"`
	RedevTech        string   `json:"redev_tech,omitempty"`
	RedevFuel        string   `json:"redev_fuel,omitempty"`
	RedevHeatRate    Number   `json:"redev_heatrate"`
	RedevCOD         string   `json:"redev_cod,omitempty"`
	RedevLandControl bool     `json:"redev_land_control"`
	RedevStageGate   string   `json:"redev_stage_gate,omitempty"`
	RedevLead        string   `json:"redev_lead,omitempty"`
	RedevSupport     string   `json:"redev_support,omitempty"`

	Detail       map[string]string   `json:"detail_data"`
	Transmission []TransmissionPoint `json:"transmission_data"`
}
