package pipeline

import "strings"

// FilterAll is the sentinel that disables a criterion
const FilterAll = "All"

// Criteria is a conjunction of optional row predicates. Empty values and
// FilterAll disable the corresponding predicate.
type Criteria struct {
	Region      string `json:"region" form:"region"`
	Process     string `json:"process" form:"process"`
	Owner       string `json:"owner" form:"owner"`
	Voltage     string `json:"voltage" form:"voltage"`
	Excess      string `json:"excess" form:"excess"`
	ProjectType string `json:"project_type" form:"project_type"`
}

// Active reports whether any predicate is enabled
func (c Criteria) Active() bool {
	return isActive(c.Region) || isActive(c.Process) || isActive(c.Owner) ||
		isActive(c.Voltage) || isActive(c.Excess) || isActive(c.ProjectType)
}

// Filter returns the rows matching every active predicate, in input order
func Filter(rows []RawRow, cols ColumnMap, criteria Criteria) []RawRow {
	out := make([]RawRow, 0, len(rows))
	if !criteria.Active() {
		return append(out, rows...)
	}
	for _, row := range rows {
		if Matches(row, cols, criteria) {
			out = append(out, row)
		}
	}
	return out
}

// Matches evaluates the criteria against a single row
func Matches(row RawRow, cols ColumnMap, c Criteria) bool {
	if isActive(c.Region) {
		if !strings.EqualFold(cols.Value(row, FieldISO), strings.TrimSpace(c.Region)) {
			return false
		}
	}

	if isActive(c.Process) {
		want := ProcessCode(c.Process)
		if want == "" || ProcessCode(cols.Value(row, FieldProcess)) != want {
			return false
		}
	}

	if isActive(c.Owner) {
		if cols.Value(row, FieldOwner) != strings.TrimSpace(c.Owner) {
			return false
		}
	}

	needsPoints := isActive(c.Voltage) || excessMode(c.Excess) != ""
	if needsPoints {
		points := ParseTransmission(row.Get(cols.Label(FieldTransmission)))
		if isActive(c.Voltage) && !hasVoltage(points, strings.TrimSpace(c.Voltage)) {
			return false
		}
		switch excessMode(c.Excess) {
		case "yes":
			if !HasExcessCapacity(points) {
				return false
			}
		case "no":
			if HasExcessCapacity(points) {
				return false
			}
		}
	}

	if isActive(c.ProjectType) {
		if !containsString(SplitProjectTypes(cols.Value(row, FieldProjectType)), strings.TrimSpace(c.ProjectType)) {
			return false
		}
	}

	return true
}

// ProcessCode maps a process marker or label onto its stored code, "P" or "B".
// Unknown markers map to "".
func ProcessCode(value string) string {
	v := strings.TrimSpace(value)
	switch {
	case strings.EqualFold(v, "P"), strings.EqualFold(v, "Process"):
		return "P"
	case strings.EqualFold(v, "B"), strings.EqualFold(v, "Bilateral"):
		return "B"
	default:
		return ""
	}
}

// SplitProjectTypes splits a comma separated project type cell
func SplitProjectTypes(cell string) []string {
	types := []string{}
	for _, part := range strings.Split(cell, ",") {
		if t := strings.TrimSpace(part); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func isActive(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && !strings.EqualFold(v, FilterAll)
}

func excessMode(value string) string {
	if !isActive(value) {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true":
		return "yes"
	case "no", "false":
		return "no"
	}
	return ""
}

func hasVoltage(points []TransmissionPoint, voltage string) bool {
	for _, p := range points {
		if p.Voltage == voltage {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
