package pipeline

import (
	"sort"
	"strconv"
	"strings"
)

// Sort directions
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortSpec selects the table column and direction. An empty column or
// direction keeps the projected order.
type SortSpec struct {
	Column    string `json:"column" form:"sort"`
	Direction string `json:"direction" form:"direction"`
}

// SearchSpec is a free text table search. Field "all" or "" searches every
// searchable column.
type SearchSpec struct {
	Term  string `json:"term" form:"q"`
	Field string `json:"field" form:"field"`
}

type columnKind int

const (
	kindText columnKind = iota
	kindNumber
	kindTier
)

type tableColumn struct {
	kind       columnKind
	searchable bool
	text       func(PipelineRow) string
	number     func(PipelineRow) Number
}

var tierOrder = map[string]int{
	"0": 0,
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
	"1": 1, "2": 2, "3": 3, "4": 4, "5": 5,
}

func textColumn(searchable bool, f func(PipelineRow) string) tableColumn {
	return tableColumn{kind: kindText, searchable: searchable, text: f}
}

func numberColumn(searchable bool, f func(PipelineRow) Number) tableColumn {
	return tableColumn{kind: kindNumber, searchable: searchable, number: f, text: func(r PipelineRow) string {
		return formatNumber(f(r))
	}}
}

var tableColumns = map[string]tableColumn{
	"id":                   numberColumn(false, func(r PipelineRow) Number { return Num(float64(r.DisplayID)) }),
	"asset":                textColumn(true, func(r PipelineRow) string { return r.Asset }),
	"codename":             textColumn(false, func(r PipelineRow) string { return r.Codename }),
	"location":             textColumn(true, func(r PipelineRow) string { return r.Location }),
	"owner":                textColumn(true, func(r PipelineRow) string { return r.Owner }),
	"status":               textColumn(true, func(r PipelineRow) string { return r.Status }),
	"mkt":                  textColumn(true, func(r PipelineRow) string { return r.ISO }),
	"zone":                 textColumn(true, func(r PipelineRow) string { return r.Zone }),
	"tech":                 textColumn(true, func(r PipelineRow) string { return r.Tech }),
	"cod":                  numberColumn(true, func(r PipelineRow) Number { return r.COD }),
	"fuel":                 textColumn(true, func(r PipelineRow) string { return r.Fuel }),
	"contact":              textColumn(true, func(r PipelineRow) string { return r.Contact }),
	"redevBaseCase":        textColumn(true, func(r PipelineRow) string { return r.RedevBaseCase }),
	"redevCapacity":        numberColumn(true, func(r PipelineRow) Number { return r.RedevCapacityMW }),
	"redevTier":            {kind: kindTier, searchable: true, text: func(r PipelineRow) string { return r.RedevTier }},
	"redevTech":            textColumn(true, func(r PipelineRow) string { return r.RedevTech }),
	"redevFuel":            textColumn(true, func(r PipelineRow) string { return r.RedevFuel }),
	"redevHeatrate":        numberColumn(false, func(r PipelineRow) Number { return r.RedevHeatRate }),
	"redevCOD":             textColumn(false, func(r PipelineRow) string { return r.RedevCOD }),
	"redevLead":            textColumn(true, func(r PipelineRow) string { return r.RedevLead }),
	"redevSupport":         textColumn(false, func(r PipelineRow) string { return r.RedevSupport }),
	"redevStageGate":       textColumn(true, func(r PipelineRow) string { return r.RedevStageGate }),
	"projectType":          textColumn(true, func(r PipelineRow) string { return strings.Join(r.ProjectType, ", ") }),
	"overall":              numberColumn(true, func(r PipelineRow) Number { return r.Overall }),
	"thermal":              numberColumn(true, func(r PipelineRow) Number { return r.Thermal }),
	"redev":                numberColumn(true, func(r PipelineRow) Number { return r.Redev }),
	"transactabilityScore": numberColumn(true, func(r PipelineRow) Number { return r.TransactabilityScore }),
	"mw":                   numberColumn(true, func(r PipelineRow) Number { return r.CapacityMW }),
	"hr":                   numberColumn(true, func(r PipelineRow) Number { return r.HeatRate }),
	"cf":                   numberColumn(false, func(r PipelineRow) Number { return r.CapacityFactorPct }),
}

// searchOrder fixes the order columns are concatenated into the row text
var searchOrder = []string{
	"asset", "location", "owner", "status", "mkt", "zone", "tech", "cod", "fuel",
	"contact", "redevBaseCase", "redevCapacity", "redevTier", "redevTech", "redevFuel",
	"redevLead", "redevStageGate", "projectType", "overall", "thermal", "redev",
	"transactabilityScore", "mw", "hr",
}

// SortableColumns lists the column keys SortRows understands
func SortableColumns() []string {
	keys := make([]string, 0, len(tableColumns))
	for key := range tableColumns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Search keeps rows containing every whitespace separated term, case-insensitively
func Search(rows []PipelineRow, spec SearchSpec) []PipelineRow {
	terms := strings.Fields(strings.ToLower(spec.Term))
	out := make([]PipelineRow, 0, len(rows))
	if len(terms) == 0 {
		return append(out, rows...)
	}

	field := strings.TrimSpace(spec.Field)
	column, single := tableColumns[field]
	single = single && column.searchable
	for _, row := range rows {
		var haystack string
		if single {
			haystack = strings.ToLower(column.text(row))
		} else {
			haystack = rowSearchText(row)
		}
		if containsAll(haystack, terms) {
			out = append(out, row)
		}
	}
	return out
}

// SortRows returns a stably sorted copy. Absent numbers, blank strings and
// unknown tiers sort last in either direction.
func SortRows(rows []PipelineRow, spec SortSpec) []PipelineRow {
	out := make([]PipelineRow, len(rows))
	copy(out, rows)

	column, ok := tableColumns[spec.Column]
	direction := strings.ToLower(strings.TrimSpace(spec.Direction))
	if !ok || (direction != SortAsc && direction != SortDesc) {
		return out
	}
	desc := direction == SortDesc

	sort.SliceStable(out, func(i, j int) bool {
		return lessRows(column, out[i], out[j], desc)
	})
	return out
}

// AssignDisplayIDs numbers rows by their position, starting at 1
func AssignDisplayIDs(rows []PipelineRow) []PipelineRow {
	for i := range rows {
		rows[i].DisplayID = i + 1
	}
	return rows
}

// TierRank orders redevelopment tiers; unknown tiers report false
func TierRank(tier string) (int, bool) {
	rank, ok := tierOrder[strings.ToUpper(strings.TrimSpace(tier))]
	return rank, ok
}

func lessRows(column tableColumn, a, b PipelineRow, desc bool) bool {
	switch column.kind {
	case kindNumber:
		av, bv := column.number(a), column.number(b)
		if av.Valid != bv.Valid {
			return av.Valid
		}
		if !av.Valid {
			return false
		}
		if desc {
			return av.Value > bv.Value
		}
		return av.Value < bv.Value
	case kindTier:
		ar, aok := TierRank(column.text(a))
		br, bok := TierRank(column.text(b))
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		if desc {
			return ar > br
		}
		return ar < br
	default:
		as, bs := strings.ToLower(column.text(a)), strings.ToLower(column.text(b))
		if (as == "") != (bs == "") {
			return as != ""
		}
		if desc {
			return as > bs
		}
		return as < bs
	}
}

func rowSearchText(row PipelineRow) string {
	parts := make([]string, 0, len(searchOrder)+1)
	for _, key := range searchOrder {
		parts = append(parts, tableColumns[key].text(row))
	}
	parts = append(parts, row.CapacityFactor)
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAll(haystack string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func formatNumber(n Number) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
