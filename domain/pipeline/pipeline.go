package pipeline

import (
	"sort"
	"time"
)

// Options carries the clock and table controls for a pipeline pass
type Options struct {
	Now    time.Time
	Sort   SortSpec
	Search SearchSpec
}

func (o Options) currentYear() int {
	if o.Now.IsZero() {
		return time.Now().Year()
	}
	return o.Now.Year()
}

// FilterOptions lists the distinct values offered by the dashboard filters
type FilterOptions struct {
	Regions      []string `json:"regions"`
	Owners       []string `json:"owners"`
	Voltages     []string `json:"voltages"`
	ProjectTypes []string `json:"project_types"`
	ProcessTypes []string `json:"process_types"`
	Techs        []string `json:"techs"`
}

// View is everything the dashboard renders for one row set and criteria
type View struct {
	Columns       ColumnMap     `json:"columns"`
	Summary       Summary       `json:"summary"`
	Rows          []PipelineRow `json:"rows"`
	FilterOptions FilterOptions `json:"filter_options"`
	TotalRows     int           `json:"total_rows"`
	FilteredRows  int           `json:"filtered_rows"`
}

// Derive runs the whole pipeline: resolve columns, filter, aggregate, project,
// then apply table search and sort and number the rows. The batch is not modified.
func Derive(batch Batch, criteria Criteria, opts Options) View {
	headers := batch.Headers
	if len(headers) == 0 {
		headers = HeadersOf(batch.Rows)
	}
	cols := ResolveColumns(headers)

	filtered := Filter(batch.Rows, cols, criteria)
	summary := Aggregate(filtered, cols, opts)

	rows := Project(filtered, cols, opts)
	rows = Search(rows, opts.Search)
	rows = SortRows(rows, opts.Sort)
	rows = AssignDisplayIDs(rows)

	return View{
		Columns:       cols,
		Summary:       summary,
		Rows:          rows,
		FilterOptions: CollectFilterOptions(batch.Rows, cols),
		TotalRows:     len(batch.Rows),
		FilteredRows:  len(filtered),
	}
}

// CollectFilterOptions gathers sorted distinct filter values from the rows
func CollectFilterOptions(rows []RawRow, cols ColumnMap) FilterOptions {
	regions := newValueSet()
	owners := newValueSet()
	voltages := newValueSet()
	projectTypes := newValueSet()
	processTypes := newValueSet()
	techs := newValueSet()

	for _, row := range rows {
		regions.add(cols.Value(row, FieldISO))
		owners.add(cols.Value(row, FieldOwner))
		techs.add(cols.Value(row, FieldTech))
		processTypes.add(ProcessCode(cols.Value(row, FieldProcess)))
		for _, t := range SplitProjectTypes(cols.Value(row, FieldProjectType)) {
			projectTypes.add(t)
		}
		for _, p := range ParseTransmission(row.Get(cols.Label(FieldTransmission))) {
			voltages.add(p.Voltage)
		}
	}

	return FilterOptions{
		Regions:      regions.sorted(),
		Owners:       owners.sorted(),
		Voltages:     voltages.sorted(),
		ProjectTypes: projectTypes.sorted(),
		ProcessTypes: processTypes.sorted(),
		Techs:        techs.sorted(),
	}
}

type valueSet map[string]struct{}

func newValueSet() valueSet {
	return make(valueSet)
}

func (s valueSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s valueSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
