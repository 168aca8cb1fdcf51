package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

var baseCaseSeparator = regexp.MustCompile(`[\r\n/]+`)

// Summary holds the KPI scalars and grouped distributions for one row set
type Summary struct {
	ProjectCount   int `json:"project_count"`
	ProcessCount   int `json:"process_count"`
	BilateralCount int `json:"bilateral_count"`

	TotalCapacityMW float64 `json:"total_capacity_mw"`
	AvgHeatRate     Number  `json:"avg_heat_rate"`
	AvgAge          Number  `json:"avg_age"`
	AvgOverall      Number  `json:"avg_overall"`
	AvgThermal      Number  `json:"avg_thermal"`
	AvgRedev        Number  `json:"avg_redev"`

	TopQuartileCount      int     `json:"top_quartile_count"`
	TopQuartileCapacityMW float64 `json:"top_quartile_capacity_mw"`

	KPIs           []KPI               `json:"kpis"`
	ISO            []DistributionEntry `json:"iso"`
	Tech           []DistributionEntry `json:"tech"`
	RedevTypes     []DistributionEntry `json:"redev_types"`
	Counterparties []CounterpartyEntry `json:"counterparties"`
}

// KPIRows splits the KPI list into the two dashboard rows
func (s Summary) KPIRows() ([]KPI, []KPI) {
	if len(s.KPIs) <= 4 {
		return s.KPIs, []KPI{}
	}
	return s.KPIs[:4], s.KPIs[4:]
}

// aggregateRow is the parsed subset of a raw row the aggregator needs
type aggregateRow struct {
	name     string
	iso      string
	tech     string
	owner    string
	process  string
	baseCase string
	capacity Number
	heatRate Number
	cod      Number
	overall  Number
	thermal  Number
	redev    Number
}

// Aggregate computes KPI scalars and distributions. Absent values are skipped
// in both sums and averaging counts.
func Aggregate(rows []RawRow, cols ColumnMap, opts Options) Summary {
	year := opts.currentYear()
	parsed := make([]aggregateRow, 0, len(rows))
	for _, row := range rows {
		parsed = append(parsed, aggregateRow{
			name:     cols.Value(row, FieldProjectName),
			iso:      cols.Value(row, FieldISO),
			tech:     cols.Value(row, FieldTech),
			owner:    cols.Value(row, FieldOwner),
			process:  ProcessCode(cols.Value(row, FieldProcess)),
			baseCase: row.Get(cols.Label(FieldRedevBaseCase)),
			capacity: ParseNumber(row.Get(cols.Label(FieldCapacity))).NonNegative(),
			heatRate: ParseNumber(row.Get(cols.Label(FieldHeatRate))).Positive(),
			cod:      ExtractYear(row.Get(cols.Label(FieldLegacyCOD)), year),
			overall:  ParseNumber(row.Get(cols.Label(FieldOverall))),
			thermal:  ParseNumber(row.Get(cols.Label(FieldThermal))),
			redev:    ParseNumber(row.Get(cols.Label(FieldRedev))),
		})
	}

	s := Summary{}
	var capacities, heatRates, ages, overalls, thermals, redevs []float64
	for _, r := range parsed {
		if r.name != "" {
			s.ProjectCount++
		}
		switch r.process {
		case "P":
			s.ProcessCount++
		case "B":
			s.BilateralCount++
		}
		if r.capacity.Valid {
			capacities = append(capacities, r.capacity.Value)
		}
		if r.heatRate.Valid {
			heatRates = append(heatRates, r.heatRate.Value)
		}
		if r.cod.Valid {
			ages = append(ages, math.Max(0, float64(year)-r.cod.Value))
		}
		if r.overall.Valid {
			overalls = append(overalls, r.overall.Value)
		}
		if r.thermal.Valid {
			thermals = append(thermals, r.thermal.Value)
		}
		if r.redev.Valid {
			redevs = append(redevs, r.redev.Value)
		}
	}

	s.TotalCapacityMW = sum(capacities)
	s.AvgHeatRate = mean(heatRates)
	s.AvgAge = mean(ages)
	s.AvgOverall = mean(overalls)
	s.AvgThermal = mean(thermals)
	s.AvgRedev = mean(redevs)
	s.TopQuartileCount, s.TopQuartileCapacityMW = topQuartile(parsed, overalls)

	s.ISO = capacityDistribution(parsed, func(r aggregateRow) string { return r.iso })
	s.Tech = capacityDistribution(parsed, func(r aggregateRow) string { return r.tech })
	s.RedevTypes = redevDistribution(parsed)
	s.Counterparties = counterparties(parsed)
	s.KPIs = buildKPIs(s)
	return s
}

// CanonicalBaseCase folds a redevelopment category label into the fixed taxonomy.
// Labels matching no known fragment are returned trimmed but otherwise verbatim.
func CanonicalBaseCase(label string) string {
	clean := strings.TrimSpace(label)
	lower := strings.ToLower(clean)
	switch {
	case strings.Contains(lower, "bess"):
		return "BESS"
	case strings.Contains(lower, "gas"), strings.Contains(lower, "thermal"):
		return "Gas/Thermal"
	case strings.Contains(lower, "solar"):
		return "Solar"
	case strings.Contains(lower, "powered"), strings.Contains(lower, "land"):
		return "Powered Land"
	case strings.Contains(lower, "plant"), strings.Contains(lower, "optimization"):
		return "Plant Optimization"
	default:
		return clean
	}
}

// SplitBaseCases returns the distinct canonical categories of a base case cell
func SplitBaseCases(cell string) []string {
	categories := []string{}
	seen := make(map[string]bool)
	for _, part := range baseCaseSeparator.Split(cell, -1) {
		category := CanonicalBaseCase(part)
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}
	return categories
}

func capacityDistribution(rows []aggregateRow, key func(aggregateRow) string) []DistributionEntry {
	index := make(map[string]int)
	entries := []DistributionEntry{}
	for _, r := range rows {
		name := key(r)
		if name == "" || !r.capacity.Valid {
			continue
		}
		// Buckets match case-insensitively and keep the first spelling seen
		folded := strings.ToLower(name)
		i, ok := index[folded]
		if !ok {
			i = len(entries)
			index[folded] = i
			entries = append(entries, DistributionEntry{Name: name})
		}
		entries[i].CapacityMW += r.capacity.Value
		entries[i].Count++
	}
	for i := range entries {
		entries[i].Value = toGW(entries[i].CapacityMW)
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].CapacityMW > entries[b].CapacityMW
	})
	return entries
}

func redevDistribution(rows []aggregateRow) []DistributionEntry {
	index := make(map[string]int)
	entries := []DistributionEntry{}
	for _, r := range rows {
		for _, category := range SplitBaseCases(r.baseCase) {
			i, ok := index[category]
			if !ok {
				i = len(entries)
				index[category] = i
				entries = append(entries, DistributionEntry{Name: category})
			}
			entries[i].Count++
			if r.capacity.Valid {
				entries[i].CapacityMW += r.capacity.Value
			}
		}
	}
	for i := range entries {
		entries[i].Value = float64(entries[i].Count)
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Count > entries[b].Count
	})
	return entries
}

func counterparties(rows []aggregateRow) []CounterpartyEntry {
	index := make(map[string]int)
	entries := []CounterpartyEntry{}
	totals := []float64{}
	for _, r := range rows {
		if r.owner == "" || !r.capacity.Valid {
			continue
		}
		i, ok := index[r.owner]
		if !ok {
			i = len(entries)
			index[r.owner] = i
			entries = append(entries, CounterpartyEntry{Name: r.owner})
			totals = append(totals, 0)
		}
		entries[i].Count++
		entries[i].CapacityMW += r.capacity.Value
		if r.overall.Valid {
			totals[i] += r.overall.Value
		}
	}
	for i := range entries {
		entries[i].CapacityGW = toGW(entries[i].CapacityMW)
		entries[i].AvgOverall = round(totals[i]/float64(entries[i].Count), 2)
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].CapacityMW > entries[b].CapacityMW
	})
	return entries
}

func topQuartile(rows []aggregateRow, overalls []float64) (int, float64) {
	if len(overalls) == 0 {
		return 0, 0
	}
	threshold, err := stats.Percentile(overalls, 75)
	if err != nil {
		return 0, 0
	}
	count := 0
	var capacity []float64
	for _, r := range rows {
		if !r.overall.Valid || r.overall.Value < threshold {
			continue
		}
		count++
		if r.capacity.Valid {
			capacity = append(capacity, r.capacity.Value)
		}
	}
	return count, sum(capacity)
}

func buildKPIs(s Summary) []KPI {
	heatRate := "N/A"
	if s.AvgHeatRate.Valid {
		heatRate = humanize.Comma(int64(math.Round(s.AvgHeatRate.Value)))
	}
	age := "N/A"
	if s.AvgAge.Valid {
		age = fmt.Sprintf("%d yrs", int64(math.Round(s.AvgAge.Value)))
	}

	return []KPI{
		{Label: "PROJECTS", Value: strconv.Itoa(s.ProjectCount), Sub: fmt.Sprintf("%dP / %dB", s.ProcessCount, s.BilateralCount), Class: "projects"},
		{Label: "TOTAL CAPACITY", Value: fmt.Sprintf("%.1f GW", s.TotalCapacityMW/1000), Sub: "Nameplate", Class: "capacity"},
		{Label: "AVG HEAT RATE", Value: heatRate, Sub: "Btu/kWh", Class: "heat-rate"},
		{Label: "AVG AGE", Value: age, Sub: "Vintage", Class: "age"},
		{Label: "TOP QUARTILE", Value: strconv.Itoa(s.TopQuartileCount), Sub: fmt.Sprintf("%.1f GW", s.TopQuartileCapacityMW/1000), Class: "quartile"},
		{Label: "AVG OVERALL", Value: formatScore(s.AvgOverall), Sub: "/6.0", Class: "overall"},
		{Label: "AVG THERMAL", Value: formatScore(s.AvgThermal), Sub: "/3.0", Class: "thermal"},
		{Label: "AVG REDEV", Value: formatScore(s.AvgRedev), Sub: "/3.0", Class: "redev"},
	}
}

func formatScore(n Number) string {
	if !n.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", n.Value)
}

func mean(values []float64) Number {
	if len(values) == 0 {
		return Number{}
	}
	m, err := stats.Mean(values)
	if err != nil {
		return Number{}
	}
	return Num(m)
}

func sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}

func toGW(mw float64) float64 {
	return round(mw/1000, 1)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
