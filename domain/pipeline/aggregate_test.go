package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

var aggregateHeaders = []string{
	"Project Name", "Plant Owner", "ISO", "Tech", "Process (P) or Bilateral (B)",
	"Legacy Nameplate Capacity (MW)", "Heat Rate (Btu/kWh)", "Legacy COD",
	"Overall Project Score", "Thermal Operating Score", "Redevelopment Score",
	"Redevelopment Base Case",
}

func sheetRows(cells ...map[string]string) []RawRow {
	rows := make([]RawRow, 0, len(cells))
	for i, c := range cells {
		rows = append(rows, RawRow{Key: fmt.Sprintf("row-%d", i+2), Cells: c})
	}
	return rows
}

func aggregate(rows []RawRow) Summary {
	return Aggregate(rows, ResolveColumns(aggregateHeaders), Options{Now: fixedNow})
}

func TestAggregate_AveragesSkipAbsentValues(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "A", "Heat Rate (Btu/kWh)": "10", "Legacy COD": "1994"},
		map[string]string{"Project Name": "B", "Heat Rate (Btu/kWh)": "N/A", "Legacy COD": "2004"},
		map[string]string{"Project Name": "C", "Heat Rate (Btu/kWh)": "20", "Legacy COD": ""},
	)

	s := aggregate(rows)

	require.True(t, s.AvgHeatRate.Valid)
	assert.InDelta(t, 15, s.AvgHeatRate.Value, 1e-9)
	require.True(t, s.AvgAge.Valid)
	assert.InDelta(t, float64((2025-1994)+(2025-2004))/2, s.AvgAge.Value, 1e-9)
}

func TestAggregate_AgeFlooredAtZero(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "Future", "Legacy COD": "2030"},
		map[string]string{"Project Name": "Old", "Legacy COD": "2015"},
	)

	s := aggregate(rows)

	assert.InDelta(t, 5, s.AvgAge.Value, 1e-9)
}

func TestAggregate_HeatRateIgnoresZero(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "A", "Heat Rate (Btu/kWh)": "0"},
		map[string]string{"Project Name": "B", "Heat Rate (Btu/kWh)": "10,500"},
		map[string]string{"Project Name": "C", "Heat Rate (Btu/kWh)": "9,500"},
	)

	s := aggregate(rows)

	assert.InDelta(t, 10000, s.AvgHeatRate.Value, 1e-9)
	assert.Equal(t, "10,000", kpi(t, s, "AVG HEAT RATE").Value)
}

func TestAggregate_ISODistributionSortedByCapacity(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "P", "ISO": "PJM", "Legacy Nameplate Capacity (MW)": "500"},
		map[string]string{"Project Name": "N", "ISO": "NYISO", "Legacy Nameplate Capacity (MW)": "1,500"},
		map[string]string{"Project Name": "M", "ISO": "MISO", "Legacy Nameplate Capacity (MW)": "1000"},
		map[string]string{"Project Name": "X", "ISO": "ERCOT", "Legacy Nameplate Capacity (MW)": "#N/A"},
		map[string]string{"Project Name": "Y", "ISO": "", "Legacy Nameplate Capacity (MW)": "300"},
	)

	s := aggregate(rows)

	require.Len(t, s.ISO, 3)
	assert.Equal(t, "NYISO", s.ISO[0].Name)
	assert.Equal(t, 1.5, s.ISO[0].Value)
	assert.Equal(t, "MISO", s.ISO[1].Name)
	assert.Equal(t, 1.0, s.ISO[1].Value)
	assert.Equal(t, "PJM", s.ISO[2].Name)
	assert.Equal(t, 0.5, s.ISO[2].Value)
	assert.Equal(t, 1, s.ISO[2].Count)

	assert.InDelta(t, 3300, s.TotalCapacityMW, 1e-9)
	assert.Equal(t, "3.3 GW", kpi(t, s, "TOTAL CAPACITY").Value)
}

func TestAggregate_DistributionTiesKeepEncounterOrder(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "1", "Tech": "CCGT", "Legacy Nameplate Capacity (MW)": "100"},
		map[string]string{"Project Name": "2", "Tech": "Coal", "Legacy Nameplate Capacity (MW)": "100"},
		map[string]string{"Project Name": "3", "Tech": "Peaker", "Legacy Nameplate Capacity (MW)": "300"},
	)

	s := aggregate(rows)

	require.Len(t, s.Tech, 3)
	assert.Equal(t, []string{"Peaker", "CCGT", "Coal"}, []string{s.Tech[0].Name, s.Tech[1].Name, s.Tech[2].Name})
}

func TestAggregate_RedevBaseCaseMultiMembership(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "A", "Redevelopment Base Case": "Solar\nGas/Thermal"},
		map[string]string{"Project Name": "B", "Redevelopment Base Case": "BESS / Solar"},
		map[string]string{"Project Name": "C", "Redevelopment Base Case": "Data Center"},
		map[string]string{"Project Name": "D", "Redevelopment Base Case": ""},
	)

	s := aggregate(rows)

	counts := map[string]int{}
	for _, e := range s.RedevTypes {
		counts[e.Name] = e.Count
		assert.Equal(t, float64(e.Count), e.Value)
	}
	assert.Equal(t, map[string]int{"Solar": 2, "Gas/Thermal": 1, "BESS": 1, "Data Center": 1}, counts)
	assert.Equal(t, "Solar", s.RedevTypes[0].Name)
}

func TestAggregate_Counterparties(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "A", "Plant Owner": "Vistra", "Legacy Nameplate Capacity (MW)": "100", "Overall Project Score": "4"},
		map[string]string{"Project Name": "B", "Plant Owner": "Vistra", "Legacy Nameplate Capacity (MW)": "200", "Overall Project Score": ""},
		map[string]string{"Project Name": "C", "Plant Owner": "NRG", "Legacy Nameplate Capacity (MW)": "1200", "Overall Project Score": "5"},
		map[string]string{"Project Name": "D", "Plant Owner": "Calpine", "Legacy Nameplate Capacity (MW)": "N/A", "Overall Project Score": "5"},
	)

	s := aggregate(rows)

	require.Len(t, s.Counterparties, 2)
	assert.Equal(t, "NRG", s.Counterparties[0].Name)
	assert.Equal(t, 1.2, s.Counterparties[0].CapacityGW)
	assert.Equal(t, "1 project", s.Counterparties[0].ProjectsLabel())

	vistra := s.Counterparties[1]
	assert.Equal(t, "Vistra", vistra.Name)
	assert.Equal(t, 2, vistra.Count)
	assert.InDelta(t, 300, vistra.CapacityMW, 1e-9)
	assert.InDelta(t, 2.0, vistra.AvgOverall, 1e-9)
	assert.Equal(t, "2 projects", vistra.ProjectsLabel())
}

func TestAggregate_ScalarsAndKPIs(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "A", "Process (P) or Bilateral (B)": "P", "Overall Project Score": "1", "Thermal Operating Score": "2", "Legacy Nameplate Capacity (MW)": "100"},
		map[string]string{"Project Name": "B", "Process (P) or Bilateral (B)": "B", "Overall Project Score": "2", "Redevelopment Score": "3", "Legacy Nameplate Capacity (MW)": "100"},
		map[string]string{"Project Name": "C", "Process (P) or Bilateral (B)": "Process", "Overall Project Score": "3", "Legacy Nameplate Capacity (MW)": "100"},
		map[string]string{"Project Name": "D", "Process (P) or Bilateral (B)": "", "Overall Project Score": "4", "Legacy Nameplate Capacity (MW)": "100"},
		map[string]string{"Project Name": "  ", "Process (P) or Bilateral (B)": "B"},
	)

	s := aggregate(rows)

	assert.Equal(t, 4, s.ProjectCount)
	assert.Equal(t, 2, s.ProcessCount)
	assert.Equal(t, 2, s.BilateralCount)
	assert.InDelta(t, 2.5, s.AvgOverall.Value, 1e-9)
	assert.InDelta(t, 2.0, s.AvgThermal.Value, 1e-9)
	assert.InDelta(t, 3.0, s.AvgRedev.Value, 1e-9)
	assert.Equal(t, 2, s.TopQuartileCount)
	assert.InDelta(t, 200, s.TopQuartileCapacityMW, 1e-9)

	assert.Equal(t, "4", kpi(t, s, "PROJECTS").Value)
	assert.Equal(t, "2P / 2B", kpi(t, s, "PROJECTS").Sub)
	assert.Equal(t, "2", kpi(t, s, "TOP QUARTILE").Value)
	assert.Equal(t, "0.2 GW", kpi(t, s, "TOP QUARTILE").Sub)
	assert.Equal(t, "2.50", kpi(t, s, "AVG OVERALL").Value)
	assert.Equal(t, "N/A", kpi(t, s, "AVG AGE").Value)

	first, second := s.KPIRows()
	assert.Len(t, first, 4)
	assert.Len(t, second, 4)
}

func TestAggregate_EmptyInput(t *testing.T) {
	s := aggregate(nil)

	assert.Equal(t, 0, s.ProjectCount)
	assert.False(t, s.AvgHeatRate.Valid)
	assert.False(t, s.AvgOverall.Valid)
	assert.NotNil(t, s.ISO)
	assert.Empty(t, s.ISO)
	assert.NotNil(t, s.Tech)
	assert.NotNil(t, s.RedevTypes)
	assert.NotNil(t, s.Counterparties)
	assert.Len(t, s.KPIs, 8)
	assert.Equal(t, "0.0 GW", kpi(t, s, "TOTAL CAPACITY").Value)
	assert.Equal(t, "N/A", kpi(t, s, "AVG HEAT RATE").Value)
}

func TestAggregate_UnresolvedColumnsDegrade(t *testing.T) {
	rows := sheetRows(map[string]string{"Unrelated": "value"})

	s := Aggregate(rows, ResolveColumns([]string{"Unrelated"}), Options{Now: fixedNow})

	assert.Equal(t, 0, s.ProjectCount)
	assert.Empty(t, s.ISO)
	assert.Empty(t, s.Counterparties)
}

func TestCanonicalBaseCase(t *testing.T) {
	tests := map[string]string{
		"BESS 200MW":            "BESS",
		"Gas Peaker":            "Gas/Thermal",
		"thermal repower":       "Gas/Thermal",
		"Utility Solar":         "Solar",
		"Powered Land":          "Powered Land",
		"land sale":             "Powered Land",
		"Plant Optimization":    "Plant Optimization",
		"optimization upgrades": "Plant Optimization",
		" Data Center ":         "Data Center",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalBaseCase(in), "input %q", in)
	}
}

func kpi(t *testing.T, s Summary, label string) KPI {
	t.Helper()
	for _, k := range s.KPIs {
		if k.Label == label {
			return k
		}
	}
	t.Fatalf("kpi %q not found", label)
	return KPI{}
}

func TestAggregate_DistributionIgnoresCase(t *testing.T) {
	rows := sheetRows(
		map[string]string{"Project Name": "A", "ISO": "MISO", "Tech": "Gas CC", "Legacy Nameplate Capacity (MW)": "600"},
		map[string]string{"Project Name": "B", "ISO": "miso", "Tech": "gas cc", "Legacy Nameplate Capacity (MW)": "400"},
		map[string]string{"Project Name": "C", "ISO": "PJM", "Tech": "Coal", "Legacy Nameplate Capacity (MW)": "300"},
	)

	s := aggregate(rows)

	require.Len(t, s.ISO, 2)
	assert.Equal(t, "MISO", s.ISO[0].Name)
	assert.Equal(t, 2, s.ISO[0].Count)
	assert.InDelta(t, 1000, s.ISO[0].CapacityMW, 1e-9)
	require.Len(t, s.Tech, 2)
	assert.Equal(t, "Gas CC", s.Tech[0].Name)
	assert.Equal(t, 2, s.Tech[0].Count)
}
