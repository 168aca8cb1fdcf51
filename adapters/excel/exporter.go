package excel

import (
	"fmt"
	"io"
	"strings"

	"redevdash/domain/pipeline"

	"github.com/xuri/excelize/v2"
)

const (
	pipelineSheet = "Pipeline"
	summarySheet  = "Summary"
)

type exportColumn struct {
	header string
	width  float64
	value  func(r pipeline.PipelineRow) interface{}
}

func numberCell(n pipeline.Number) interface{} {
	if !n.Valid {
		return ""
	}
	return n.Value
}

var exportColumns = []exportColumn{
	{"#", 6, func(r pipeline.PipelineRow) interface{} { return r.DisplayID }},
	{"Project Name", 28, func(r pipeline.PipelineRow) interface{} { return r.Asset }},
	{"Project Codename", 18, func(r pipeline.PipelineRow) interface{} { return r.Codename }},
	{"Plant Owner", 20, func(r pipeline.PipelineRow) interface{} { return r.Owner }},
	{"Location", 20, func(r pipeline.PipelineRow) interface{} { return r.Location }},
	{"ISO", 8, func(r pipeline.PipelineRow) interface{} { return r.ISO }},
	{"Zone/Submarket", 14, func(r pipeline.PipelineRow) interface{} { return r.Zone }},
	{"Tech", 10, func(r pipeline.PipelineRow) interface{} { return r.Tech }},
	{"Fuel", 10, func(r pipeline.PipelineRow) interface{} { return r.Fuel }},
	{"Capacity (MW)", 12, func(r pipeline.PipelineRow) interface{} { return numberCell(r.CapacityMW) }},
	{"Heat Rate (Btu/kWh)", 14, func(r pipeline.PipelineRow) interface{} { return numberCell(r.HeatRate) }},
	{"Capacity Factor", 12, func(r pipeline.PipelineRow) interface{} { return r.CapacityFactor }},
	{"COD", 8, func(r pipeline.PipelineRow) interface{} { return numberCell(r.COD) }},
	{"Status", 10, func(r pipeline.PipelineRow) interface{} { return r.Status }},
	{"Process (P) or Bilateral (B)", 10, func(r pipeline.PipelineRow) interface{} { return r.ProcessType }},
	{"Project Type", 16, func(r pipeline.PipelineRow) interface{} { return strings.Join(r.ProjectType, ", ") }},
	{"Overall Project Score", 10, func(r pipeline.PipelineRow) interface{} { return numberCell(r.Overall) }},
	{"Thermal Operating Score", 10, func(r pipeline.PipelineRow) interface{} { return numberCell(r.Thermal) }},
	{"Redevelopment Score", 10, func(r pipeline.PipelineRow) interface{} { return numberCell(r.Redev) }},
	{"Transactability", 22, func(r pipeline.PipelineRow) interface{} { return r.Transactability }},
	{"Redev Tier", 8, func(r pipeline.PipelineRow) interface{} { return r.RedevTier }},
	{"Redevelopment Base Case", 22, func(r pipeline.PipelineRow) interface{} { return strings.Join(r.RedevBaseCases, " / ") }},
	{"Redev Capacity (MW)", 12, func(r pipeline.PipelineRow) interface{} { return numberCell(r.RedevCapacityMW) }},
	{"Redev Tech", 12, func(r pipeline.PipelineRow) interface{} { return r.RedevTech }},
	{"Redev COD", 10, func(r pipeline.PipelineRow) interface{} { return r.RedevCOD }},
	{"Redev Lead", 14, func(r pipeline.PipelineRow) interface{} { return r.RedevLead }},
	{"Transmission Data", 30, func(r pipeline.PipelineRow) interface{} { return pipeline.FormatTransmission(r.Transmission) }},
}

// Exporter writes pipeline views and raw batches to new workbooks
type Exporter struct{}

// NewExporter creates an exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteView writes the projected rows and the summary KPIs of a view as a two-sheet workbook
func (e *Exporter) WriteView(w io.Writer, view pipeline.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", pipelineSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		headers[i] = col.header
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(pipelineSheet, name, name, col.width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	if err := e.writeHeader(f, pipelineSheet, headers); err != nil {
		return err
	}

	for i, row := range view.Rows {
		values := make([]interface{}, len(exportColumns))
		for c, col := range exportColumns {
			values[c] = col.value(row)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(pipelineSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := e.writeSummary(f, view.Summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteBatch writes raw rows under their original headers, readable again by DataReader
func (e *Exporter) WriteBatch(w io.Writer, batch pipeline.Batch) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := batch.Headers
	if len(headers) == 0 {
		headers = pipeline.HeadersOf(batch.Rows)
	}
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := e.writeHeader(f, "Sheet1", header); err != nil {
		return err
	}

	for i, row := range batch.Rows {
		values := make([]interface{}, len(headers))
		for c, h := range headers {
			values[c] = row.Get(h)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Sheet1", cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *Exporter) writeHeader(f *excelize.File, sheet string, headers []interface{}) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F3A5F"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if len(headers) == 0 {
		return nil
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func (e *Exporter) writeSummary(f *excelize.File, summary pipeline.Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	if err := e.writeHeader(f, summarySheet, []interface{}{"KPI", "Value", "Detail"}); err != nil {
		return err
	}
	row := 2
	for _, kpi := range summary.KPIs {
		values := []interface{}{kpi.Label, kpi.Value, kpi.Sub}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write KPI %s: %w", kpi.Label, err)
		}
		row++
	}

	sections := []struct {
		title   string
		entries []pipeline.DistributionEntry
	}{
		{"Capacity by ISO (GW)", summary.ISO},
		{"Capacity by Technology (GW)", summary.Tech},
		{"Redevelopment Base Case (projects)", summary.RedevTypes},
	}
	for _, section := range sections {
		row++
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(summarySheet, cell, section.title); err != nil {
			return fmt.Errorf("failed to write section %s: %w", section.title, err)
		}
		row++
		for _, entry := range section.entries {
			values := []interface{}{entry.Name, entry.Value, entry.Count}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write %s: %w", entry.Name, err)
			}
			row++
		}
	}
	return nil
}
