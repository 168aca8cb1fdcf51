package pipeline

import (
	"fmt"
	"strings"
)

const (
	StatusOperating = "Operating"
	StatusFuture    = "Future"
	StatusUnknown   = "Unknown"
)

// Detail keys for the score strings added next to the original labels
const (
	DetailCalculatedOverall = "Calculated Overall"
	DetailCalculatedThermal = "Calculated Thermal"
	DetailCalculatedRedev   = "Calculated Redevelopment"
)

// Project maps raw rows onto pipeline rows. Rows whose resolved project name
// is blank after trimming are dropped. Display IDs follow input order.
func Project(rows []RawRow, cols ColumnMap, opts Options) []PipelineRow {
	year := opts.currentYear()
	consumed := make(map[string]bool, len(cols))
	for _, label := range cols {
		consumed[label] = true
	}

	out := make([]PipelineRow, 0, len(rows))
	for _, row := range rows {
		if cols.Value(row, FieldProjectName) == "" {
			continue
		}
		projected := projectRow(row, cols, consumed, year)
		projected.DisplayID = len(out) + 1
		out = append(out, projected)
	}
	return out
}

func projectRow(row RawRow, cols ColumnMap, consumed map[string]bool, year int) PipelineRow {
	text := func(f Field) string { return cols.Value(row, f) }
	raw := func(f Field) string { return row.Get(cols.Label(f)) }

	cfRaw := raw(FieldCapacityFactor)
	cod := ExtractYear(raw(FieldLegacyCOD), year)
	overall := ParseNumber(raw(FieldOverall))
	thermal := ParseNumber(raw(FieldThermal))
	redev := ParseNumber(raw(FieldRedev))

	status := text(FieldStatus)
	if status == "" {
		status = DeriveStatus(raw(FieldLegacyCOD), cod, year)
	}

	p := PipelineRow{
		SourceKey:   row.Key,
		Asset:       text(FieldProjectName),
		Codename:    text(FieldCodename),
		Owner:       text(FieldOwner),
		Location:    text(FieldLocation),
		ISO:         text(FieldISO),
		Zone:        text(FieldZone),
		Tech:        text(FieldTech),
		Fuel:        text(FieldFuel),
		Status:      status,
		ProcessType: text(FieldProcess),
		ProjectType: SplitProjectTypes(text(FieldProjectType)),
		Contact:     text(FieldContact),

		HeatRate:          ParseNumber(raw(FieldHeatRate)).NonNegative(),
		CapacityMW:        ParseNumber(raw(FieldCapacity)).NonNegative(),
		CapacityFactor:    FormatCapacityFactor(cfRaw),
		CapacityFactorPct: CapacityFactorPercent(cfRaw).NonNegative(),
		COD:               cod,

		Overall:              overall,
		Thermal:              thermal,
		Redev:                redev,
		TransactabilityScore: ParseNumber(raw(FieldTransactabilityScores)),
		Transactability:      text(FieldTransactability),

		RedevTier:        text(FieldRedevTier),
		RedevBaseCase:    text(FieldRedevBaseCase),
		RedevBaseCases:   SplitBaseCases(raw(FieldRedevBaseCase)),
		RedevCapacityMW:  ParseNumber(raw(FieldRedevCapacity)).NonNegative(),
		RedevTech:        text(FieldRedevTech),
		RedevFuel:        text(FieldRedevFuel),
		RedevHeatRate:    ParseNumber(raw(FieldRedevHeatRate)).NonNegative(),
		RedevCOD:         text(FieldRedevCOD),
		RedevLandControl: ParseFlag(raw(FieldRedevLandControl)),
		RedevStageGate:   text(FieldRedevStageGate),
		RedevLead:        text(FieldRedevLead),
		RedevSupport:     text(FieldRedevSupport),

		Transmission: ParseTransmission(raw(FieldTransmission)),
	}

	detail := make(map[string]string, len(schema)+len(row.Cells)+3)
	for _, def := range schema {
		detail[def.Label] = raw(def.Field)
	}
	if p.CapacityFactor != "" {
		detail[DefaultLabel(FieldCapacityFactor)] = p.CapacityFactor
	}
	for column, value := range row.Cells {
		if !consumed[column] {
			detail[column] = value
		}
	}
	detail[DetailCalculatedOverall] = formatDetailScore(overall)
	detail[DetailCalculatedThermal] = formatDetailScore(thermal)
	detail[DetailCalculatedRedev] = formatDetailScore(redev)
	p.Detail = detail

	return p
}

// DeriveStatus infers an operating status from the legacy COD cell
func DeriveStatus(rawCOD string, cod Number, currentYear int) string {
	if cod.Valid {
		if int(cod.Value) > currentYear {
			return StatusFuture
		}
		return StatusOperating
	}
	lower := strings.ToLower(strings.TrimSpace(rawCOD))
	switch {
	case lower == "":
		return StatusUnknown
	case strings.Contains(lower, "future"), strings.Contains(lower, "planned"):
		return StatusFuture
	default:
		return StatusUnknown
	}
}

// ParseFlag reads yes/no style cells
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1", "x":
		return true
	}
	return false
}

func formatDetailScore(n Number) string {
	if !n.Valid {
		return ""
	}
	return fmt.Sprintf("%.2f", n.Value)
}
