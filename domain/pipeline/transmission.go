package pipeline

import (
	"strconv"
	"strings"
)

const (
	transmissionRecordSep = ";"
	transmissionFieldSep  = "|"
	transmissionFields    = 5
)

// ParseTransmission decodes "voltage|injection|withdrawal|constraints|excess"
// records separated by ";". Records with fewer than five fields are dropped
// without affecting the others. Unparseable capacities are absent.
func ParseTransmission(cell string) []TransmissionPoint {
	points := []TransmissionPoint{}
	if strings.TrimSpace(cell) == "" {
		return points
	}

	for _, record := range strings.Split(cell, transmissionRecordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		parts := strings.Split(record, transmissionFieldSep)
		if len(parts) < transmissionFields {
			continue
		}
		points = append(points, TransmissionPoint{
			Voltage:        strings.TrimSpace(parts[0]),
			InjectionMW:    ParseNumber(parts[1]).NonNegative(),
			WithdrawalMW:   ParseNumber(parts[2]).NonNegative(),
			Constraints:    strings.TrimSpace(parts[3]),
			ExcessCapacity: parseExcessFlag(parts[4]),
		})
	}
	return points
}

// FormatTransmission encodes points back into the cell format
func FormatTransmission(points []TransmissionPoint) string {
	records := make([]string, 0, len(points))
	for _, p := range points {
		constraints := p.Constraints
		if constraints == "" {
			constraints = "-"
		}
		records = append(records, strings.Join([]string{
			p.Voltage,
			formatCapacity(p.InjectionMW),
			formatCapacity(p.WithdrawalMW),
			constraints,
			strconv.FormatBool(p.ExcessCapacity),
		}, transmissionFieldSep))
	}
	return strings.Join(records, transmissionRecordSep)
}

// HasExcessCapacity reports whether any point is flagged
func HasExcessCapacity(points []TransmissionPoint) bool {
	for _, p := range points {
		if p.ExcessCapacity {
			return true
		}
	}
	return false
}

func parseExcessFlag(raw string) bool {
	flag := strings.TrimSpace(raw)
	return strings.EqualFold(flag, "true") || flag == "1"
}

func formatCapacity(n Number) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
