package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var yearPattern = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)

// ParseNumber coerces a raw cell into a number. Blank cells, N/A markers,
// spreadsheet error strings and anything unparseable are absent.
func ParseNumber(raw string) Number {
	cleaned := cleanNumeric(raw)
	if isSentinel(cleaned) {
		return Number{}
	}
	return parseFloat(cleaned)
}

// ParsePercent is ParseNumber after dropping a trailing percent sign. The
// value is not rescaled.
func ParsePercent(raw string) Number {
	cleaned := cleanNumeric(raw)
	if isSentinel(cleaned) {
		return Number{}
	}
	cleaned = strings.TrimSuffix(cleaned, "%")
	return parseFloat(cleaned)
}

// ExtractYear returns the first standalone four digit run when it lies in
// [1900, currentYear+10]. Formula text is never treated as a year.
func ExtractYear(raw string, currentYear int) Number {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" || strings.EqualFold(cleaned, "n/a") || strings.Contains(cleaned, "#") {
		return Number{}
	}
	upper := strings.ToUpper(cleaned)
	if strings.Contains(upper, "XLOOKUP") || strings.HasPrefix(cleaned, "=") {
		return Number{}
	}
	match := yearPattern.FindStringSubmatch(cleaned)
	if match == nil {
		return Number{}
	}
	year, err := strconv.Atoi(match[1])
	if err != nil || year < 1900 || year > currentYear+10 {
		return Number{}
	}
	return Num(float64(year))
}

// FormatCapacityFactor renders a capacity factor cell for display. Percent
// strings pass through, plain fractions are scaled by 100 with one decimal,
// and anything else renders as "".
func FormatCapacityFactor(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return ""
	}
	if strings.Contains(cleaned, "%") {
		return cleaned
	}
	n := ParseNumber(cleaned)
	if !n.Valid {
		return ""
	}
	return fmt.Sprintf("%.1f%%", n.Value*100)
}

// CapacityFactorPercent returns the capacity factor on a 0-100 scale
func CapacityFactorPercent(raw string) Number {
	cleaned := strings.TrimSpace(raw)
	if strings.Contains(cleaned, "%") {
		return ParsePercent(cleaned)
	}
	n := ParseNumber(cleaned)
	if !n.Valid {
		return n
	}
	return Num(n.Value * 100)
}

func cleanNumeric(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isSentinel(cleaned string) bool {
	return cleaned == "" || strings.EqualFold(cleaned, "n/a") || strings.Contains(cleaned, "#")
}

func parseFloat(s string) Number {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Num(v)
}
