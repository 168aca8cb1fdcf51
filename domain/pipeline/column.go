package pipeline

import "strings"

// ColumnMap is the resolved column label for every canonical field of one batch
type ColumnMap map[Field]string

// Label returns the resolved column for a field, or its default label
func (m ColumnMap) Label(field Field) string {
	if label, ok := m[field]; ok {
		return label
	}
	return DefaultLabel(field)
}

// Value returns the trimmed cell for a field
func (m ColumnMap) Value(row RawRow, field Field) string {
	return strings.TrimSpace(row.Get(m.Label(field)))
}

// Resolve finds the header matching the earliest pattern. Patterns are tried in
// order and each one scans the whole header list, so pattern order decides ties.
func Resolve(headers []string, patterns []string) (string, bool) {
	for _, pattern := range patterns {
		needle := strings.ToLower(pattern)
		if needle == "" {
			continue
		}
		for _, header := range headers {
			if header == "" {
				continue
			}
			if strings.Contains(strings.ToLower(header), needle) {
				return header, true
			}
		}
	}
	return "", false
}

// ResolveColumns maps every canonical field onto the batch headers.
// A header equal to the field's own label (case-insensitive) wins over pattern
// matches; fields with no match fall back to their default label.
func ResolveColumns(headers []string) ColumnMap {
	exact := make(map[string]string, len(headers))
	for _, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		if _, seen := exact[key]; !seen && key != "" {
			exact[key] = header
		}
	}

	cols := make(ColumnMap, len(schema))
	for _, def := range schema {
		if header, ok := exact[strings.ToLower(def.Label)]; ok {
			cols[def.Field] = header
			continue
		}
		if header, ok := Resolve(headers, def.Patterns); ok {
			cols[def.Field] = header
			continue
		}
		cols[def.Field] = def.Label
	}
	return cols
}
