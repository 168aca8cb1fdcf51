package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  float64
		valid bool
	}{
		{"plain", "42", 42, true},
		{"thousands separators", "1,234.5", 1234.5, true},
		{"surrounding whitespace", "  7.25 ", 7.25, true},
		{"true zero", "0", 0, true},
		{"negative", "-3", -3, true},
		{"empty", "", 0, false},
		{"blank", "   ", 0, false},
		{"n/a upper", "N/A", 0, false},
		{"n/a lower", "n/a", 0, false},
		{"excel n/a", "#N/A", 0, false},
		{"excel value error", "#VALUE!", 0, false},
		{"hash anywhere", "12#", 0, false},
		{"text", "about forty", 0, false},
		{"nan literal", "NaN", 0, false},
		{"inf literal", "Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumber(tt.raw)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want, got.Value, 1e-9)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"45%", 45, true},
		{"45.5 %", 45.5, true},
		{"0.45", 0.45, true},
		{"#DIV/0!", 0, false},
		{"%", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got := ParsePercent(tt.raw)
		assert.Equal(t, tt.valid, got.Valid, "input %q", tt.raw)
		if tt.valid {
			assert.InDelta(t, tt.want, got.Value, 1e-9, "input %q", tt.raw)
		}
	}
}

func TestExtractYear(t *testing.T) {
	const currentYear = 2025

	tests := []struct {
		name  string
		raw   string
		want  float64
		valid bool
	}{
		{"bare year", "1994", 1994, true},
		{"embedded in text", "COD: 1998 (est.)", 1998, true},
		{"date string", "2004-06-01", 2004, true},
		{"upper bound inclusive", "2035", 2035, true},
		{"beyond window", "2036", 0, false},
		{"far future", "2999", 0, false},
		{"before 1900", "1899", 0, false},
		{"five digits", "12345", 0, false},
		{"xlookup formula", "XLOOKUP(A2,Sheet2!A:A,Sheet2!B:B)", 0, false},
		{"formula prefix", "=YEAR(B2)", 0, false},
		{"error marker", "#N/A", 0, false},
		{"n/a", "N/A", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractYear(tt.raw, currentYear)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Value)
			}
		})
	}
}

func TestFormatCapacityFactor(t *testing.T) {
	assert.Equal(t, "45%", FormatCapacityFactor("45%"))
	assert.Equal(t, "45.3%", FormatCapacityFactor("0.453"))
	assert.Equal(t, "0.0%", FormatCapacityFactor("0"))
	assert.Equal(t, "", FormatCapacityFactor("unknown"))
	assert.Equal(t, "", FormatCapacityFactor("#N/A"))
	assert.Equal(t, "", FormatCapacityFactor(""))
}

func TestCapacityFactorPercent(t *testing.T) {
	assert.InDelta(t, 45.3, CapacityFactorPercent("0.453").Value, 1e-9)
	assert.InDelta(t, 38, CapacityFactorPercent("38%").Value, 1e-9)
	assert.False(t, CapacityFactorPercent("n/a").Valid)
}

func TestNumberJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Number `json:"a"`
		B Number `json:"b"`
	}{A: Num(1.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

	var n Number
	require.NoError(t, json.Unmarshal([]byte("null"), &n))
	assert.False(t, n.Valid)
	require.NoError(t, json.Unmarshal([]byte("12"), &n))
	assert.Equal(t, Num(12), n)
}

func TestNumberHelpers(t *testing.T) {
	assert.False(t, Num(-1).NonNegative().Valid)
	assert.True(t, Num(0).NonNegative().Valid)
	assert.False(t, Num(0).Positive().Valid)
	assert.Equal(t, 5.0, Number{}.Or(5))
	assert.Equal(t, 2.0, Num(2).Or(5))
}
