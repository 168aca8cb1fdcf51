package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransmission_TwoPoints(t *testing.T) {
	points := ParseTransmission("69 kV|143.9|144.2|-|true;138 kV|549.5|95.5|-|true")

	require.Len(t, points, 2)
	assert.Equal(t, "69 kV", points[0].Voltage)
	assert.Equal(t, Num(143.9), points[0].InjectionMW)
	assert.Equal(t, Num(144.2), points[0].WithdrawalMW)
	assert.Equal(t, "-", points[0].Constraints)
	assert.True(t, points[0].ExcessCapacity)
	assert.Equal(t, "138 kV", points[1].Voltage)
	assert.Equal(t, Num(95.5), points[1].WithdrawalMW)
}

func TestParseTransmission_DropsShortRecords(t *testing.T) {
	points := ParseTransmission("69 kV|1|2;138 kV|549.5|95.5|-|false")

	require.Len(t, points, 1)
	assert.Equal(t, "138 kV", points[0].Voltage)
	assert.False(t, points[0].ExcessCapacity)
}

func TestParseTransmission_Blank(t *testing.T) {
	for _, cell := range []string{"", "   ", ";;"} {
		points := ParseTransmission(cell)
		assert.NotNil(t, points, "cell %q", cell)
		assert.Empty(t, points, "cell %q", cell)
	}
}

func TestParseTransmission_Fields(t *testing.T) {
	points := ParseTransmission(" 345 kV | n/a | 12 | Thermal limit | TRUE ;230 kV|1,200|x|-|1;115 kV|5|5|-|yes")

	require.Len(t, points, 3)
	assert.Equal(t, "345 kV", points[0].Voltage)
	assert.False(t, points[0].InjectionMW.Valid)
	assert.Equal(t, Num(12), points[0].WithdrawalMW)
	assert.Equal(t, "Thermal limit", points[0].Constraints)
	assert.True(t, points[0].ExcessCapacity)

	assert.Equal(t, Num(1200), points[1].InjectionMW)
	assert.False(t, points[1].WithdrawalMW.Valid)
	assert.True(t, points[1].ExcessCapacity)

	assert.False(t, points[2].ExcessCapacity)
}

func TestFormatTransmission_RoundTrip(t *testing.T) {
	cell := "69 kV|143.9|144.2|-|true;138 kV|549.5|95.5|-|false"

	assert.Equal(t, cell, FormatTransmission(ParseTransmission(cell)))
	assert.Equal(t, "", FormatTransmission(nil))
}

func TestHasExcessCapacity(t *testing.T) {
	assert.False(t, HasExcessCapacity(nil))
	assert.True(t, HasExcessCapacity([]TransmissionPoint{{}, {ExcessCapacity: true}}))
}
