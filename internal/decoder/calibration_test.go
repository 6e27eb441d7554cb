package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrationLookupDefault(t *testing.T) {
	table := DefaultCalibrationTable()
	cal := table.Lookup("Physics")
	assert.Equal(t, DefaultCalibration(), cal)
}

func TestCalibrationLookupOverride(t *testing.T) {
	table := CalibrationTable{
		Default: DefaultCalibration(),
		Subjects: map[string]Calibration{
			"language": {MinArea: 40, Enhance: true},
		},
	}

	cal := table.Lookup("  Language ")
	assert.Equal(t, 40, cal.MinArea)
	assert.True(t, cal.Enhance)
	// Unset fields inherit the default.
	assert.Equal(t, DefaultCalibration().Window, cal.Window)
}

func TestCalibrationLookupZeroDefaultRepaired(t *testing.T) {
	table := CalibrationTable{}
	cal := table.Lookup("anything")
	assert.Equal(t, DefaultCalibration().MinArea, cal.MinArea)
	assert.Equal(t, DefaultCalibration().Window, cal.Window)
}
