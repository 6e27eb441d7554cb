package decoder

import (
	"github.com/MeKo-Tech/omrscore/internal/layout"
)

// Calibration holds the per-subject detection tuning. Some subjects mark
// systematically fainter or noisier; the table compensates without baking
// subject identity into the algorithm.
type Calibration struct {
	// MinArea is the minimum connected-ink area (pixels) for a bubble region
	// to count as marked.
	MinArea int `mapstructure:"min_area" yaml:"min_area" json:"min_area"`
	// Window is the side length of the square examined around each bubble
	// column position.
	Window int `mapstructure:"window" yaml:"window" json:"window"`
	// Enhance applies one morphological dilation to the ink mask before
	// component analysis, thickening faint strokes.
	Enhance bool `mapstructure:"enhance" yaml:"enhance" json:"enhance"`
}

// DefaultCalibration returns the tuning used when a subject has no override.
// Thresholds are tuned empirically against the target scanner and paper stock.
func DefaultCalibration() Calibration {
	return Calibration{MinArea: 60, Window: 28, Enhance: false}
}

// CalibrationTable maps normalized subject keys to calibration overrides,
// with a default entry for unmatched subjects.
type CalibrationTable struct {
	Default  Calibration            `mapstructure:"default" yaml:"default" json:"default"`
	Subjects map[string]Calibration `mapstructure:"subjects" yaml:"subjects" json:"subjects"`
}

// DefaultCalibrationTable returns a table with only the default entry.
func DefaultCalibrationTable() CalibrationTable {
	return CalibrationTable{Default: DefaultCalibration()}
}

// Lookup returns the calibration for a subject, falling back to the default
// entry. Missing fields in an override inherit the default values.
func (t CalibrationTable) Lookup(subject string) Calibration {
	cal := t.Default
	if cal.MinArea <= 0 {
		cal.MinArea = DefaultCalibration().MinArea
	}
	if cal.Window <= 0 {
		cal.Window = DefaultCalibration().Window
	}
	over, ok := t.Subjects[layout.NormalizeKey(subject)]
	if !ok {
		return cal
	}
	if over.MinArea > 0 {
		cal.MinArea = over.MinArea
	}
	if over.Window > 0 {
		cal.Window = over.Window
	}
	cal.Enhance = over.Enhance
	return cal
}
