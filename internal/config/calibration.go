package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/omrscore/internal/decoder"
)

// LoadCalibrationFile reads a per-subject calibration table from a YAML file.
//
// The file carries a default block plus optional subject overrides:
//
//	default:
//	  min_area: 60
//	  window: 28
//	subjects:
//	  physics:
//	    min_area: 80
func LoadCalibrationFile(path string) (decoder.CalibrationTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return decoder.CalibrationTable{}, fmt.Errorf("reading calibration file %s: %w", path, err)
	}
	return ParseCalibration(data)
}

// ParseCalibration parses a YAML calibration table. Missing fields inherit
// the built-in defaults.
func ParseCalibration(data []byte) (decoder.CalibrationTable, error) {
	table := decoder.DefaultCalibrationTable()
	if err := yaml.Unmarshal(data, &table); err != nil {
		return decoder.CalibrationTable{}, fmt.Errorf("parsing calibration: %w", err)
	}
	if err := validateCalibration(table); err != nil {
		return decoder.CalibrationTable{}, err
	}
	return table, nil
}

func validateCalibration(table decoder.CalibrationTable) error {
	if err := validateEntry("default", table.Default); err != nil {
		return err
	}
	for name, cal := range table.Subjects {
		if err := validateEntry(name, cal); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(name string, cal decoder.Calibration) error {
	if cal.MinArea < 0 {
		return fmt.Errorf("calibration %s: min_area %d must be non-negative", name, cal.MinArea)
	}
	if cal.Window < 0 {
		return fmt.Errorf("calibration %s: window %d must be non-negative", name, cal.Window)
	}
	return nil
}
