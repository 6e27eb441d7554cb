// Package layout derives the ordered subject list and per-subject page bands
// for a feedback sheet, either from an explicit subject list or from a
// class/stream phase code.
package layout

import (
	"fmt"

	"github.com/MeKo-Tech/omrscore/internal/utils"
)

// Subject names one scored area of the sheet together with its band.
type Subject struct {
	Name string
	Band utils.FracBand
}

// Config carries the geometric constants of the printed sheet as explicit
// values so multiple layouts can coexist in one process.
type Config struct {
	// SpanStart/SpanEnd bound the usable vertical page fraction that subject
	// bands are packed into.
	SpanStart float64
	SpanEnd   float64
	// BandFill is the fraction of each subject's equal share its band
	// occupies; the remainder is the visual gap before the next band.
	BandFill float64
	// Columns are the default bubble-column x fractions, one per rating.
	Columns []float64
	// Ratings is the ordered, column-aligned rating list.
	Ratings []Rating
}

// DefaultConfig returns the layout of the standard printed feedback sheet.
func DefaultConfig() Config {
	return Config{
		SpanStart: 0.12,
		SpanEnd:   0.96,
		BandFill:  0.85,
		Columns:   []float64{0.55, 0.70, 0.85},
		Ratings:   DefaultRatings(),
	}
}

// LayoutError indicates that no subjects could be resolved. Since the phase
// fallback guarantees a non-empty list, it only occurs when the caller passes
// an empty explicit list and no phase code.
type LayoutError struct {
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout: %s", e.Reason)
}

// Resolve produces the ordered subject list with per-subject bands. An
// explicit subject list takes precedence over the phase code. An unknown
// phase code falls back to the default subject list rather than failing.
func Resolve(subjects []string, phase string, cfg Config) ([]Subject, error) {
	names := cleanNames(subjects)
	if len(names) == 0 {
		if phase == "" {
			return nil, &LayoutError{Reason: "no subjects and no phase code supplied"}
		}
		var ok bool
		names, ok = PhaseSubjects(phase)
		if !ok {
			names = DefaultSubjects()
		}
	}
	return Bands(names, cfg), nil
}

// Bands partitions the usable vertical span evenly across the subjects in
// list order. Each band occupies BandFill of its share, so bands never
// overlap and a gap remains before the next subject regardless of count.
func Bands(names []string, cfg Config) []Subject {
	span := cfg.SpanEnd - cfg.SpanStart
	share := span / float64(len(names))
	out := make([]Subject, len(names))
	for i, name := range names {
		start := cfg.SpanStart + float64(i)*share
		cols := make([]float64, len(cfg.Columns))
		copy(cols, cfg.Columns)
		out[i] = Subject{
			Name: name,
			Band: utils.FracBand{
				YStart:  start,
				YEnd:    start + share*cfg.BandFill,
				Columns: cols,
			},
		}
	}
	return out
}

func cleanNames(subjects []string) []string {
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if NormalizeKey(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
