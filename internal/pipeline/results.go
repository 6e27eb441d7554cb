package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/omrscore/internal/decoder"
	"github.com/MeKo-Tech/omrscore/internal/layout"
	"github.com/MeKo-Tech/omrscore/internal/score"
)

// SubjectResult is the aggregated, scored outcome for one subject band.
type SubjectResult struct {
	Name       string         `json:"name"`
	Counts     decoder.Counts `json:"counts"`
	Percentage float64        `json:"percentage"`
	Verdict    score.Verdict  `json:"verdict"`
}

// FormResult carries the per-form counts before aggregation, for callers
// that need individual respondent breakdowns.
type FormResult struct {
	Page        int                       `json:"page"`
	Form        int                       `json:"form"`
	Counts      map[string]decoder.Counts `json:"counts"`
	Percentages map[string]float64        `json:"percentages"`
}

// Result is the complete outcome of one decoding run.
type Result struct {
	Subjects  []SubjectResult `json:"subjects"`
	Forms     []FormResult    `json:"forms,omitempty"`
	Pages     int             `json:"pages"`
	Responses int             `json:"responses"`
}

// Subject returns the result for the named subject, if present.
func (r *Result) Subject(name string) (SubjectResult, bool) {
	key := layout.NormalizeKey(name)
	for _, sub := range r.Subjects {
		if layout.NormalizeKey(sub.Name) == key {
			return sub, true
		}
	}
	return SubjectResult{}, false
}

// WriteJSON writes the result as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

// WriteText writes a human-readable summary, one block per subject.
func (r *Result) WriteText(w io.Writer, ratings []layout.Rating) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Pages: %d  Responses: %d\n", r.Pages, r.Responses)
	for _, sub := range r.Subjects {
		fmt.Fprintf(&b, "\n%s:\n", sub.Name)
		for _, rt := range ratings {
			fmt.Fprintf(&b, "  %-12s %d\n", rt.Label, sub.Counts[rt.Label])
		}
		fmt.Fprintf(&b, "  %-12s %.2f%%\n", "percentage", sub.Percentage)
		fmt.Fprintf(&b, "  %-12s %s\n", "verdict", sub.Verdict)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing text summary: %w", err)
	}
	return nil
}

// WriteCSV writes one row per subject with a column per rating label.
func (r *Result) WriteCSV(w io.Writer, ratings []layout.Rating) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(ratings)+3)
	header = append(header, "subject")
	for _, rt := range ratings {
		header = append(header, rt.Label)
	}
	header = append(header, "percentage", "verdict")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, sub := range r.Subjects {
		row := make([]string, 0, len(header))
		row = append(row, sub.Name)
		for _, rt := range ratings {
			row = append(row, strconv.Itoa(sub.Counts[rt.Label]))
		}
		row = append(row,
			strconv.FormatFloat(sub.Percentage, 'f', 2, 64),
			string(sub.Verdict))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
