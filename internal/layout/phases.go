package layout

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Known phase codes map to the canonical subject list printed on that
// class/stream's feedback sheet. Keys are normalized via NormalizeKey.
var phaseSubjects = map[string][]string{
	"9":       {"Maths", "Science", "Social", "English", "Language"},
	"grade 9": {"Maths", "Science", "Social", "English", "Language"},
	"10":      {"Maths", "Science", "Social", "English", "Language"},
	"grade 10": {
		"Maths", "Science", "Social", "English", "Language",
	},
	"11 jee":  {"Physics", "Chemistry", "Maths", "Computer Science", "English"},
	"12 jee":  {"Physics", "Chemistry", "Maths", "Computer Science", "English"},
	"11 neet": {"Physics", "Chemistry", "Botany", "Zoology", "English"},
	"12 neet": {"Physics", "Chemistry", "Botany", "Zoology", "English"},
}

// DefaultSubjects is the minimal core list used when a phase code is unknown.
// The fallback guarantees the resolver always returns a non-empty list.
func DefaultSubjects() []string {
	return []string{"Physics", "Chemistry", "Maths", "English"}
}

// NormalizeKey canonicalizes a phase code or subject name for table lookup:
// NFKC fold, lower case, trimmed, inner whitespace collapsed.
func NormalizeKey(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// Phases returns a copy of the known phase table, keyed by normalized code.
func Phases() map[string][]string {
	out := make(map[string][]string, len(phaseSubjects))
	for code, subs := range phaseSubjects {
		cp := make([]string, len(subs))
		copy(cp, subs)
		out[code] = cp
	}
	return out
}

// PhaseSubjects resolves a phase code to its canonical subject list.
// The second return reports whether the code matched the known table.
func PhaseSubjects(phase string) ([]string, bool) {
	subs, ok := phaseSubjects[NormalizeKey(phase)]
	if !ok {
		return nil, false
	}
	out := make([]string, len(subs))
	copy(out, subs)
	return out, true
}
