// Package score converts aggregated rating counts into weighted percentages
// and pass/fail verdicts.
package score

import (
	"math"

	"github.com/MeKo-Tech/omrscore/internal/decoder"
	"github.com/MeKo-Tech/omrscore/internal/layout"
)

// Verdict is the categorical outcome of a subject against the active policy.
type Verdict string

const (
	Pass Verdict = "Pass"
	Fail Verdict = "Fail"
)

// Config carries the scoring policy as explicit values so multiple weight
// schemes and cutoffs can coexist in one process.
type Config struct {
	// PassCutoff is the percentage at or above which a subject passes under
	// the global percentage policy.
	PassCutoff float64
	// ResponseCutoff is the minimum number of marked responses for subjects
	// under the stricter completion policy.
	ResponseCutoff int
	// ResponseSubjects lists the subjects (any casing) scored by response
	// count instead of percentage.
	ResponseSubjects []string
}

// DefaultConfig returns the standard policy: 80% percentage cutoff, with the
// response-count policy requiring 16 of 20 when applied.
func DefaultConfig() Config {
	return Config{PassCutoff: 80, ResponseCutoff: 16}
}

// WeightedScore is the sum of count times weight over all ratings.
func WeightedScore(counts decoder.Counts, ratings []layout.Rating) int {
	sum := 0
	for _, r := range ratings {
		sum += counts[r.Label] * r.Weight
	}
	return sum
}

// MaxScore is the highest achievable weighted score: responses times
// questions times the maximum rating weight.
func MaxScore(ratings []layout.Rating, responses, questions int) int {
	if responses < 0 {
		responses = 0
	}
	return responses * questions * layout.MaxWeight(ratings)
}

// Percentage converts counts into a weighted percentage of the maximum
// possible score, clamped to [0, 100] and rounded to two decimals. A zero
// maximum yields 0, never a division by zero.
func Percentage(counts decoder.Counts, ratings []layout.Rating, responses, questions int) float64 {
	maxScore := MaxScore(ratings, responses, questions)
	if maxScore == 0 {
		return 0
	}
	pct := 100 * float64(WeightedScore(counts, ratings)) / float64(maxScore)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*100) / 100
}

// usesResponsePolicy reports whether the subject falls under the stricter
// response-count completion policy.
func (c Config) usesResponsePolicy(subject string) bool {
	key := layout.NormalizeKey(subject)
	for _, s := range c.ResponseSubjects {
		if layout.NormalizeKey(s) == key {
			return true
		}
	}
	return false
}

// Evaluate returns the verdict for a subject: percentage against PassCutoff
// globally, or marked-response count against ResponseCutoff for subjects
// under the stricter policy.
func (c Config) Evaluate(subject string, counts decoder.Counts, ratings []layout.Rating,
	responses, questions int,
) Verdict {
	if c.usesResponsePolicy(subject) {
		if counts.Total() >= c.ResponseCutoff {
			return Pass
		}
		return Fail
	}
	if Percentage(counts, ratings, responses, questions) >= c.PassCutoff {
		return Pass
	}
	return Fail
}
