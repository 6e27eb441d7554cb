package layout

// Rating is one discrete response level, mapped 1:1 to a bubble column by its
// position in the ordered rating list. Order is significant.
type Rating struct {
	Label  string
	Weight int
}

// DefaultRatings returns the standard 5-star / 3-star / 1-star scheme in
// column order (leftmost column first).
func DefaultRatings() []Rating {
	return []Rating{
		{Label: "5_star", Weight: 5},
		{Label: "3_star", Weight: 3},
		{Label: "1_star", Weight: 1},
	}
}

// MaxWeight returns the largest weight among the ratings, 0 for an empty list.
func MaxWeight(ratings []Rating) int {
	m := 0
	for _, r := range ratings {
		if r.Weight > m {
			m = r.Weight
		}
	}
	return m
}
