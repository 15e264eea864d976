package swipe

import (
	"slices"

	"github.com/spigell/swipe-responder/internal/scoring"
)

// Median returns the standard median of scores. The input is not modified.
// It returns 0 for an empty slice.
func Median(scores []float64) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Vote is the decision taken on a single profile.
type Vote struct {
	Profile *scoring.Profile
	Accept  bool
}

// Ballot holds the votes of one batch together with its statistics.
type Ballot struct {
	Votes  []Vote
	Scores []float64
	Median float64
}

// Accepted counts the accepting votes.
func (b *Ballot) Accepted() int {
	var n int
	for _, v := range b.Votes {
		if v.Accept {
			n++
		}
	}
	return n
}

// CastVotes accepts every profile scoring at or above the batch median.
// Votes keep the order of profiles.
func CastVotes(profiles []*scoring.Profile) *Ballot {
	scores := make([]float64, 0, len(profiles))
	for _, p := range profiles {
		scores = append(scores, p.Score())
	}

	median := Median(scores)

	votes := make([]Vote, 0, len(profiles))
	for _, p := range profiles {
		votes = append(votes, Vote{Profile: p, Accept: p.Score() >= median})
	}

	return &Ballot{Votes: votes, Scores: scores, Median: median}
}
