// Package scoring maps a candidate's attributes to a desirability score using
// a fixed, additive point model.
package scoring

import (
	"math"
	"strconv"
)

// Terms is the per-attribute breakdown of a score before rounding.
type Terms struct {
	Photos    float64
	Interests float64
	City      float64
	Age       float64
	Bio       float64
	Distance  float64
	Badges    float64
}

// Sum adds up all terms without rounding.
func (t Terms) Sum() float64 {
	return t.Photos + t.Interests + t.City + t.Age + t.Bio + t.Distance + t.Badges
}

// Score computes the rounded score of p. It has no side effects.
func Score(p *Profile, w *WeightTable) float64 {
	return round2(Breakdown(p, w).Sum())
}

// Breakdown computes every term of the score independently.
func Breakdown(p *Profile, w *WeightTable) Terms {
	cfg := &w.cfg

	return Terms{
		Photos:    photoTerm(p.photos, cfg),
		Interests: interestTerm(p.interests, w),
		City:      float64(w.City(p.city)),
		Age:       ageTerm(p.age, cfg),
		Bio:       bioTerm(p.BioLength(), cfg),
		Distance:  distanceTerm(p.distance, cfg),
		Badges:    badgeTerm(p.badges, cfg),
	}
}

// BioCurve is the smooth part of the bio term for a bio of n runes.
func BioCurve(n int, cfg Config) float64 {
	return cfg.BioMultiplier * math.Sin((float64(n)-cfg.BioCurveOffset)/cfg.BioCurveScale)
}

func photoTerm(photos int, cfg *Config) float64 {
	// A single photo is a common pattern for low-effort profiles.
	if photos == 1 {
		return -cfg.SinglePhotoPenalty
	}
	return float64(photos) * cfg.PointsPerPhoto
}

func interestTerm(interests []string, w *WeightTable) float64 {
	var sum int
	for _, it := range interests {
		sum += w.Interest(it)
	}
	return float64(sum)
}

func ageTerm(age int, cfg *Config) float64 {
	diff := cfg.PreferredAge - age
	if diff < 0 {
		diff = -diff
	}
	return -float64(diff) * cfg.PointsPerYear
}

func bioTerm(n int, cfg *Config) float64 {
	var score float64
	if n == 0 {
		score -= cfg.EmptyBioPenalty
	}
	// Stacks with the empty bio penalty.
	if n < cfg.ShortBioLength {
		score -= cfg.ShortBioPenalty
	}
	return score + BioCurve(n, *cfg)
}

func distanceTerm(distance float64, cfg *Config) float64 {
	if distance <= cfg.MinimumDistance {
		return 0
	}
	return -(distance - cfg.MinimumDistance) * cfg.DistancePenalty
}

func badgeTerm(badges int, cfg *Config) float64 {
	if badges > 0 {
		return cfg.BadgeBonus
	}
	return 0
}

// round2 rounds the exact binary value to two decimals, ties to even.
// Scaling by 100 first would round 0.625 up to 0.63.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
