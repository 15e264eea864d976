package scoring

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func baseRecord() Record {
	return Record{
		ID:         "u1",
		Name:       "Anna",
		BirthDate:  "2002-03-14T00:00:00.000Z",
		PhotoCount: 3,
		Bio:        "",
		Distance:   5,
		City:       "Berlin",
		Interests:  []string{"Coffee"},
	}
}

func mustProfile(t *testing.T, r Record, w *WeightTable) *Profile {
	t.Helper()
	p, err := NewProfile(r, w, testNow)
	require.NoError(t, err)
	return p
}

func TestScoreDocumentedExample(t *testing.T) {
	w := MustWeightTable(DefaultConfig())

	p := mustProfile(t, baseRecord(), w)

	assert.Equal(t, 22, p.Age())
	// 3*3 + 4 + 5 + 0 - 10 - 5 + 10*sin(-40/200) + 0 + 0
	assert.Equal(t, 1.01, p.Score())

	terms := Breakdown(p, w)
	assert.Equal(t, 9.0, terms.Photos)
	assert.Equal(t, 4.0, terms.Interests)
	assert.Equal(t, 5.0, terms.City)
	assert.Equal(t, 0.0, terms.Age)
	assert.InDelta(t, -15+10*math.Sin(-0.2), terms.Bio, 1e-9)
	assert.Equal(t, 0.0, terms.Distance)
	assert.Equal(t, 0.0, terms.Badges)
}

func TestScoreIsDeterministic(t *testing.T) {
	w := MustWeightTable(DefaultConfig())
	r := baseRecord()
	r.Bio = "Coffee first, questions later. Looking for someone to hike with."
	r.Distance = 27.5
	r.BadgeCount = 1

	first := mustProfile(t, r, w)
	for i := 0; i < 10; i++ {
		again := mustProfile(t, r, w)
		require.Equal(t, first.Score(), again.Score())
		require.Equal(t, first.Score(), Score(again, w))
	}
}

func TestPhotoTerm(t *testing.T) {
	w := MustWeightTable(DefaultConfig())

	tests := []struct {
		name   string
		photos int
		expect float64
	}{
		{name: "no photos", photos: 0, expect: 0},
		{name: "single photo is penalized", photos: 1, expect: -10},
		{name: "two photos", photos: 2, expect: 6},
		{name: "nine photos", photos: 9, expect: 27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRecord()
			r.PhotoCount = tt.photos
			assert.Equal(t, tt.expect, Breakdown(mustProfile(t, r, w), w).Photos)
		})
	}
}

func TestScoreIncreasesWithPhotos(t *testing.T) {
	w := MustWeightTable(DefaultConfig())

	prev := math.Inf(-1)
	for photos := 2; photos <= 9; photos++ {
		r := baseRecord()
		r.PhotoCount = photos
		score := mustProfile(t, r, w).Score()
		require.Greater(t, score, prev, "photos=%d", photos)
		prev = score
	}
}

func TestScoreDecreasesBeyondMinimumDistance(t *testing.T) {
	w := MustWeightTable(DefaultConfig())

	r := baseRecord()
	r.Distance = 0
	near := mustProfile(t, r, w).Score()
	r.Distance = 10
	assert.Equal(t, near, mustProfile(t, r, w).Score(), "no penalty within the threshold")

	prev := math.Inf(1)
	for d := 11.0; d <= 40; d++ {
		r.Distance = d
		p := mustProfile(t, r, w)
		require.InDelta(t, -(d-10)*0.4, Breakdown(p, w).Distance, 1e-9)
		require.Less(t, p.Score(), prev, "distance=%v", d)
		prev = p.Score()
	}
}

func TestAgeTermIsSymmetric(t *testing.T) {
	w := MustWeightTable(DefaultConfig())

	younger := baseRecord()
	younger.BirthDate = "2004-01-01" // 20
	older := baseRecord()
	older.BirthDate = "2000-01-01" // 24

	py := mustProfile(t, younger, w)
	po := mustProfile(t, older, w)

	assert.Equal(t, 20, py.Age())
	assert.Equal(t, 24, po.Age())
	assert.Equal(t, -10.0, Breakdown(py, w).Age)
	assert.Equal(t, Breakdown(py, w).Age, Breakdown(po, w).Age)
	assert.Equal(t, py.Score(), po.Score())
}

func TestBioPenaltiesStack(t *testing.T) {
	cfg := DefaultConfig()
	w := MustWeightTable(cfg)

	tests := []struct {
		name   string
		bio    string
		expect float64
	}{
		{name: "empty bio gets both penalties", bio: "", expect: -15 + BioCurve(0, cfg)},
		{name: "short bio", bio: "hi there", expect: -5 + BioCurve(8, cfg)},
		{name: "exactly at threshold", bio: strings.Repeat("x", 20), expect: BioCurve(20, cfg)},
		{name: "length counts runes", bio: strings.Repeat("ü", 19), expect: -5 + BioCurve(19, cfg)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRecord()
			r.Bio = tt.bio
			assert.InDelta(t, tt.expect, Breakdown(mustProfile(t, r, w), w).Bio, 1e-9)
		})
	}
}

func TestBioCurveHasSingleInteriorMaximum(t *testing.T) {
	cfg := DefaultConfig()

	for n := 1; n <= 354; n++ {
		require.Greater(t, BioCurve(n, cfg), BioCurve(n-1, cfg), "n=%d", n)
	}
	for n := 355; n <= 500; n++ {
		require.Less(t, BioCurve(n, cfg), BioCurve(n-1, cfg), "n=%d", n)
	}
	assert.Less(t, BioCurve(0, cfg), 0.0)
}

func TestCityAndInterestLookups(t *testing.T) {
	w := MustWeightTable(DefaultConfig())

	assert.Equal(t, 5, w.City("Berlin"))
	assert.Equal(t, 5, w.City("  berlin "))
	assert.Equal(t, -1, w.City(""), "unset city")
	assert.Equal(t, 0, w.City("Lisbon"), "unknown city")

	assert.Equal(t, 4, w.Interest("Coffee"))
	assert.Equal(t, 2, w.Interest("board games"))
	assert.Equal(t, 0, w.Interest("Skydiving"))

	r := baseRecord()
	r.City = ""
	r.Interests = []string{"Coffee", "Instagram", "Skydiving"}
	p := mustProfile(t, r, w)
	terms := Breakdown(p, w)
	assert.Equal(t, -1.0, terms.City)
	assert.Equal(t, 0.0, terms.Interests)
}

func TestBadgeBonus(t *testing.T) {
	w := MustWeightTable(DefaultConfig())

	r := baseRecord()
	without := mustProfile(t, r, w)
	r.BadgeCount = 3
	with := mustProfile(t, r, w)

	assert.Equal(t, 20.0, Breakdown(with, w).Badges)
	assert.InDelta(t, without.Score()+20, with.Score(), 1e-9)
}

func TestNewProfileRejectsMissingBirthYear(t *testing.T) {
	w := MustWeightTable(DefaultConfig())

	for _, date := range []string{"", "   ", "19", "abcd-01-01"} {
		r := baseRecord()
		r.BirthDate = date
		_, err := NewProfile(r, w, testNow)
		require.ErrorIs(t, err, ErrMalformedProfile, "birth date %q", date)
	}
}

func TestNewProfileDoesNotAliasInterests(t *testing.T) {
	w := MustWeightTable(DefaultConfig())
	r := baseRecord()

	p := mustProfile(t, r, w)
	r.Interests[0] = "Instagram"

	assert.Equal(t, []string{"Coffee"}, p.Interests())
	assert.Equal(t, 1.01, p.Score())
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in     float64
		expect float64
	}{
		{in: 1.0133, expect: 1.01},
		{in: 0.125, expect: 0.12},
		{in: 0.375, expect: 0.38},
		{in: 0.625, expect: 0.62},
		{in: -0.125, expect: -0.12},
		{in: 2.675, expect: 2.67},
		{in: -15.5, expect: -15.5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, round2(tt.in), "round2(%v)", tt.in)
	}
}

func TestProfileAccessorsDoNotExposeState(t *testing.T) {
	w := MustWeightTable(DefaultConfig())
	p := mustProfile(t, baseRecord(), w)

	interests := p.Interests()
	interests[0] = "Instagram"

	assert.Equal(t, []string{"Coffee"}, p.Interests())
	assert.Equal(t, Score(p, w), p.Score(), "cached score matches a fresh computation")
}

func TestWeightTableIsDetachedFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	w := MustWeightTable(cfg)

	cfg.Interests["Coffee"] = -100
	cfg.Cities["Berlin"] = -100

	assert.Equal(t, 4, w.Interest("Coffee"))
	assert.Equal(t, 5, w.City("Berlin"))

	copied := w.Config()
	copied.Interests["coffee"] = -100
	assert.Equal(t, 4, w.Interest("Coffee"))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.PreferredAge = 0
	cfg.BioCurveScale = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preferred-age")
	assert.Contains(t, err.Error(), "bio-curve-scale")

	_, err = NewWeightTable(cfg)
	require.Error(t, err)
}
