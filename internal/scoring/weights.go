package scoring

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Config is the user-facing shape of the weight table. Keys of Interests and
// Cities are matched case-insensitively.
type Config struct {
	Interests map[string]int `mapstructure:"interests" json:"interests"`
	Cities    map[string]int `mapstructure:"cities" json:"cities"`
	UnsetCity int            `mapstructure:"unset-city" json:"unset_city"`

	PointsPerPhoto     float64 `mapstructure:"points-per-photo" json:"points_per_photo"`
	SinglePhotoPenalty float64 `mapstructure:"single-photo-penalty" json:"single_photo_penalty"`

	PreferredAge  int     `mapstructure:"preferred-age" json:"preferred_age"`
	PointsPerYear float64 `mapstructure:"points-per-year" json:"points_per_year"`

	EmptyBioPenalty float64 `mapstructure:"empty-bio-penalty" json:"empty_bio_penalty"`
	ShortBioPenalty float64 `mapstructure:"short-bio-penalty" json:"short_bio_penalty"`
	ShortBioLength  int     `mapstructure:"short-bio-length" json:"short_bio_length"`
	BioMultiplier   float64 `mapstructure:"bio-multiplier" json:"bio_multiplier"`
	BioCurveOffset  float64 `mapstructure:"bio-curve-offset" json:"bio_curve_offset"`
	BioCurveScale   float64 `mapstructure:"bio-curve-scale" json:"bio_curve_scale"`

	MinimumDistance float64 `mapstructure:"minimum-distance" json:"minimum_distance"`
	DistancePenalty float64 `mapstructure:"distance-penalty" json:"distance_penalty"`

	BadgeBonus float64 `mapstructure:"badge-bonus" json:"badge_bonus"`
}

// DefaultConfig returns the built-in weights.
func DefaultConfig() Config {
	return Config{
		Interests: map[string]int{
			"Baking":            3,
			"Board Games":       2,
			"Golf":              0,
			"Politics":          -1,
			"Netflix":           -2,
			"Dancing":           3,
			"Volunteering":      3,
			"Climbing":          3,
			"Dog lover":         3,
			"Working out":       3,
			"Photography":       2,
			"Outdoors":          3,
			"Instagram":         -4,
			"Language Exchange": 3,
			"Museum":            2,
			"Grab a drink":      0,
			"Picnicking":        1,
			"Travel":            3,
			"Brunch":            0,
			"Disney":            -1,
			"Blogging":          1,
			"Vlogging":          1,
			"Cat lover":         0,
			"Movies":            0,
			"Comedy":            1,
			"Fashion":           0,
			"Karaoke":           1,
			"Shopping":          -3,
			"Wine":              1,
			"Art":               1,
			"Soccer":            -2,
			"Writer":            3,
			"Reading":           1,
			"Trivia":            0,
			"Coffee":            4,
			"Craft Beer":        3,
			"Yoga":              3,
			"Cooking":           4,
			"Tea":               3,
			"Music":             2,
			"Astrology":         -2,
			"Fishing":           0,
			"Environmentalism":  1,
			"Gamer":             -1,
			"Walking":           2,
			"Foodie":            0,
			"Sports":            2,
			"DIY":               3,
			"Gardening":         4,
			"Athlete":           3,
			"Hiking":            3,
			"Surfing":           4,
			"Swimming":          3,
			"Running":           3,
			"Cycling":           3,
			"Spirituality":      2,
		},
		Cities: map[string]int{
			"Berlin":   5,
			"New York": -5,
		},
		UnsetCity: -1,

		PointsPerPhoto:     3,
		SinglePhotoPenalty: 10,

		PreferredAge:  22,
		PointsPerYear: 5,

		EmptyBioPenalty: 10,
		ShortBioPenalty: 5,
		ShortBioLength:  20,
		BioMultiplier:   10,
		BioCurveOffset:  40,
		BioCurveScale:   200,

		MinimumDistance: 10,
		DistancePenalty: 0.4,

		BadgeBonus: 20,
	}
}

// Validate reports settings that would make the scoring formulas meaningless.
func (c Config) Validate() error {
	var errs []error

	if c.PreferredAge <= 0 {
		errs = append(errs, fmt.Errorf("preferred-age must be positive, got %d", c.PreferredAge))
	}
	if c.BioCurveScale == 0 {
		errs = append(errs, errors.New("bio-curve-scale must not be zero"))
	}
	if c.MinimumDistance < 0 {
		errs = append(errs, fmt.Errorf("minimum-distance must not be negative, got %v", c.MinimumDistance))
	}
	if c.ShortBioLength < 0 {
		errs = append(errs, fmt.Errorf("short-bio-length must not be negative, got %d", c.ShortBioLength))
	}

	return errors.Join(errs...)
}

// WeightTable is the read-only weight configuration used by Score.
// It is safe for concurrent use since nothing mutates it after NewWeightTable.
type WeightTable struct {
	interests map[string]int
	cities    map[string]int
	cfg       Config
}

// NewWeightTable validates cfg and freezes it into a WeightTable.
func NewWeightTable(cfg Config) (*WeightTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}

	t := &WeightTable{
		interests: normalizeKeys(cfg.Interests),
		cities:    normalizeKeys(cfg.Cities),
		cfg:       cfg,
	}
	// The copy held in cfg must not alias caller-owned maps.
	t.cfg.Interests = maps.Clone(t.interests)
	t.cfg.Cities = maps.Clone(t.cities)

	return t, nil
}

// MustWeightTable is like NewWeightTable but panics on invalid configuration.
func MustWeightTable(cfg Config) *WeightTable {
	t, err := NewWeightTable(cfg)
	if err != nil {
		panic(err)
	}
	return t
}

// Interest returns the weight for an interest tag, 0 when unknown.
func (t *WeightTable) Interest(name string) int {
	return t.interests[normalizeKey(name)]
}

// City returns the weight for a declared city. An unset city yields the
// configured UnsetCity weight, an unknown one yields 0.
func (t *WeightTable) City(name string) int {
	key := normalizeKey(name)
	if key == "" {
		return t.cfg.UnsetCity
	}
	return t.cities[key]
}

// Config returns a copy of the configuration the table was built from.
func (t *WeightTable) Config() Config {
	cfg := t.cfg
	cfg.Interests = maps.Clone(t.cfg.Interests)
	cfg.Cities = maps.Clone(t.cfg.Cities)
	return cfg
}

func normalizeKeys(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[normalizeKey(k)] = v
	}
	return out
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
