package swipe

import (
	"math/rand"
	"sync"
	"time"

	"github.com/spigell/swipe-responder/internal/scoring"
	"github.com/spigell/swipe-responder/internal/utils"
)

// wait is swapped in tests.
var wait = utils.WaitFor

// PacingConfig controls how long the controller waits between outward calls.
type PacingConfig struct {
	// Base is the fixed part of the delay before every decision.
	Base time.Duration `mapstructure:"base" json:"base"`
	// Jitter is the upper bound of the uniformly random part of that delay.
	Jitter time.Duration `mapstructure:"jitter" json:"jitter"`
	// PhotoDelay is spent per photo of the profile.
	PhotoDelay time.Duration `mapstructure:"photo-delay" json:"photo_delay"`
	// BioRunesPerSecond is the simulated reading speed for the bio.
	BioRunesPerSecond float64 `mapstructure:"bio-runes-per-second" json:"bio_runes_per_second"`

	RoundBase   time.Duration `mapstructure:"round-base" json:"round_base"`
	RoundJitter time.Duration `mapstructure:"round-jitter" json:"round_jitter"`

	// EmptyRetryDelay is the constant wait before re-fetching after an empty batch.
	EmptyRetryDelay time.Duration `mapstructure:"empty-retry-delay" json:"empty_retry_delay"`
	// MaxEmptyFetches bounds consecutive empty batches. Zero means unbounded.
	MaxEmptyFetches int `mapstructure:"max-empty-fetches" json:"max_empty_fetches"`
}

// DefaultPacing returns delays that resemble a person reading through profiles.
func DefaultPacing() PacingConfig {
	return PacingConfig{
		Base:              2 * time.Second,
		Jitter:            5 * time.Second,
		PhotoDelay:        time.Second,
		BioRunesPerSecond: 30,
		RoundBase:         2 * time.Second,
		RoundJitter:       3 * time.Second,
		EmptyRetryDelay:   time.Second,
	}
}

// Pacer computes randomized delays. It is safe for concurrent use.
type Pacer struct {
	cfg PacingConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPacer creates a pacer drawing randomness from src. A nil src is seeded from the clock.
func NewPacer(cfg PacingConfig, src rand.Source) *Pacer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Pacer{cfg: cfg, rnd: rand.New(src)}
}

// ProfileDelay is the time a person would spend on p before deciding.
func (p *Pacer) ProfileDelay(profile *scoring.Profile) time.Duration {
	return p.cfg.Base + p.jitter(p.cfg.Jitter) + p.Complexity(profile)
}

// Complexity is the content-dependent part of ProfileDelay.
func (p *Pacer) Complexity(profile *scoring.Profile) time.Duration {
	d := time.Duration(profile.Photos()) * p.cfg.PhotoDelay
	if p.cfg.BioRunesPerSecond > 0 {
		d += time.Duration(float64(profile.BioLength()) / p.cfg.BioRunesPerSecond * float64(time.Second))
	}
	return d
}

// RoundDelay is the pause before requesting the next batch.
func (p *Pacer) RoundDelay() time.Duration {
	return p.cfg.RoundBase + p.jitter(p.cfg.RoundJitter)
}

func (p *Pacer) jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return time.Duration(p.rnd.Float64() * float64(limit))
}
