// Package swipe runs median-threshold voting rounds over batches of
// candidates until a quota of likes is reached, pacing every outward call.
package swipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/swipe-responder/internal/scoring"
	"github.com/spigell/swipe-responder/internal/utils"
)

var (
	// ErrInvalidQuota is returned when the like quota is not positive.
	ErrInvalidQuota = errors.New("like quota must be positive")
	// ErrSourceExhausted is returned when MaxEmptyFetches empty batches arrive in a row.
	ErrSourceExhausted = errors.New("profile source returned no profiles")
)

const bioPreviewLength = 40

// ProfileSource delivers batches of candidates. An empty batch with a nil
// error means "nothing right now, ask again".
type ProfileSource interface {
	FetchBatch(ctx context.Context) ([]scoring.Record, error)
}

// ActionSink receives the decisions.
type ActionSink interface {
	// Accept reports whether the like resulted in a match.
	Accept(ctx context.Context, id string) (bool, error)
	Reject(ctx context.Context, id string) (bool, error)
}

// State is a step of a round.
type State int

const (
	AwaitingBatch State = iota
	Scoring
	Voting
	Acting
	RoundComplete
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingBatch:
		return "awaiting_batch"
	case Scoring:
		return "scoring"
	case Voting:
		return "voting"
	case Acting:
		return "acting"
	case RoundComplete:
		return "round_complete"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Summary is the end-of-run report.
type Summary struct {
	Rounds        int
	Likes         int
	Passes        int
	Matches       int
	AverageMedian float64

	medianSum float64
}

// Deps aggregates the collaborators of a Controller.
type Deps struct {
	Source  ProfileSource
	Sink    ActionSink
	Weights *scoring.WeightTable
	Pacer   *Pacer
	Logger  *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller drives rounds of fetch, score, vote and act. It is not safe for
// concurrent use: a run is strictly sequential.
type Controller struct {
	source  ProfileSource
	sink    ActionSink
	weights *scoring.WeightTable
	pacer   *Pacer
	logger  *zap.Logger
	now     func() time.Time

	maxEmptyFetches int
	emptyRetryDelay time.Duration

	state State
}

// New creates a controller. Pacing settings are taken from cfg.
func New(cfg PacingConfig, deps Deps) (*Controller, error) {
	if deps.Source == nil {
		return nil, errors.New("profile source is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("action sink is required")
	}
	if deps.Weights == nil {
		return nil, errors.New("weight table is required")
	}

	c := &Controller{
		source:          deps.Source,
		sink:            deps.Sink,
		weights:         deps.Weights,
		pacer:           deps.Pacer,
		logger:          deps.Logger,
		now:             deps.Now,
		maxEmptyFetches: cfg.MaxEmptyFetches,
		emptyRetryDelay: cfg.EmptyRetryDelay,
	}

	if c.pacer == nil {
		c.pacer = NewPacer(cfg, nil)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}

	return c, nil
}

// State returns the step the controller is currently in.
func (c *Controller) State() State {
	return c.state
}

// Run votes on batches until at least quota likes were handed out. The last
// round is always completed, so the total may exceed quota.
func (c *Controller) Run(ctx context.Context, quota int) (*Summary, error) {
	if quota <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuota, quota)
	}

	summary := &Summary{}
	c.state = AwaitingBatch

	for summary.Likes < quota {
		ballot, err := c.round(ctx, summary, quota)
		if err != nil {
			return summary, err
		}

		c.transition(RoundComplete)
		summary.Rounds++
		summary.medianSum += ballot.Median
		summary.AverageMedian = summary.medianSum / float64(summary.Rounds)

		accepted := ballot.Accepted()
		c.logger.Info("round completed",
			zap.Int("round", summary.Rounds),
			zap.Int("likes", accepted),
			zap.Int("passes", len(ballot.Votes)-accepted),
			zap.Int("total_likes", summary.Likes),
			zap.Int("quota", quota),
		)

		if summary.Likes >= quota {
			break
		}

		if err := wait(ctx, c.pacer.RoundDelay()); err != nil {
			return summary, err
		}
		c.transition(AwaitingBatch)
	}

	c.transition(Done)
	c.logger.Info("quota reached",
		zap.Int("rounds", summary.Rounds),
		zap.Int("likes", summary.Likes),
		zap.Int("passes", summary.Passes),
		zap.Int("matches", summary.Matches),
		zap.Float64("average_median", summary.AverageMedian),
	)

	return summary, nil
}

func (c *Controller) round(ctx context.Context, summary *Summary, quota int) (*Ballot, error) {
	c.transition(AwaitingBatch)
	records, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("received profiles", zap.Int("count", len(records)))

	c.transition(Scoring)
	profiles, err := c.score(records)
	if err != nil {
		return nil, err
	}

	c.transition(Voting)
	ballot := CastVotes(profiles)
	c.logger.Info("batch median", zap.Float64("median", ballot.Median), zap.Int("count", len(profiles)))

	c.transition(Acting)
	if err := c.act(ctx, ballot, summary, quota); err != nil {
		return nil, err
	}

	return ballot, nil
}

func (c *Controller) fetch(ctx context.Context) ([]scoring.Record, error) {
	empty := 0
	for {
		records, err := c.source.FetchBatch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching profiles: %w", err)
		}
		if len(records) > 0 {
			return records, nil
		}

		empty++
		if c.maxEmptyFetches > 0 && empty >= c.maxEmptyFetches {
			return nil, fmt.Errorf("%w after %d attempts", ErrSourceExhausted, empty)
		}

		c.logger.Debug("empty batch, retrying", zap.Int("attempt", empty), zap.Duration("delay", c.emptyRetryDelay))
		if err := wait(ctx, c.emptyRetryDelay); err != nil {
			return nil, err
		}
	}
}

func (c *Controller) score(records []scoring.Record) ([]*scoring.Profile, error) {
	now := c.now()
	profiles := make([]*scoring.Profile, 0, len(records))

	for _, r := range records {
		p, err := scoring.NewProfile(r, c.weights, now)
		if err != nil {
			return nil, fmt.Errorf("scoring profiles: %w", err)
		}

		c.logger.Debug("scored profile",
			zap.String("profile_id", p.ID()),
			zap.Float64("score", p.Score()),
			zap.Int("age", p.Age()),
			zap.Int("photos", p.Photos()),
			zap.Int("interests", len(p.Interests())),
			zap.Int("bio_length", p.BioLength()),
			zap.String("bio_preview", utils.TruncateForLog(p.Bio(), bioPreviewLength)),
			zap.Float64("distance", p.Distance()),
		)
		profiles = append(profiles, p)
	}

	return profiles, nil
}

func (c *Controller) act(ctx context.Context, ballot *Ballot, summary *Summary, quota int) error {
	total := len(ballot.Votes)

	for i, vote := range ballot.Votes {
		if err := c.decide(ctx, vote, summary, quota, i+1, total); err != nil {
			return err
		}

		// The last decision of a batch is followed by the round delay instead.
		if i == total-1 {
			break
		}
		if err := wait(ctx, c.pacer.ProfileDelay(vote.Profile)); err != nil {
			return err
		}
	}

	return nil
}

// decide issues exactly one outward call for vote.
func (c *Controller) decide(ctx context.Context, vote Vote, summary *Summary, quota, n, total int) error {
	p := vote.Profile

	fields := []zap.Field{
		zap.String("profile_id", p.ID()),
		zap.String("name", p.Name()),
		zap.Int("age", p.Age()),
		zap.Float64("score", p.Score()),
		zap.String("progress", fmt.Sprintf("%d/%d", n, total)),
	}

	if !vote.Accept {
		if _, err := c.sink.Reject(ctx, p.ID()); err != nil {
			return fmt.Errorf("passing profile %s: %w", p.ID(), err)
		}
		summary.Passes++
		c.logger.Info("passing", fields...)
		return nil
	}

	matched, err := c.sink.Accept(ctx, p.ID())
	if err != nil {
		return fmt.Errorf("liking profile %s: %w", p.ID(), err)
	}
	summary.Likes++
	c.logger.Info("liking", append(fields, zap.Int("total_likes", summary.Likes), zap.Int("quota", quota))...)

	if matched {
		summary.Matches++
		c.logger.Info("found a match", zap.String("profile_id", p.ID()), zap.String("name", p.Name()))
	}

	return nil
}

func (c *Controller) transition(to State) {
	if c.state == to {
		return
	}
	c.logger.Debug("state transition", zap.Stringer("from", c.state), zap.Stringer("to", to))
	c.state = to
}
