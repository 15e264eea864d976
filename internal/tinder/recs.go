package tinder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/swipe-responder/internal/scoring"
)

const recsPath = "/v2/recs/core"

type Item interface{}

type recsResponse struct {
	Meta struct {
		Status int `json:"status"`
	} `json:"meta"`
	Data struct {
		Results []Item `json:"results"`
	} `json:"data"`
}

// Recommendation is a single candidate from the recommendations feed.
type Recommendation struct {
	Type           string          `json:"type"`
	DistanceMi     float64         `json:"distance_mi"`
	User           User            `json:"user"`
	ExperimentInfo *ExperimentInfo `json:"experiment_info"`
}

type User struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	Bio       string  `json:"bio"`
	BirthDate string  `json:"birth_date"`
	Photos    []Photo `json:"photos"`
	Badges    []Badge `json:"badges"`
	City      *City   `json:"city"`
}

type Photo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Badge struct {
	Type string `json:"type"`
}

type City struct {
	Name string `json:"name"`
}

type ExperimentInfo struct {
	UserInterests struct {
		SelectedInterests []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"selected_interests"`
	} `json:"user_interests"`
}

// Interests returns the names of the selected interests, if any.
func (r *Recommendation) Interests() []string {
	if r.ExperimentInfo == nil {
		return nil
	}

	selected := r.ExperimentInfo.UserInterests.SelectedInterests
	names := make([]string, 0, len(selected))
	for _, it := range selected {
		names = append(names, it.Name)
	}
	return names
}

// ToRecord converts the recommendation into the shape consumed by scoring.
func (r *Recommendation) ToRecord() scoring.Record {
	city := ""
	if r.User.City != nil {
		city = r.User.City.Name
	}

	return scoring.Record{
		ID:         r.User.ID,
		Name:       r.User.Name,
		BirthDate:  r.User.BirthDate,
		PhotoCount: len(r.User.Photos),
		BadgeCount: len(r.User.Badges),
		Bio:        r.User.Bio,
		Distance:   r.DistanceMi,
		City:       city,
		Interests:  r.Interests(),
	}
}

// GetRecommendations requests the next group of candidates. A nil slice with
// a nil error means the feed had nothing to offer right now.
func (c *Client) GetRecommendations(ctx context.Context) ([]*Recommendation, error) {
	var response recsResponse
	if err := c.getJSON(ctx, recsPath, nil, &response); err != nil {
		return nil, err
	}

	if response.Meta.Status == http.StatusUnauthorized {
		return nil, ErrSessionInvalid
	}

	if len(response.Data.Results) == 0 {
		c.logger.Debug("recommendations feed is empty", zap.Int("meta_status", response.Meta.Status))
		return nil, nil
	}

	var recs []*Recommendation
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &recs,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(response.Data.Results); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
	}

	return recs, nil
}

// FetchBatch returns the next batch of candidates as scoring records.
func (c *Client) FetchBatch(ctx context.Context) ([]scoring.Record, error) {
	recs, err := c.GetRecommendations(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]scoring.Record, 0, len(recs))
	for _, r := range recs {
		if r == nil {
			continue
		}
		records = append(records, r.ToRecord())
	}

	return records, nil
}
