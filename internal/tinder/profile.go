package tinder

import (
	"context"
	"errors"
	"net/url"
	"strconv"
)

const (
	profilePath = "/v2/profile"
	matchesPath = "/v2/matches"
)

// Account is the token owner.
type Account struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type profileResponse struct {
	Data struct {
		User *Account `json:"user"`
	} `json:"data"`
}

type Matches struct {
	Items []*Match
}

type Match struct {
	ID          string `json:"_id"`
	CreatedDate string `json:"created_date"`
	Person      struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	} `json:"person"`
}

type matchesResponse struct {
	Data struct {
		Matches []*Match `json:"matches"`
	} `json:"data"`
}

// GetProfile returns the token owner's account. It doubles as a session check.
func (c *Client) GetProfile(ctx context.Context) (*Account, error) {
	q := url.Values{}
	q.Set("include", "account,user")

	var response profileResponse
	if err := c.getJSON(ctx, profilePath, q, &response); err != nil {
		return nil, err
	}

	if response.Data.User == nil {
		return nil, errors.New("profile response has no user")
	}

	return response.Data.User, nil
}

// GetMatches returns up to count latest matches.
func (c *Client) GetMatches(ctx context.Context, count int) (*Matches, error) {
	if count <= 0 {
		return nil, errors.New("count must be positive")
	}

	q := url.Values{}
	q.Set("count", strconv.Itoa(count))

	var response matchesResponse
	if err := c.getJSON(ctx, matchesPath, q, &response); err != nil {
		return nil, err
	}

	return &Matches{Items: response.Data.Matches}, nil
}

func (m *Matches) Len() int {
	return len(m.Items)
}

func (m *Matches) Names() []string {
	names := make([]string, 0, len(m.Items))
	for _, match := range m.Items {
		names = append(names, match.Person.Name)
	}
	return names
}
