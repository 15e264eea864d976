package tinder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"go.uber.org/zap"
)

const (
	likePath = "/like/"
	passPath = "/pass/"
)

type likeResponse struct {
	Match          json.RawMessage `json:"match"`
	LikesRemaining *int            `json:"likes_remaining"`
}

// Matched reports whether the like produced a match. The API sends false or a
// match object.
func (r *likeResponse) Matched() bool {
	raw := bytes.TrimSpace(r.Match)
	if len(raw) == 0 {
		return false
	}
	return !bytes.Equal(raw, []byte("false")) && !bytes.Equal(raw, []byte("null"))
}

// Like votes "like" on a profile and reports whether it matched.
func (c *Client) Like(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("profile id is required")
	}

	var response likeResponse
	if err := c.sendJSON(ctx, likePath+url.PathEscape(id), &response); err != nil {
		return false, err
	}

	if response.LikesRemaining != nil {
		c.logger.Debug("like sent", zap.String("profile_id", id), zap.Int("likes_remaining", *response.LikesRemaining))
	}

	return response.Matched(), nil
}

// Pass votes "pass" on a profile.
func (c *Client) Pass(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("profile id is required")
	}

	return c.sendJSON(ctx, passPath+url.PathEscape(id), nil)
}

// Accept implements the action sink on top of Like.
func (c *Client) Accept(ctx context.Context, id string) (bool, error) {
	return c.Like(ctx, id)
}

// Reject implements the action sink on top of Pass.
func (c *Client) Reject(ctx context.Context, id string) (bool, error) {
	if err := c.Pass(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}
