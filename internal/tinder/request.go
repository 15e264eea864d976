package tinder

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

// Unwrap maps auth failures to ErrSessionInvalid.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrSessionInvalid
	}
	return nil
}

func isTemporary(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Truncated or otherwise unreadable bodies.
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// getJSON makes a GET request to the API and decodes the body into target.
// Transient failures are retried with exponential backoff.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, target any) error {
	return c.decode(ctx, path, q, target, c.cfg.MaxRetries)
}

// sendJSON is getJSON for requests that change state on the server. They are
// attempted once, since a failed response does not mean the action was not applied.
func (c *Client) sendJSON(ctx context.Context, path string, target any) error {
	return c.decode(ctx, path, nil, target, 0)
}

func (c *Client) decode(ctx context.Context, path string, q url.Values, target any, retries uint64) error {
	body, err := c.get(ctx, path, q, retries)
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, retries uint64) ([]byte, error) {
	u := c.cfg.APIURL + path

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx)

	var body []byte
	operation := func() error {
		data, err := c.breaker.Execute(func() ([]byte, error) {
			return c.request(ctx, u, q)
		})
		if err == nil {
			body = data
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrCircuitOpen, path))
		}
		if !isTemporary(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, next time.Duration) {
		c.logger.Warn("request failed, retrying",
			zap.String("path", path),
			zap.Duration("retry_in", next),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}

	return body, nil
}

func (c *Client) request(ctx context.Context, u string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return data, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("X-Auth-Token", c.token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Content-Type", contentType)

	return req
}
