// Package tinder talks to the remote recommendations API. It implements the
// profile source and the action sink consumed by the swipe controller.
package tinder

import (
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.gotinder.com"
	userAgent = "spigell/swipe-responder"
)

var (
	// ErrSessionInvalid is returned when the API rejects the auth token.
	// It is never retried.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrCircuitOpen is returned while the circuit breaker refuses requests.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds transport settings.
type ClientConfig struct {
	APIURL    string        `mapstructure:"api-url" json:"api_url"`
	UserAgent string        `mapstructure:"user-agent" json:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout"`

	// MaxRetries bounds retries of transient failures (network errors, 429, 5xx).
	MaxRetries      uint64        `mapstructure:"max-retries" json:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial-interval" json:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max-interval" json:"max_interval"`

	// BreakerFailures consecutive failures open the circuit for BreakerTimeout.
	BreakerFailures uint32        `mapstructure:"breaker-failures" json:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker-timeout" json:"breaker_timeout"`
}

// DefaultClientConfig returns the transport defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		APIURL:          apiURL,
		UserAgent:       userAgent,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
	}
}

type Client struct {
	token      string
	logger     *zap.Logger
	cfg        ClientConfig
	breaker    *gobreaker.CircuitBreaker[[]byte]
	HTTPClient *http.Client
}

func New(logger *zap.Logger, token string, cfg ClientConfig) *Client {
	defaults := DefaultClientConfig()
	if cfg.APIURL == "" {
		cfg.APIURL = defaults.APIURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaults.BreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaults.BreakerTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		token:  token,
		logger: logger,
		cfg:    cfg,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	c.breaker = newBreaker(cfg, logger)

	return c
}

func newBreaker(cfg ClientConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tinder-api",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Client errors say nothing about the health of the API.
		IsSuccessful: func(err error) bool {
			return err == nil || !isTemporary(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
