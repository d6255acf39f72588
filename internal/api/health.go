package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// Health is the body returned by /health.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Health checks the backend once.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/health"}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// WaitHealthy polls /health with exponential backoff until it answers or
// maxWait elapses. Only network and server errors are polled through.
func (c *Client) WaitHealthy(ctx context.Context, maxWait time.Duration) (*Health, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	return backoff.Retry(ctx, func() (*Health, error) {
		h, err := c.Health(ctx)
		if err != nil && !errors.Is(err, ErrNetwork) && !errors.Is(err, ErrServer) {
			return nil, backoff.Permanent(err)
		}
		return h, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(maxWait),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Dur("next", next).Msg("backend not ready")
		}),
	)
}
