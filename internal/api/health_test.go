package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Health(t *testing.T) {
	c, sess, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"healthy","database":"connected"}`))
	})
	require.NoError(t, sess.SetAuth("abc123", "alice"))

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "connected", h.Database)
}

func TestClient_WaitHealthy(t *testing.T) {
	var calls atomic.Int32
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"detail":"starting"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	h, err := c.WaitHealthy(context.Background(), 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_WaitHealthy_givesUp(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.WaitHealthy(context.Background(), 500*time.Millisecond)
	require.ErrorIs(t, err, ErrServer)
}

func TestClient_Health_unhealthy(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy","database":"disconnected"}`))
	})

	_, err := c.Health(context.Background())
	require.ErrorIs(t, err, ErrServer)
	assert.Equal(t, "backend unhealthy (database: disconnected)", err.Error())
}

func TestClient_WaitHealthy_permanent(t *testing.T) {
	var calls atomic.Int32
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.WaitHealthy(context.Background(), 10*time.Second)
	require.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, int32(1), calls.Load())
}
