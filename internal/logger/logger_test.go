package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_level(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, Setup(false).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, Setup(true).GetLevel())
}

func TestTransport_logsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	client := &http.Client{Transport: NewTransport(logger, nil)}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-1")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	out := buf.String()
	assert.Contains(t, out, `"path":"/health"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id":"req-1"`)
}

func TestTransport_logsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	client := &http.Client{Transport: NewTransport(logger, nil)}
	_, err := client.Get(url + "/health")
	require.Error(t, err)

	assert.Contains(t, buf.String(), `"level":"error"`)
}
