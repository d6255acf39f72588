package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("ask failed: %w", &Error{Kind: KindServer, Status: 500, Message: "boom"})

	assert.ErrorIs(t, err, ErrServer)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrAuthentication)

	// non-sentinel errors of the same kind do not match each other
	assert.False(t, errors.Is(&Error{Kind: KindServer}, &Error{Kind: KindServer}))
}

func TestError_Error(t *testing.T) {
	cause := errors.New("connection refused")
	err := networkError("request failed", cause)

	assert.Equal(t, "request failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "empty question", NewValidationError("empty %s", "question").Error())
	assert.ErrorIs(t, NewAuthenticationError("run %s", "login"), ErrAuthentication)

	corrupt := errors.New("session store is corrupt")
	authErr := &Error{Kind: KindAuthentication, Message: "failed to read stored token", Err: corrupt}
	assert.Equal(t, "failed to read stored token: session store is corrupt", authErr.Error())
	assert.ErrorIs(t, authErr, corrupt)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "NetworkError", KindNetwork.String())
	assert.Equal(t, "AuthenticationError", KindAuthentication.String())
	assert.Equal(t, "ValidationError", KindValidation.String())
	assert.Equal(t, "ServerError", KindServer.String())
	assert.Equal(t, "UnknownError", Kind(0).String())
}

func TestNormalizeError(t *testing.T) {
	err := normalizeError(401, []byte(`{"detail":"Incorrect username or password"}`))
	require.Equal(t, KindAuthentication, err.Kind)
	assert.Equal(t, "Incorrect username or password", err.Message)

	err = normalizeError(400, []byte(`{"detail":{"code":"x"}}`))
	assert.Equal(t, KindServer, err.Kind)
	assert.Equal(t, "API error: 400", err.Message)

	err = normalizeError(422, []byte(`{"detail":[{"msg":"field required"}]}`))
	assert.Equal(t, "field required", err.Message)

	err = normalizeError(503, []byte(`{"status":"unhealthy","database":"disconnected"}`))
	assert.Equal(t, KindServer, err.Kind)
	assert.Equal(t, "backend unhealthy (database: disconnected)", err.Message)
}
