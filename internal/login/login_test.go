package login

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewGoogle(t *testing.T) {
	g, err := NewGoogle("test-client-id", "test-secret")
	require.NoError(t, err)

	require.NotNil(t, g.config)
	require.Equal(t, "test-client-id", g.config.ClientID)
	require.Equal(t, "test-secret", g.config.ClientSecret)
	require.Equal(t, []string{"openid", "email", "profile"}, g.config.Scopes)
	require.Equal(t, GoogleEndpoint, g.config.Endpoint)
}

func TestNewGoogle_MissingClientID(t *testing.T) {
	_, err := NewGoogle("", "test-secret")
	require.Error(t, err)
	require.Contains(t, err.Error(), "client ID")
}

func TestGoogle_callbackHandler(t *testing.T) {
	g, err := NewGoogle("test-client-id", "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   string
		status  int
		wantErr error
	}{
		{"success", "state=expected&code=abc", http.StatusOK, nil},
		{"missing state", "code=abc", http.StatusBadRequest, ErrStateMismatch},
		{"wrong state", "state=other&code=abc", http.StatusBadRequest, ErrStateMismatch},
		{"missing code", "state=expected", http.StatusBadRequest, ErrMissingCode},
		{"denied", "error=access_denied&state=expected", http.StatusBadRequest, ErrDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan callbackResult, 1)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil)

			g.callbackHandler("expected", results)(w, r)

			require.Equal(t, tt.status, w.Code)

			res := <-results
			if tt.wantErr != nil {
				require.ErrorIs(t, res.err, tt.wantErr)
				require.Contains(t, w.Body.String(), "Authentication failed")
				return
			}
			require.NoError(t, res.err)
			require.Equal(t, "abc", res.code)
		})
	}
}

func TestGoogle_Login(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.NotEmpty(t, r.PostForm.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "google-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	g, err := newGoogle("test-client-id", "test-secret", oauth2.Endpoint{
		AuthURL:   "https://accounts.example.com/auth",
		TokenURL:  tokenSrv.URL,
		AuthStyle: oauth2.AuthStyleInParams,
	})
	require.NoError(t, err)

	// plays the part of the browser: follow the consent URL straight back to the redirect
	browser := func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		assert.Equal(t, "S256", q.Get("code_challenge_method"))

		go func() {
			resp, err := http.Get(q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&code=the-code")
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := g.Login(ctx, browser)
	require.NoError(t, err)
	require.Equal(t, "google-access-token", token.AccessToken)
}

func TestGoogle_Login_cancelled(t *testing.T) {
	g, err := NewGoogle("test-client-id", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = g.Login(ctx, func(string) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
