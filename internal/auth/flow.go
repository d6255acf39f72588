package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/aitutor/internal/api"
	"github.com/wolfeidau/aitutor/internal/session"
)

// SignupRequest holds the registration fields sent to /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

// User is the account record returned by the backend.
type User struct {
	ID        int    `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Disabled  bool   `json:"disabled,omitempty"`
	Picture   string `json:"picture,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// TokenResponse is returned by /token and /auth/google.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

// Flow orchestrates signup, login, federated login and logout against a
// session. A session is authenticated when it holds a token; expiry is not checked.
type Flow struct {
	client  *api.Client
	session *session.Session
}

// NewFlow creates an auth flow.
func NewFlow(client *api.Client, sess *session.Session) *Flow {
	return &Flow{client: client, session: sess}
}

// Signup registers a new account. It does not log in.
func (f *Flow) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	if err := required(map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
	}); err != nil {
		return nil, err
	}

	var user User
	err := f.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/signup",
		Body:   api.JSONBody(req),
	}, &user)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("username", user.Username).Msg("account created")

	return &user, nil
}

// Login exchanges a username and password for a token using the password grant
// form encoding, then stores the token and username. A failed login leaves the
// session untouched.
func (f *Flow) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	if err := required(map[string]string{"username": username, "password": password}); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)

	var tok TokenResponse
	err := f.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/token",
		Body:   api.FormBody(form),
	}, &tok)
	if err != nil {
		return nil, err
	}

	if err := f.store(&tok, username); err != nil {
		return nil, err
	}

	log.Debug().Str("username", username).Msg("logged in")

	return &tok, nil
}

// GoogleAuth exchanges a Google access token for a backend token and stores it.
func (f *Flow) GoogleAuth(ctx context.Context, providerToken string) (*TokenResponse, error) {
	if err := required(map[string]string{"provider token": providerToken}); err != nil {
		return nil, err
	}

	var tok TokenResponse
	err := f.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/google",
		Body:   api.JSONBody(map[string]string{"access_token": providerToken}),
	}, &tok)
	if err != nil {
		return nil, err
	}

	username := ""
	if tok.User != nil {
		username = tok.User.Username
	}
	if username == "" {
		// fall back to the token subject, which the backend sets to the username
		if info, err := InspectToken(tok.AccessToken); err == nil {
			username = info.Subject
		}
	}

	if err := f.store(&tok, username); err != nil {
		return nil, err
	}

	log.Debug().Str("username", username).Msg("logged in with google")

	return &tok, nil
}

// IsAuthenticated reports whether a token is stored.
func (f *Flow) IsAuthenticated() bool {
	return f.session.HasToken()
}

// Logout clears the token, username and exchange history.
func (f *Flow) Logout() error {
	if err := f.session.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	log.Debug().Msg("logged out")
	return nil
}

// Me returns the account the stored token belongs to.
func (f *Flow) Me(ctx context.Context) (*User, error) {
	var user User
	err := f.client.Do(ctx, api.Request{
		Method:       http.MethodGet,
		Path:         "/users/me",
		RequiresAuth: true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (f *Flow) store(tok *TokenResponse, username string) error {
	if tok.AccessToken == "" {
		return &api.Error{Kind: api.KindServer, Message: "no access token in response"}
	}
	return f.session.SetAuth(tok.AccessToken, username)
}

// required returns a validation error naming every empty field.
func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return api.NewValidationError("%s is required", strings.Join(missing, ", "))
}
