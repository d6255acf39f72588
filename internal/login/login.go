package login

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var (
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrMissingCode   = errors.New("oauth callback missing code")
	ErrDenied        = errors.New("authorization denied")
)

// GoogleEndpoint is Google's OAuth 2.0 authorization server.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Google obtains a Google access token for the current user with the
// authorization code flow, receiving the redirect on a loopback listener.
type Google struct {
	config *oauth2.Config
}

func NewGoogle(clientID, clientSecret string) (*Google, error) {
	return newGoogle(clientID, clientSecret, GoogleEndpoint)
}

func newGoogle(clientID, clientSecret string, endpoint oauth2.Endpoint) (*Google, error) {
	if clientID == "" {
		return nil, fmt.Errorf("google client ID is required (--google-client-id or AITUTOR_GOOGLE_CLIENT_ID)")
	}

	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
	}, nil
}

type callbackResult struct {
	code string
	err  error
}

// Login starts a loopback listener, hands the consent URL to open and waits for
// the browser to come back with a code, which is exchanged for a token.
func (g *Google) Login(ctx context.Context, open func(authURL string) error) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	cfg := *g.config
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr().String())

	state := rand.Text()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", g.callbackHandler(state, results))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("callback server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))

	log.Debug().Str("redirect", cfg.RedirectURL).Msg("initiating google oauth flow")

	if err := open(authURL); err != nil {
		return nil, err
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	log.Debug().Msg("oauth state validated successfully")

	token, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	return token, nil
}

func (g *Google) callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := callbackResult{code: r.FormValue("code")}

		switch {
		case r.FormValue("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrDenied, r.FormValue("error"))
		case r.FormValue("state") != state:
			res.err = ErrStateMismatch
		case res.code == "":
			res.err = ErrMissingCode
		}

		if res.err != nil {
			log.Warn().Err(res.err).Msg("oauth callback rejected")
			http.Error(w, "Authentication failed", http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("Signed in. You can close this window and return to the terminal.\n"))
		}

		// only the first callback counts
		select {
		case results <- res:
		default:
		}
	}
}
