package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/aitutor/internal/auth"
	"github.com/wolfeidau/aitutor/internal/guard"
	"github.com/wolfeidau/aitutor/internal/login"
)

// LoginCmd starts a session with a password, a Google browser sign-in or an
// existing Google access token.
type LoginCmd struct {
	Username    string `help:"Username." short:"u"`
	Password    string `help:"Password (prompted when omitted)." env:"AITUTOR_PASSWORD"`
	Google      bool   `help:"Sign in with Google in a browser." xor:"google"`
	GoogleToken string `help:"Exchange a Google access token for a session." env:"AITUTOR_GOOGLE_TOKEN" xor:"google"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	if stop, err := a.enter(guard.ViewLogin); stop {
		return err
	}

	var resp *auth.TokenResponse
	switch {
	case l.GoogleToken != "":
		resp, err = a.auth.GoogleAuth(ctx, l.GoogleToken)
	case l.Google:
		resp, err = l.google(ctx, a)
	default:
		resp, err = l.password(ctx, a)
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	username, err := a.session.Username()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	fmt.Fprintf(a.out, "Logged in as %s.\n", displayName(username))
	fmt.Fprintf(a.out, "Token: %s\n", truncate(auth.Fingerprint(resp.AccessToken), 15))

	return nil
}

func (l *LoginCmd) password(ctx context.Context, a *app) (*auth.TokenResponse, error) {
	var err error

	username := l.Username
	if username == "" {
		if username, err = a.prompt("Username: ", false); err != nil {
			return nil, err
		}
	}

	password := l.Password
	if password == "" {
		if password, err = a.prompt("Password: ", true); err != nil {
			return nil, err
		}
	}

	return a.auth.Login(ctx, username, password)
}

func (l *LoginCmd) google(ctx context.Context, a *app) (*auth.TokenResponse, error) {
	g, err := login.NewGoogle(a.settings.GoogleClientID, a.settings.GoogleClientSecret)
	if err != nil {
		return nil, err
	}

	token, err := g.Login(ctx, func(authURL string) error {
		fmt.Fprintln(a.out, "Open this URL in your browser to sign in with Google:")
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "  %s\n", authURL)
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, faintStyle.Render("Waiting for the browser to finish..."))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("google sign-in failed: %w", err)
	}

	return a.auth.GoogleAuth(ctx, token.AccessToken)
}

// LogoutCmd clears the session, including history.
type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	if err := a.auth.Logout(); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
