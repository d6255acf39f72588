package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/aitutor/internal/api"
	"github.com/wolfeidau/aitutor/internal/auth"
)

// StatusCmd shows the local session and, when logged in, the server's view of it.
type StatusCmd struct{}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	token, err := a.session.Token()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	username, err := a.session.Username()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	exchanges, err := a.session.Exchanges()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%s (%s)\n", a.settings.APIURL, displayName(a.settings.Environment))
	fmt.Fprintf(w, "Session:\t%s\n", a.store.Path())
	fmt.Fprintf(w, "History:\t%d exchanges\n", len(exchanges))

	if token == "" {
		fmt.Fprintf(w, "Logged in:\tno\n")
		return w.Flush()
	}

	fmt.Fprintf(w, "Logged in:\tyes\n")
	fmt.Fprintf(w, "Username:\t%s\n", displayName(username))
	fmt.Fprintf(w, "Token:\t%s\n", truncate(auth.Fingerprint(token), 15))

	// Expiry is informational only. A stored token counts as logged in until
	// the server rejects it.
	if info, err := auth.InspectToken(token); err == nil && !info.ExpiresAt.IsZero() {
		state := "valid"
		if info.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(w, "Expires:\t%s (%s)\n", info.ExpiresAt.Local().Format("2006-01-02 15:04:05"), state)
	}

	user, err := a.auth.Me(ctx)
	switch {
	case err == nil:
		fmt.Fprintf(w, "Server:\t%s <%s>\n", user.Username, user.Email)
	case errors.Is(err, api.ErrAuthentication):
		w.Flush()
		return fmt.Errorf("server rejected the stored token: %w", err)
	default:
		fmt.Fprintf(w, "Server:\tunreachable (%v)\n", err)
	}

	return w.Flush()
}

// HealthCmd checks the backend is up.
type HealthCmd struct {
	Wait time.Duration `help:"Keep polling for up to this long until the backend answers." default:"0s"`
}

func (h *HealthCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	var health *api.Health
	if h.Wait > 0 {
		health, err = a.client.WaitHealthy(ctx, h.Wait)
	} else {
		health, err = a.client.Health(ctx)
	}
	if err != nil {
		return fmt.Errorf("backend %s is not healthy: %w", a.client.BaseURL(), err)
	}

	fmt.Fprintf(a.out, "Backend %s is %s", a.client.BaseURL(), displayName(health.Status))
	if health.Database != "" {
		fmt.Fprintf(a.out, " (database: %s)", health.Database)
	}
	fmt.Fprintln(a.out)

	return nil
}
