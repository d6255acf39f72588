package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/aitutor/internal/api"
	"github.com/wolfeidau/aitutor/internal/auth"
	"github.com/wolfeidau/aitutor/internal/config"
	"github.com/wolfeidau/aitutor/internal/guard"
	"github.com/wolfeidau/aitutor/internal/logger"
	"github.com/wolfeidau/aitutor/internal/session"
	"github.com/wolfeidau/aitutor/internal/telemetry"
	"github.com/wolfeidau/aitutor/internal/tutor"
)

type Globals struct {
	Debug              bool          `help:"Enable debug mode."`
	APIURL             string        `name:"api-url" help:"Backend base URL, overrides --environment." env:"AITUTOR_API_URL"`
	Environment        string        `help:"Backend environment (local or production)." env:"AITUTOR_ENVIRONMENT"`
	SessionDir         string        `help:"Session directory (default: ~/.aitutor/)." env:"AITUTOR_SESSION_DIR"`
	Config             string        `help:"Config file (default: ~/.aitutor/config.yaml)." env:"AITUTOR_CONFIG"`
	Timeout            time.Duration `help:"Request timeout (default: 2m)." env:"AITUTOR_TIMEOUT"`
	GoogleClientID     string        `help:"Google OAuth client ID." env:"AITUTOR_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `help:"Google OAuth client secret." env:"AITUTOR_GOOGLE_CLIENT_SECRET"`

	Version string    `kong:"-"`
	Stdin   io.Reader `kong:"-"`
	Stdout  io.Writer `kong:"-"`
}

// app is everything a command needs, built from the global flags.
type app struct {
	settings config.Settings
	store    *session.FileStore
	session  *session.Session
	client   *api.Client
	auth     *auth.Flow
	tutor    *tutor.Flow

	in    io.Reader
	input *bufio.Reader
	out   io.Writer
}

func (g *Globals) open() (*app, error) {
	path := g.Config
	if path == "" {
		path = config.DefaultPath()
	}

	file, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	settings, err := config.Resolve(config.Overrides{
		APIURL:             g.APIURL,
		Environment:        g.Environment,
		SessionDir:         g.SessionDir,
		Timeout:            g.Timeout,
		GoogleClientID:     g.GoogleClientID,
		GoogleClientSecret: g.GoogleClientSecret,
	}, file)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := session.NewFileStore(settings.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	sess := session.New(store)

	client, err := api.New(api.Config{
		BaseURL:   settings.APIURL,
		Timeout:   settings.Timeout,
		Transport: telemetry.NewTransport(logger.NewTransport(log.Logger, nil)),
		OnUnauthorized: func() {
			log.Warn().Msg("stored token was rejected, you have been logged out")
		},
	}, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	log.Debug().
		Str("api_url", settings.APIURL).
		Str("environment", settings.Environment).
		Str("session", store.Path()).
		Msg("client configured")

	in := g.Stdin
	if in == nil {
		in = os.Stdin
	}
	out := g.Stdout
	if out == nil {
		out = os.Stdout
	}

	return &app{
		settings: settings,
		store:    store,
		session:  sess,
		client:   client,
		auth:     auth.NewFlow(client, sess),
		tutor:    tutor.NewFlow(client, sess),
		in:       in,
		input:    bufio.NewReader(in),
		out:      out,
	}, nil
}

// enter runs the navigation guard for view. It returns true when the command
// must not continue: either the dashboard summary was shown in place of a
// public view, or the error says the user has to log in first.
func (a *app) enter(view guard.View) (bool, error) {
	d := guard.Decide(view, a.auth.IsAuthenticated())

	log.Debug().Str("view", string(view)).Stringer("decision", d).Msg("navigation guard")

	switch d.Redirect {
	case "":
		return false, nil
	case guard.ViewDashboard:
		return true, a.printDashboard()
	default:
		return true, api.NewAuthenticationError("not logged in")
	}
}

// prompt reads one line from the input. Secrets are read without echo when
// the input is a terminal.
func (a *app) prompt(label string, secret bool) (string, error) {
	fmt.Fprint(a.out, label)

	if f, ok := a.in.(*os.File); ok && secret && term.IsTerminal(f.Fd()) {
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := a.input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
