package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/aitutor/cmd/cli/internal/commands"
	"github.com/wolfeidau/aitutor/internal/api"
	"github.com/wolfeidau/aitutor/internal/config"
	"github.com/wolfeidau/aitutor/internal/logger"
	"github.com/wolfeidau/aitutor/internal/session"
	"github.com/wolfeidau/aitutor/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		commands.Globals `embed:""`

		Signup  commands.SignupCmd  `cmd:"" help:"Create an account"`
		Login   commands.LoginCmd   `cmd:"" help:"Log in with a password or Google"`
		Logout  commands.LogoutCmd  `cmd:"" help:"Log out and clear history"`
		Ask     commands.AskCmd     `cmd:"" help:"Ask the tutor a question"`
		Upload  commands.UploadCmd  `cmd:"" help:"Upload a document for analysis"`
		History commands.HistoryCmd `cmd:"" help:"Show previous questions and answers"`
		Copy    commands.CopyCmd    `cmd:"" help:"Copy an answer to the clipboard"`
		Status  commands.StatusCmd  `cmd:"" help:"Show session status"`
		Health  commands.HealthCmd  `cmd:"" help:"Check the backend is up"`

		Version kong.VersionFlag `help:"Print version and exit."`
	}
)

func main() {
	log.Logger = logger.Setup(false)

	// .env only fills variables that are not already set, so it is loaded
	// before flags read the environment.
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("ignoring .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("aitutor"),
		kong.Description("Command line client for the AI tutor."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	cli.Globals.Version = version

	shutdown, err := telemetry.Init(ctx, "aitutor", version)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
		shutdown = func(context.Context) error { return nil }
	}

	err = cmd.Run(&cli.Globals)

	if serr := shutdown(context.Background()); serr != nil {
		log.Warn().Err(serr).Msg("failed to flush telemetry")
	}

	if errors.Is(err, api.ErrAuthentication) && !strings.HasPrefix(cmd.Command(), "login") {
		fmt.Fprintln(os.Stderr, "Run 'aitutor login' to sign in.")
	}
	if errors.Is(err, session.ErrCorruptStore) {
		fmt.Fprintln(os.Stderr, "Run 'aitutor logout' to reset the session.")
	}
	cmd.FatalIfErrorf(err)
}
