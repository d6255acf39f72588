package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/aitutor/internal/auth"
	"github.com/wolfeidau/aitutor/internal/guard"
)

// SignupCmd registers a new account.
type SignupCmd struct {
	Username string `help:"Username for the new account." required:""`
	Email    string `help:"Email address." required:""`
	Password string `help:"Password (prompted when omitted)." env:"AITUTOR_PASSWORD"`
	FullName string `help:"Full name."`
	Login    bool   `help:"Log in once the account is created." default:"false"`
}

func (s *SignupCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	if stop, err := a.enter(guard.ViewSignup); stop {
		return err
	}

	password := s.Password
	if password == "" {
		if password, err = a.prompt("Password: ", true); err != nil {
			return err
		}
	}

	user, err := a.auth.Signup(ctx, auth.SignupRequest{
		Username: s.Username,
		Email:    s.Email,
		FullName: s.FullName,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	fmt.Fprintf(a.out, "Account created for %s.\n", user.Username)

	if !s.Login {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "To log in:")
		fmt.Fprintf(a.out, "  aitutor login --username %s\n", user.Username)
		return nil
	}

	if _, err := a.auth.Login(ctx, s.Username, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(a.out, "Logged in as %s.\n", s.Username)

	return nil
}
