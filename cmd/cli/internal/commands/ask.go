package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wolfeidau/aitutor/internal/guard"
)

// AskCmd asks the tutor a question.
type AskCmd struct {
	Question []string `arg:"" help:"Question for the tutor."`
}

func (c *AskCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	if stop, err := a.enter(guard.ViewDashboard); stop {
		return err
	}

	answer, err := a.tutor.Ask(ctx, strings.Join(c.Question, " "))
	if err != nil {
		return fmt.Errorf("failed to ask question: %w", err)
	}

	fmt.Fprintln(a.out, answer)
	return nil
}

// UploadCmd sends a document to the tutor for analysis.
type UploadCmd struct {
	File string `arg:"" type:"existingfile" help:"Document to analyse."`
}

func (c *UploadCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	if stop, err := a.enter(guard.ViewDashboard); stop {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	answer, err := a.tutor.Upload(ctx, c.File, f)
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}

	fmt.Fprintln(a.out, answer)
	return nil
}
