package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/wolfeidau/aitutor/internal/guard"
)

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

// HistoryCmd prints the questions asked so far.
type HistoryCmd struct {
	JSON  bool `help:"Print the history as JSON." default:"false"`
	Limit int  `help:"Only show the most recent N exchanges (0 for all)." default:"0"`
}

func (c *HistoryCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	if stop, err := a.enter(guard.ViewDashboard); stop {
		return err
	}

	exchanges, err := a.tutor.History()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	first := 0
	if c.Limit > 0 && c.Limit < len(exchanges) {
		first = len(exchanges) - c.Limit
	}
	exchanges = exchanges[first:]

	if c.JSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(exchanges)
	}

	if len(exchanges) == 0 {
		fmt.Fprintln(a.out, "No questions asked yet.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "To ask one:")
		fmt.Fprintln(a.out, "  aitutor ask What is gravity?")
		return nil
	}

	for i, ex := range exchanges {
		heading := fmt.Sprintf("#%d  %s", first+i+1, ex.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintln(a.out, faintStyle.Render(heading))
		fmt.Fprintln(a.out, labelStyle.Render("Q: ")+ex.Question)
		fmt.Fprintln(a.out, answerStyle.Render(ex.Answer))
		fmt.Fprintln(a.out)
	}

	fmt.Fprintf(a.out, "Total exchanges: %d\n", first+len(exchanges))
	return nil
}

// CopyCmd copies an answer to the system clipboard.
type CopyCmd struct {
	Index int `help:"Exchange to copy, counting from 1 (0 for the most recent)." default:"0"`
}

func (c *CopyCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}

	if stop, err := a.enter(guard.ViewDashboard); stop {
		return err
	}

	ex, err := a.tutor.Answer(c.Index)
	if err != nil {
		return err
	}

	if err := clipboardWrite(ex.Answer); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}

	fmt.Fprintf(a.out, "Copied answer to %q to the clipboard.\n", truncate(ex.Question, 40))
	return nil
}
