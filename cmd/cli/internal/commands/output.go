package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	answerStyle  = lipgloss.NewStyle().PaddingLeft(2)
)

// printDashboard shows who is logged in and how much history is stored.
func (a *app) printDashboard() error {
	username, err := a.session.Username()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	exchanges, err := a.session.Exchanges()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	fmt.Fprintln(a.out, headingStyle.Render("Logged in as "+displayName(username)))

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%s (%s)\n", a.settings.APIURL, displayName(a.settings.Environment))
	fmt.Fprintf(w, "History:\t%d exchanges\n", len(exchanges))
	w.Flush()

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, faintStyle.Render("Use 'aitutor logout' to switch accounts."))

	return nil
}

func displayName(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
