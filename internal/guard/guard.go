// Package guard decides whether a view may be entered for the current session.
package guard

import "fmt"

// View is a screen of the application. Each CLI command enters exactly one.
type View string

const (
	ViewLogin     View = "login"
	ViewSignup    View = "signup"
	ViewDashboard View = "dashboard"
)

// Protected reports whether the view requires an authenticated session.
func (v View) Protected() bool {
	return v == ViewDashboard
}

func (v View) valid() bool {
	switch v {
	case ViewLogin, ViewSignup, ViewDashboard:
		return true
	}
	return false
}

// Decision is the outcome of a guard check.
type Decision struct {
	// Redirect is empty when the requested view may be entered.
	Redirect View
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

func (d Decision) String() string {
	if d.Allowed() {
		return "stay"
	}
	return fmt.Sprintf("redirect to %s", d.Redirect)
}

// Decide is evaluated once on entry to view. Authenticated sessions are sent
// away from the public views and anonymous sessions away from the protected one.
func Decide(view View, authenticated bool) Decision {
	if !view.valid() {
		return Decision{Redirect: ViewLogin}
	}

	switch {
	case view.Protected() && !authenticated:
		return Decision{Redirect: ViewLogin}
	case !view.Protected() && authenticated:
		return Decision{Redirect: ViewDashboard}
	}

	return Decision{}
}
