package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		view          View
		authenticated bool
		want          Decision
	}{
		{"login anonymous", ViewLogin, false, Decision{}},
		{"login authenticated", ViewLogin, true, Decision{Redirect: ViewDashboard}},
		{"signup anonymous", ViewSignup, false, Decision{}},
		{"signup authenticated", ViewSignup, true, Decision{Redirect: ViewDashboard}},
		{"dashboard anonymous", ViewDashboard, false, Decision{Redirect: ViewLogin}},
		{"dashboard authenticated", ViewDashboard, true, Decision{}},
		{"unknown view", View("admin"), true, Decision{Redirect: ViewLogin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.view, tt.authenticated)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Redirect == "", got.Allowed())
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "stay", Decision{}.String())
	assert.Equal(t, "redirect to login", Decision{Redirect: ViewLogin}.String())
}

func TestView_Protected(t *testing.T) {
	assert.True(t, ViewDashboard.Protected())
	assert.False(t, ViewLogin.Protected())
	assert.False(t, ViewSignup.Protected())
}
