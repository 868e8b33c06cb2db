package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
)

// AuthURLMsg carries the provider's consent URL so the login screen can
// show it when no browser could be opened.
type AuthURLMsg string

// loginModel is the sign-in screen.
type loginModel struct {
	state   domain.SessionState
	authURL string
	err     error
}

// signInMsg asks the app to run the interactive sign-in.
type signInMsg struct{}

// closeLoginMsg leaves the sign-in screen.
type closeLoginMsg struct{}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case AuthURLMsg:
		m.authURL = string(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.state == domain.Authenticating {
				return m, nil
			}
			m.err = nil
			m.authURL = ""
			return m, func() tea.Msg { return signInMsg{} }
		case "esc":
			return m, func() tea.Msg { return closeLoginMsg{} }
		}
	}
	return m, nil
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString("  " + selectedStyle.Render("Welcome to Gamers Cove") + "\n")
	b.WriteString("  " + dimStyle.Render("Sign in to your account to continue") + "\n\n")

	if m.state == domain.Authenticating {
		b.WriteString("  " + dimStyle.Render("[ Signing in... ]") + "\n")
		b.WriteString("  " + metaStyle.Render("Finish signing in in your browser.") + "\n")
		if m.authURL != "" {
			b.WriteString("\n  " + metaStyle.Render("If no browser opened, visit:") + "\n")
			b.WriteString("  " + normalStyle.Render(m.authURL) + "\n")
		}
	} else {
		b.WriteString("  " + accentStyle.Render("[ Sign in with Google ]") + "  " + helpEntry("enter", "continue") + "\n")
	}
	if m.err != nil {
		b.WriteString("\n  " + errorStyle.Render(client.Message(m.err)) + "\n")
	}
	return b.String()
}
