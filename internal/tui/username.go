package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// usernameModel is the modal asking a new account for a username.
type usernameModel struct {
	input     string
	saving    bool
	statusMsg string
}

type saveUsernameMsg struct{ name string }

type usernameSavedMsg struct {
	name string
	err  error
}

// closeUsernameMsg dismisses the modal until the next sign-in.
type closeUsernameMsg struct{}

func (m usernameModel) Update(msg tea.KeyMsg) (usernameModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.saving {
			return m, nil
		}
		name := strings.TrimSpace(m.input)
		if name == "" {
			m.statusMsg = "Please enter a username"
			return m, nil
		}
		m.saving = true
		m.statusMsg = ""
		return m, func() tea.Msg { return saveUsernameMsg{name: name} }
	case "esc":
		return m, func() tea.Msg { return closeUsernameMsg{} }
	default:
		if !m.saving {
			m.input = editKey(m.input, msg)
			m.statusMsg = ""
		}
	}
	return m, nil
}

func (m usernameModel) View(width int) string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("Choose a username") + "\n")
	b.WriteString(dimStyle.Render("This is how other players will see you.") + "\n\n")
	b.WriteString(renderInput("> ", truncStr(m.input, 32), "username", !m.saving) + "\n\n")
	if m.saving {
		b.WriteString(dimStyle.Render("Saving..."))
	} else {
		b.WriteString(helpEntry("enter", "save") + "  " + helpEntry("esc", "later"))
	}
	if m.statusMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.statusMsg))
	}
	box := modalStyle.Render(b.String())
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
