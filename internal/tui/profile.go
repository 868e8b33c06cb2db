package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
	"github.com/gamerscove/cove/pkg/session"
)

type profileModel struct {
	client  *client.Client
	session session.Event
	userID  int64
	reviews []domain.Review
	loading bool
	err     error
	width   int
	height  int
}

type profileReviewsMsg struct {
	userID  int64
	reviews []domain.Review
	err     error
}

// openUsernameMsg opens the username modal.
type openUsernameMsg struct{}

func newProfileModel(c *client.Client) profileModel {
	return profileModel{client: c}
}

func (m profileModel) Init() tea.Cmd {
	if m.userID == 0 {
		return nil
	}
	return m.load()
}

func (m profileModel) load() tea.Cmd {
	c, id := m.client, m.userID
	return func() tea.Msg {
		reviews, err := c.ListReviewsByUser(context.Background(), id)
		return profileReviewsMsg{userID: id, reviews: reviews, err: err}
	}
}

// setSession swaps in a new session snapshot and refetches the user's
// reviews when the backend user changed.
func (m profileModel) setSession(e session.Event) (profileModel, tea.Cmd) {
	m.session = e
	var id int64
	if e.State == domain.SignedIn && e.User != nil {
		id = e.User.ID
	}
	if id == m.userID {
		return m, nil
	}
	m.userID = id
	m.reviews = nil
	m.err = nil
	if id == 0 {
		m.loading = false
		return m, nil
	}
	m.loading = true
	return m, m.load()
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profileReviewsMsg:
		if msg.userID != m.userID {
			return m, nil
		}
		m.loading = false
		m.reviews = msg.reviews
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			if m.userID != 0 {
				m.loading = true
				return m, m.load()
			}
		case "u":
			if m.session.State == domain.SignedIn {
				return m, func() tea.Msg { return openUsernameMsg{} }
			}
		}
	}
	return m, nil
}

func (m profileModel) View() string {
	var b strings.Builder
	b.WriteString("\n")

	e := m.session
	if e.State != domain.SignedIn || e.Identity == nil {
		b.WriteString("  " + selectedStyle.Render("You are not signed in") + "\n")
		b.WriteString("  " + dimStyle.Render("Sign in to see your profile and reviews.") + "\n\n")
		b.WriteString("  " + helpEntry("i", "Sign in with Google"))
		return b.String()
	}

	id := e.Identity
	b.WriteString("  " + selectedStyle.Render(clean(e.Username())) + "\n")
	if id.Email != "" {
		b.WriteString("  " + dimStyle.Render(clean(id.Email)) + "\n")
	}
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %s %s\n", metaStyle.Render(fmt.Sprintf("%-14s", label)), normalStyle.Render(value))
	}
	field("Display name", clean(id.DisplayName))
	if e.User != nil {
		field("Username", clean(e.User.Username))
		if e.User.ID != 0 {
			field("User ID", fmt.Sprintf("#%d", e.User.ID))
		}
		field("Role", clean(e.User.Role))
	}
	if !id.AuthTime.IsZero() {
		field("Last Sign In", id.AuthTime.Local().Format("Jan 2, 2006 15:04"))
	}
	if e.NeedsUsername {
		b.WriteString("\n  " + errorStyle.Render("No username yet.") + " " + helpEntry("u", "choose one"))
		b.WriteString("\n")
	}
	if e.Err != nil {
		b.WriteString("\n  " + errorStyle.Render(client.Message(e.Err)) + "\n")
		b.WriteString("  " + dimStyle.Render("Signed in read-only: the backend session could not be created.") + "\n")
	}

	if m.userID == 0 {
		return b.String()
	}
	b.WriteString("\n  " + sectionHeaderStyle.Render(fmt.Sprintf("Your reviews (%d)", len(m.reviews))) + "\n")
	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("  loading reviews...") + "\n")
	case m.err != nil:
		b.WriteString("  " + errorStyle.Render("Failed to load reviews: "+client.Message(m.err)) + "\n")
	case len(m.reviews) == 0:
		b.WriteString(dimStyle.Render("  You have not reviewed any games yet.") + "\n")
	default:
		for _, r := range m.reviews {
			if r.Game != nil && r.Game.Title != "" {
				b.WriteString("   " + accentStyle.Render(clean(r.Game.Title)) + "\n")
			} else if r.Game != nil {
				b.WriteString("   " + accentStyle.Render(fmt.Sprintf("Game #%d", r.Game.ID)) + "\n")
			}
			b.WriteString(renderReview(r, id.ID, false, m.width-4))
		}
	}
	return b.String()
}
