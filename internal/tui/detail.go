package tui

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
)

// detailModel is a single game's page: metadata, its reviews and the
// review composer.
type detailModel struct {
	client        *client.Client
	gameID        int64
	game          *domain.Game
	loading       bool
	notFound      bool
	err           error
	reviews       []domain.Review
	revLoading    bool
	revErr        error
	cursor        int
	composing     bool
	composer      composerModel
	identityID    string
	signedIn      bool
	// needsUsername holds the composer shut until a username is chosen.
	needsUsername bool
	width         int
	height        int
}

type gameLoadedMsg struct {
	id   int64
	game *domain.Game
	err  error
}

type gameReviewsMsg struct {
	gameID  int64
	reviews []domain.Review
	err     error
}

type reviewCreatedMsg struct {
	gameID int64
	review *domain.Review
	err    error
}

// closeDetailMsg returns from the detail page to the catalog.
type closeDetailMsg struct{}

// toastMsg shows a transient line under the body.
type toastMsg struct {
	text  string
	isErr bool
}

func toastCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return toastMsg{text: text, isErr: isErr} }
}

func newDetailModel(c *client.Client, id int64) detailModel {
	return detailModel{
		client:     c,
		gameID:     id,
		loading:    true,
		revLoading: true,
		composer:   newComposerModel(),
	}
}

func (m detailModel) Init() tea.Cmd {
	return tea.Batch(m.loadGame(), m.loadReviews())
}

func (m detailModel) loadGame() tea.Cmd {
	c, id := m.client, m.gameID
	return func() tea.Msg {
		g, err := c.GetGame(context.Background(), id)
		return gameLoadedMsg{id: id, game: g, err: err}
	}
}

func (m detailModel) loadReviews() tea.Cmd {
	c, id := m.client, m.gameID
	return func() tea.Msg {
		reviews, err := c.ListReviewsByGame(context.Background(), id, client.ListOptions{})
		return gameReviewsMsg{gameID: id, reviews: reviews, err: err}
	}
}

func (m detailModel) submit(in domain.ReviewInput) tea.Cmd {
	c, id := m.client, m.gameID
	return func() tea.Msg {
		r, err := c.CreateReview(context.Background(), id, in)
		return reviewCreatedMsg{gameID: id, review: r, err: err}
	}
}

// setSession records who is looking at the page for ownership labels and
// the composer gate.
func (m *detailModel) setSession(identityID string, signedIn, needsUsername bool) {
	m.identityID = identityID
	m.signedIn = signedIn
	m.needsUsername = needsUsername
	if !signedIn || needsUsername {
		m.composing = false
	}
}

func (m detailModel) focused() *domain.Review {
	if m.cursor < 0 || m.cursor >= len(m.reviews) {
		return nil
	}
	return &m.reviews[m.cursor]
}

func (m detailModel) Update(msg tea.Msg) (detailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case gameLoadedMsg:
		if msg.id != m.gameID {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.game = msg.game
		m.notFound = client.IsStatus(msg.err, http.StatusNotFound)
		return m, nil

	case gameReviewsMsg:
		if msg.gameID != m.gameID {
			return m, nil
		}
		m.revLoading = false
		m.reviews = msg.reviews
		m.revErr = msg.err
		if m.cursor >= len(m.reviews) {
			m.cursor = 0
		}
		return m, nil

	case submitReviewMsg:
		return m, m.submit(msg.input)

	case cancelComposeMsg:
		m.composing = false
		return m, nil

	case reviewCreatedMsg:
		if msg.gameID != m.gameID {
			return m, nil
		}
		m.composer.submitting = false
		if msg.err != nil {
			return m, toastCmd(client.Message(msg.err), true)
		}
		m.composer = newComposerModel()
		m.composing = false
		m.revLoading = true
		return m, tea.Batch(toastCmd("Review submitted successfully!", false), m.loadReviews())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.composing {
			var cmd tea.Cmd
			m.composer, cmd = m.composer.Update(msg)
			return m, cmd
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m detailModel) updateKeys(msg tea.KeyMsg) (detailModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		return m, func() tea.Msg { return closeDetailMsg{} }
	case "j", "down":
		if m.cursor < len(m.reviews)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		m.loading, m.revLoading = true, true
		return m, m.Init()
	case "w":
		if m.game == nil {
			return m, nil
		}
		if !m.signedIn {
			return m, toastCmd("Sign in to write a review (press i)", true)
		}
		if m.needsUsername {
			return m, toastCmd(chooseUsernameFirst, true)
		}
		m.composing = true
		return m, nil
	case "e", "d":
		if r := m.focused(); r != nil && r.OwnedBy(m.identityID) {
			return m, toastCmd("Editing and deleting reviews is not available yet", true)
		}
	case "c":
		if r := m.focused(); r != nil {
			text := cleanBlock(r.Comment)
			return m, func() tea.Msg { return copyResultMsg{what: "review", err: clipboard.WriteAll(text)} }
		}
		if m.game != nil {
			title := clean(m.game.Title)
			return m, func() tea.Msg { return copyResultMsg{what: "title", err: clipboard.WriteAll(title)} }
		}
	}
	return m, nil
}

func (m detailModel) View() string {
	var b strings.Builder
	b.WriteString("\n " + dimStyle.Render("← esc  Back to Games") + "\n\n")

	if m.loading {
		b.WriteString(dimStyle.Render("  loading..."))
		return b.String()
	}
	if m.notFound {
		return b.String() + notFoundView(fmt.Sprintf("Game #%d doesn't exist or has been removed.", m.gameID))
	}
	if m.err != nil || m.game == nil {
		b.WriteString("  " + selectedStyle.Render("Game not found") + "\n")
		b.WriteString("  " + dimStyle.Render("The requested game could not be loaded.") + "\n")
		if m.err != nil {
			b.WriteString("  " + errorStyle.Render(client.Message(m.err)) + "\n")
		}
		b.WriteString("\n  " + helpEntry("r", "retry"))
		return b.String()
	}

	w := m.width - 4
	g := m.game
	title := selectedStyle.Render(clean(g.Title))
	if y := g.ReleaseYear(); y > 0 {
		title += " " + dimStyle.Render(fmt.Sprintf("(%d)", y))
	}
	if avg, n := m.average(); n > 0 {
		title += "  " + stars(int(avg+0.5)) + dimStyle.Render(fmt.Sprintf(" %.1f", avg))
	}
	b.WriteString(" " + title + "\n")
	if len(g.Genres) > 0 {
		b.WriteString(" " + genreStyle.Render(clean(strings.Join(g.Genres, " · "))) + "\n")
	}
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, " %s %s\n", metaStyle.Render(fmt.Sprintf("%-13s", label)), normalStyle.Render(value))
	}
	field("Developer", clean(g.Developer))
	field("Publisher", clean(g.Publisher))
	field("Release Date", releaseDate(g.ReleaseDate))
	field("Platforms", clean(strings.Join(g.Platforms, ", ")))

	if desc := cleanBlock(g.Description); desc != "" {
		b.WriteString("\n " + sectionHeaderStyle.Render("About") + "\n")
		for _, line := range wrap(desc, w) {
			b.WriteString(" " + commentTextStyle.Render(line) + "\n")
		}
	}

	if m.composing {
		b.WriteString("\n")
		b.WriteString(m.composer.View(m.width))
	}

	b.WriteString("\n " + sectionHeaderStyle.Render(fmt.Sprintf("Reviews (%d)", len(m.reviews))) + "\n")
	switch {
	case m.revLoading:
		b.WriteString(dimStyle.Render("  loading reviews...") + "\n")
	case m.revErr != nil:
		b.WriteString("  " + errorStyle.Render("Failed to load reviews: "+client.Message(m.revErr)) + "\n")
	case len(m.reviews) == 0:
		b.WriteString(dimStyle.Render("  No reviews yet. Be the first to review this game!") + "\n")
	default:
		for i, r := range m.reviews {
			b.WriteString(renderReview(r, m.identityID, i == m.cursor, w))
		}
	}
	return b.String()
}

// average prefers the backend's aggregate and falls back to the loaded page.
func (m detailModel) average() (float64, int) {
	if m.game != nil && m.game.AverageRating != nil {
		return *m.game.AverageRating, 1
	}
	return domain.AverageRating(m.reviews), len(m.reviews)
}

// renderReview renders one review with its ownership label. Edit and
// delete are shown on the viewer's own reviews but are never enabled.
func renderReview(r domain.Review, identityID string, focused bool, width int) string {
	var b strings.Builder
	cursor := "  "
	if focused {
		cursor = accentStyle.Render("▸") + " "
	}

	own := r.OwnedBy(identityID)
	label := normalStyle.Render("Review by User #" + strconv.FormatInt(r.UserID, 10))
	if own {
		label = ownLabelStyle.Render("Your Review")
	}

	meta := []string{clean(r.Author())}
	if t := formatTime(r.CreatedTime()); t != "" {
		meta = append(meta, t)
	}
	if !r.IsPublic {
		meta = append(meta, "private")
	}

	line := fmt.Sprintf(" %s%s  %s  %s", cursor, stars(r.Rating), label, metaStyle.Render(strings.Join(meta, " · ")))
	if own {
		line += "  " + disabledStyle.Render("edit") + " " + disabledStyle.Render("delete")
	}
	b.WriteString(line + "\n")

	text := cleanBlock(r.Comment)
	lines := wrap(text, width-6)
	if !focused && len(lines) > 2 {
		lines = append(lines[:2:2], "…")
	}
	for _, l := range lines {
		b.WriteString("     " + commentTextStyle.Render(l) + "\n")
	}
	return b.String()
}

func releaseDate(raw string) string {
	if raw == "" {
		return ""
	}
	if len(raw) >= 10 {
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return clean(raw)
}

// notFoundView is shown for ids the backend does not know.
func notFoundView(detail string) string {
	var b strings.Builder
	b.WriteString("  " + searchStyle.Render("404") + "\n\n")
	b.WriteString("  " + selectedStyle.Render("Page Not Found") + "\n")
	b.WriteString("  " + dimStyle.Render(detail) + "\n\n")
	b.WriteString("  " + helpEntry("esc", "Back to Games"))
	return b.String()
}
