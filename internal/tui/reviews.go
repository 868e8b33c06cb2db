package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
)

// reviewsModel is the reviews page: a game picker on top and the
// selected game's reviews below it.
type reviewsModel struct {
	client        *client.Client
	games         []domain.Game
	gamesLoading  bool
	search        string
	editing       bool
	cursor        int
	selected      int64
	reviews       []domain.Review
	revLoading    bool
	revErr        error
	composing     bool
	composer      composerModel
	identityID    string
	signedIn      bool
	needsUsername bool
	width         int
	height        int
}

type pickerGamesMsg struct{ games []domain.Game }

type pickerReviewsMsg struct {
	gameID  int64
	reviews []domain.Review
	err     error
}

type pickerReviewCreatedMsg struct {
	gameID int64
	err    error
}

func newReviewsModel(c *client.Client) reviewsModel {
	return reviewsModel{client: c, gamesLoading: true, composer: newComposerModel()}
}

func (m reviewsModel) Init() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		return pickerGamesMsg{games: c.ListGames(context.Background(), "")}
	}
}

func (m reviewsModel) loadReviews(id int64) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		reviews, err := c.ListReviewsByGame(context.Background(), id, client.ListOptions{Page: 1, Limit: 20})
		return pickerReviewsMsg{gameID: id, reviews: reviews, err: err}
	}
}

func (m reviewsModel) submit(in domain.ReviewInput) tea.Cmd {
	c, id := m.client, m.selected
	return func() tea.Msg {
		_, err := c.CreateReview(context.Background(), id, in)
		return pickerReviewCreatedMsg{gameID: id, err: err}
	}
}

func (m *reviewsModel) setSession(identityID string, signedIn, needsUsername bool) {
	m.identityID = identityID
	m.signedIn = signedIn
	m.needsUsername = needsUsername
	if !signedIn || needsUsername {
		m.composing = false
	}
}

// visible filters the picker by title, description or id.
func (m reviewsModel) visible() []domain.Game {
	q := strings.TrimSpace(m.search)
	if q == "" {
		return m.games
	}
	var out []domain.Game
	for _, g := range m.games {
		if g.Matches(q) || strings.Contains(strconv.FormatInt(g.ID, 10), q) {
			out = append(out, g)
		}
	}
	return out
}

func (m reviewsModel) selectedGame() *domain.Game {
	for i := range m.games {
		if m.games[i].ID == m.selected {
			return &m.games[i]
		}
	}
	return nil
}

func (m reviewsModel) Update(msg tea.Msg) (reviewsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pickerGamesMsg:
		m.gamesLoading = false
		m.games = msg.games
		if m.cursor >= len(m.games) {
			m.cursor = 0
		}
		// The first game is selected once the catalog arrives.
		if m.selected == 0 && len(m.games) > 0 {
			m.selected = m.games[0].ID
			m.revLoading = true
			return m, m.loadReviews(m.selected)
		}
		return m, nil

	case pickerReviewsMsg:
		if msg.gameID != m.selected {
			return m, nil
		}
		m.revLoading = false
		m.reviews = msg.reviews
		m.revErr = msg.err
		return m, nil

	case submitReviewMsg:
		if m.selected == 0 {
			return m, nil
		}
		return m, m.submit(msg.input)

	case cancelComposeMsg:
		m.composing = false
		return m, nil

	case pickerReviewCreatedMsg:
		m.composer.submitting = false
		if msg.err != nil {
			return m, toastCmd(client.Message(msg.err), true)
		}
		m.composer = newComposerModel()
		m.composing = false
		if msg.gameID != m.selected {
			return m, toastCmd("Review submitted successfully!", false)
		}
		m.revLoading = true
		return m, tea.Batch(toastCmd("Review submitted successfully!", false), m.loadReviews(m.selected))

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
		if m.editing {
			switch msg.String() {
			case "enter":
				m.editing = false
			case "esc":
				m.editing = false
				m.search = ""
			default:
				m.search = editKey(m.search, msg)
			}
			m.cursor = 0
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m reviewsModel) updateKeys(msg tea.KeyMsg) (reviewsModel, tea.Cmd) {
	games := m.visible()
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(games)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "/":
		m.editing = true
	case "enter":
		if m.cursor >= len(games) {
			return m, nil
		}
		id := games[m.cursor].ID
		if id == m.selected {
			// Selecting the open game hides its reviews.
			m.selected = 0
			m.reviews = nil
			m.composing = false
			return m, nil
		}
		m.selected = id
		m.reviews = nil
		m.revErr = nil
		m.revLoading = true
		m.composing = false
		return m, m.loadReviews(id)
	case "r":
		if m.selected != 0 {
			m.revLoading = true
			return m, m.loadReviews(m.selected)
		}
		m.gamesLoading = true
		return m, m.Init()
	case "w":
		if m.selected == 0 {
			return m, nil
		}
		if !m.signedIn {
			return m, toastCmd("Sign in to write a review (press i)", true)
		}
		if m.needsUsername {
			return m, toastCmd(chooseUsernameFirst, true)
		}
		m.composing = true
	case "c":
		if g := m.selectedGame(); g != nil {
			title := clean(g.Title)
			return m, func() tea.Msg { return copyResultMsg{what: "title", err: clipboard.WriteAll(title)} }
		}
	}
	return m, nil
}

func (m reviewsModel) View() string {
	var b strings.Builder

	switch {
	case m.editing:
		b.WriteString(" " + renderInput("/ ", m.search, "search games by title, description or id", true) + "\n\n")
	case m.search != "":
		b.WriteString(" " + searchStyle.Render("/ "+m.search) + "\n\n")
	default:
		hint := "Select a game to view or add reviews"
		if m.selected != 0 {
			hint = "Viewing reviews for selected game"
		}
		b.WriteString(" " + dimStyle.Render(hint) + "\n\n")
	}

	if m.gamesLoading {
		b.WriteString(dimStyle.Render("  Loading games..."))
		return b.String()
	}

	games := m.visible()
	if len(games) == 0 {
		b.WriteString(dimStyle.Render("  No games found. Try a different search term."))
		return b.String()
	}

	// Picker: a window of rows around the cursor.
	const pickerRows = 6
	start := 0
	if m.cursor >= pickerRows {
		start = m.cursor - pickerRows + 1
	}
	end := min(start+pickerRows, len(games))
	for i := start; i < end; i++ {
		g := games[i]
		cursor := "  "
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
		}
		title := normalStyle.Render(truncStr(clean(g.Title), 40))
		action := metaStyle.Render("View Reviews")
		if g.ID == m.selected {
			title = selectedStyle.Render(truncStr(clean(g.Title), 40))
			action = accentStyle.Render("Hide Reviews")
		}
		fmt.Fprintf(&b, " %s%s  %s  %s\n", cursor, title, metaStyle.Render(fmt.Sprintf("ID: %d", g.ID)), action)
	}
	if len(games) > pickerRows {
		fmt.Fprintf(&b, "   %s\n", metaStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(games))))
	}

	if m.selected == 0 {
		return b.String()
	}

	name := "Selected Game"
	if g := m.selectedGame(); g != nil {
		name = clean(g.Title)
	}
	b.WriteString("\n " + sectionHeaderStyle.Render("Reviews for "+name) + "\n")

	switch {
	case m.revLoading:
		b.WriteString(dimStyle.Render("  loading reviews...") + "\n")
	case m.revErr != nil:
		b.WriteString("  " + errorStyle.Render("Error loading reviews") + "\n")
		b.WriteString("  " + dimStyle.Render("Failed to load reviews. Please try again.") + "  " + helpEntry("r", "retry") + "\n")
	case len(m.reviews) == 0:
		b.WriteString(dimStyle.Render("  No reviews yet. Be the first to review!") + "\n")
	default:
		for _, r := range m.reviews {
			b.WriteString(renderReview(r, m.identityID, false, m.width-4))
		}
	}

	if m.composing {
		b.WriteString("\n" + m.composer.View(m.width))
	} else if !m.signedIn {
		b.WriteString("\n  " + dimStyle.Render("Sign in to write a review.") + "\n")
	} else if m.needsUsername {
		b.WriteString("\n  " + dimStyle.Render("Choose a username to write a review.") + "\n")
	}
	return b.String()
}
