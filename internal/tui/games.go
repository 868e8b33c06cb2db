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

type gamesModel struct {
	client  *client.Client
	games   []domain.Game
	query   string // query the catalog was fetched with
	search  string
	editing bool // typing in search
	jumping bool // typing a game id
	jumpID  string
	cursor  int
	loading bool
	width   int
	height  int
}

type gamesLoadedMsg struct {
	query string
	games []domain.Game
}

// openGameMsg asks the app to show a game's detail page.
type openGameMsg struct{ id int64 }

type copyResultMsg struct {
	what string
	err  error
}

func newGamesModel(c *client.Client) gamesModel {
	return gamesModel{client: c, loading: true}
}

func (m gamesModel) load(query string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		return gamesLoadedMsg{query: query, games: c.ListGames(context.Background(), query)}
	}
}

func (m gamesModel) Init() tea.Cmd {
	return m.load(m.query)
}

// visible is the fetched catalog narrowed by the live search text.
func (m gamesModel) visible() []domain.Game {
	return domain.FilterGames(m.games, m.search)
}

func (m gamesModel) Update(msg tea.Msg) (gamesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case gamesLoadedMsg:
		// A response for an older query lost the race.
		if msg.query != m.query {
			return m, nil
		}
		m.loading = false
		m.games = msg.games
		if m.cursor >= len(m.visible()) {
			m.cursor = 0
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateSearch(msg)
		}
		if m.jumping {
			return m.updateJump(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m gamesModel) updateSearch(msg tea.KeyMsg) (gamesModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.query = strings.TrimSpace(m.search)
		m.loading = true
		return m, m.load(m.query)
	case "esc":
		m.editing = false
		m.search = ""
		m.cursor = 0
		if m.query != "" {
			m.query = ""
			m.loading = true
			return m, m.load("")
		}
	default:
		m.search = editKey(m.search, msg)
		m.cursor = 0
	}
	return m, nil
}

func (m gamesModel) updateJump(msg tea.KeyMsg) (gamesModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.jumping = false
		id, err := strconv.ParseInt(m.jumpID, 10, 64)
		m.jumpID = ""
		if err != nil {
			return m, nil
		}
		return m, func() tea.Msg { return openGameMsg{id: id} }
	case "esc":
		m.jumping = false
		m.jumpID = ""
	case "backspace":
		m.jumpID = editRune(m.jumpID, "backspace")
	default:
		if k := msg.String(); len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
			m.jumpID += k
		}
	}
	return m, nil
}

func (m gamesModel) updateList(msg tea.KeyMsg) (gamesModel, tea.Cmd) {
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
	case "g":
		m.jumping = true
		m.jumpID = ""
	case "r":
		m.loading = true
		return m, m.load(m.query)
	case "enter":
		if m.cursor < len(games) {
			id := games[m.cursor].ID
			return m, func() tea.Msg { return openGameMsg{id: id} }
		}
	case "c":
		if m.cursor < len(games) {
			title := clean(games[m.cursor].Title)
			return m, func() tea.Msg {
				return copyResultMsg{what: "title", err: clipboard.WriteAll(title)}
			}
		}
	}
	return m, nil
}

func (m gamesModel) View() string {
	var b strings.Builder

	switch {
	case m.editing:
		b.WriteString(" " + renderInput("/ ", m.search, "search by title, description or genre", true) + "\n\n")
	case m.jumping:
		b.WriteString(" " + renderInput("game # ", m.jumpID, "enter an id", true) + "\n\n")
	case m.search != "":
		b.WriteString(" " + searchStyle.Render("/ "+m.search) + "\n\n")
	default:
		b.WriteString("\n")
	}

	if m.loading {
		b.WriteString(dimStyle.Render("  loading games..."))
		return b.String()
	}

	games := m.visible()
	if len(games) == 0 {
		if m.search != "" {
			b.WriteString(dimStyle.Render("  No games found. Try a different search."))
		} else {
			b.WriteString(dimStyle.Render("  No games available."))
		}
		return b.String()
	}

	titleWidth := m.width - 40
	if titleWidth < 16 {
		titleWidth = 16
	}

	// Keep the cursor in the window the body can show; two lines per game.
	perPage := (m.height - 4) / 2
	if perPage < 1 {
		perPage = len(games)
	}
	start := 0
	if m.cursor >= perPage {
		start = m.cursor - perPage + 1
	}
	end := min(start+perPage, len(games))

	for i := start; i < end; i++ {
		g := games[i]
		cursor := "  "
		title := normalStyle.Render(truncStr(clean(g.Title), titleWidth))
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			title = selectedStyle.Render(truncStr(clean(g.Title), titleWidth))
		}

		var meta []string
		if y := g.ReleaseYear(); y > 0 {
			meta = append(meta, strconv.Itoa(y))
		}
		if g.Developer != "" {
			meta = append(meta, clean(g.Developer))
		}
		rating := ""
		if g.AverageRating != nil {
			rating = "  " + stars(int(*g.AverageRating+0.5)) + dimStyle.Render(fmt.Sprintf(" %.1f", *g.AverageRating))
		}
		fmt.Fprintf(&b, " %s%s%s\n", cursor, title, rating)

		line := metaStyle.Render(strings.Join(meta, " · "))
		if len(g.Genres) > 0 {
			if line != "" {
				line += "  "
			}
			line += genreStyle.Render(truncStr(clean(strings.Join(g.Genres, ", ")), 40))
		}
		fmt.Fprintf(&b, "     %s\n", line)
	}

	fmt.Fprintf(&b, "\n %s", metaStyle.Render(fmt.Sprintf("%d of %d games", len(games), len(m.games))))
	return b.String()
}
