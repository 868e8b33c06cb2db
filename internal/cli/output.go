package cli

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/gamerscove/cove/pkg/domain"
	"github.com/gamerscove/cove/pkg/session"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatYML   = "yml"
)

var strict = bluemonday.StrictPolicy()

// plain strips markup from backend text for terminal output.
func plain(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(strict.Sanitize(s))), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// render writes v as JSON or YAML, or as the table built by fill.
func (e *env) render(v any, fill func(t table.Writer)) error {
	switch e.opts.output {
	case formatJSON:
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML, formatYML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = e.out.Write(data)
		return err
	default:
		t := table.NewWriter()
		t.SetOutputMirror(e.out)
		fill(t)
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	}
}

func (e *env) renderGames(games []domain.Game) error {
	if games == nil {
		games = []domain.Game{}
	}
	return e.render(games, func(t table.Writer) {
		t.AppendHeader(table.Row{"ID", "Title", "Year", "Developer", "Genres", "Rating"})
		for _, g := range games {
			year := ""
			if y := g.ReleaseYear(); y > 0 {
				year = strconv.Itoa(y)
			}
			rating := "-"
			if g.AverageRating != nil {
				rating = fmt.Sprintf("%.1f", *g.AverageRating)
			}
			t.AppendRow(table.Row{g.ID, truncate(plain(g.Title), 40), year, plain(g.Developer),
				truncate(plain(strings.Join(g.Genres, ", ")), 30), rating})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d games", len(games))})
	})
}

func (e *env) renderGame(g *domain.Game) error {
	return e.render(g, func(t table.Writer) {
		t.AppendRow(table.Row{"ID", g.ID})
		t.AppendRow(table.Row{"Title", plain(g.Title)})
		t.AppendRow(table.Row{"Release Date", plain(g.ReleaseDate)})
		t.AppendRow(table.Row{"Developer", plain(g.Developer)})
		t.AppendRow(table.Row{"Publisher", plain(g.Publisher)})
		t.AppendRow(table.Row{"Genres", plain(strings.Join(g.Genres, ", "))})
		t.AppendRow(table.Row{"Platforms", plain(strings.Join(g.Platforms, ", "))})
		if g.AverageRating != nil {
			t.AppendRow(table.Row{"Rating", fmt.Sprintf("%.1f", *g.AverageRating)})
		}
		if d := plain(g.Description); d != "" {
			t.AppendRow(table.Row{"Description", truncate(d, 70)})
		}
	})
}

func stars(n int) string {
	n = max(0, min(n, domain.MaxRating))
	return strings.Repeat("★", n) + strings.Repeat("☆", domain.MaxRating-n)
}

// renderReviews lists reviews; identityID marks the viewer's own.
func (e *env) renderReviews(reviews []domain.Review, identityID string) error {
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return e.render(reviews, func(t table.Writer) {
		t.AppendHeader(table.Row{"ID", "Rating", "Author", "Visibility", "Created", "Comment"})
		for _, r := range reviews {
			author := plain(r.Author())
			if r.OwnedBy(identityID) {
				author += " (you)"
			}
			vis := "public"
			if !r.IsPublic {
				vis = "private"
			}
			created := ""
			if ts := r.CreatedTime(); !ts.IsZero() {
				created = ts.Format("2006-01-02")
			}
			t.AppendRow(table.Row{r.ID, stars(r.Rating), author, vis, created, truncate(plain(r.Comment), 50)})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d reviews", len(reviews))})
	})
}

func (e *env) renderReview(r *domain.Review) error {
	return e.render(r, func(t table.Writer) {
		t.AppendRow(table.Row{"ID", r.ID})
		if r.Game != nil {
			t.AppendRow(table.Row{"Game", fmt.Sprintf("#%d %s", r.Game.ID, plain(r.Game.Title))})
		}
		t.AppendRow(table.Row{"Rating", fmt.Sprintf("%s %d", stars(r.Rating), r.Rating)})
		t.AppendRow(table.Row{"Author", plain(r.Author())})
		t.AppendRow(table.Row{"Public", r.IsPublic})
		t.AppendRow(table.Row{"Created", r.CreatedAt})
		t.AppendRow(table.Row{"Comment", truncate(plain(r.Comment), 70)})
	})
}

func (e *env) renderUser(u *domain.User) error {
	return e.render(u, func(t table.Writer) {
		t.AppendRow(table.Row{"ID", u.ID})
		t.AppendRow(table.Row{"Username", plain(u.Username)})
		t.AppendRow(table.Row{"Display name", plain(u.DisplayName)})
		t.AppendRow(table.Row{"Email", plain(u.Email)})
		t.AppendRow(table.Row{"Role", u.Role})
	})
}

// sessionView is the serializable form of a session event.
type sessionView struct {
	State         string       `json:"state" yaml:"state"`
	Identity      string       `json:"identity,omitempty" yaml:"identity,omitempty"`
	Email         string       `json:"email,omitempty" yaml:"email,omitempty"`
	User          *domain.User `json:"user,omitempty" yaml:"user,omitempty"`
	NeedsUsername bool         `json:"needsUsername" yaml:"needs_username"`
	Error         string       `json:"error,omitempty" yaml:"error,omitempty"`
}

func newSessionView(ev session.Event) sessionView {
	v := sessionView{State: ev.State.String(), User: ev.User, NeedsUsername: ev.NeedsUsername}
	if ev.Identity != nil {
		v.Identity = ev.Identity.ID
		v.Email = ev.Identity.Email
	}
	if ev.Err != nil {
		v.Error = ev.Err.Error()
	}
	return v
}

// success prints a confirmation line unless a structured format was asked for.
func (e *env) success(format string, args ...any) {
	if e.opts.output != formatTable {
		return
	}
	fmt.Fprintf(e.out, "✓ "+format+"\n", args...)
}

// info prints a hint to stderr so it never mixes with structured output.
func (e *env) info(format string, args ...any) {
	fmt.Fprintf(e.errOut, "ℹ "+format+"\n", args...)
}
