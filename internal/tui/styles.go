package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the header logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "GAMERS COVE" as a wave of violet light moving
// left to right. Deep (#2e1a4a) -> bright (#c084fc).
func renderShimmerLogo(frame int) string {
	const text = "GAMERS COVE"
	n := len(text)
	t := float64(frame)

	var out strings.Builder
	for i := 0; i < n; i++ {
		if text[i] == ' ' {
			out.WriteString("   ")
			continue
		}
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)
		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18
		b = math.Min(1, math.Max(0.05, b))

		r := clampByte(46 + b*(192-46))
		g := clampByte(26 + b*(132-26))
		bl := clampByte(74 + b*(252-74))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out.WriteString(s.Render(string(text[i])))
		if i < n-1 && text[i+1] != ' ' {
			out.WriteString(" ")
		}
	}
	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c084fc")).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a855f7"))

	// Toasts
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	starOnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#facc15"))

	starOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#404858"))

	genreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a0e0"))

	ownLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c084fc")).
			Bold(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#343c4a")).
			Strikethrough(true)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878"))

	commentTextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8890a0"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a855f7")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#a855f7")).
			Padding(1, 2)
)

// stars renders a 1-5 rating as filled and empty stars.
func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return starOnStyle.Render(strings.Repeat("★", rating)) + starOffStyle.Render(strings.Repeat("☆", 5-rating))
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpView renders the help overlay.
func helpView() string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#c084fc")).
		Bold(true).
		Render("G A M E R S   C O V E")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	keys := []struct{ key, desc string }{
		{"1 / 2 / 3", "Games, Reviews, Profile"},
		{"/", "Search the catalog"},
		{"g", "Open a game by id"},
		{"enter", "Open the selected game"},
		{"w", "Write a review (game page)"},
		{"c", "Copy the focused title or review"},
		{"r", "Refresh"},
		{"i / o", "Sign in / sign out"},
		{"q", "Quit"},
	}
	commands := []struct{ cmd, desc string }{
		{"cove", "Browse the catalog (interactive TUI)"},
		{"cove login", "Sign in with Google"},
		{"cove logout", "Clear your session"},
		{"cove games list", "Print the catalog"},
		{"cove reviews list <id>", "Print a game's reviews"},
		{"cove api GET /games", "Send a raw API request"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", title)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Keys"))
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-12s", k.key)), descStyle.Render(k.desc))
	}
	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", c.cmd)), descStyle.Render(c.desc))
	}
	return b.String()
}
