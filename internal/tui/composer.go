package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gamerscove/cove/pkg/domain"
)

const (
	fieldRating = iota
	fieldComment
	fieldVisibility
	fieldCount
)

// composerModel is the review form on a game's page.
type composerModel struct {
	rating     int
	comment    string
	public     bool
	focus      int
	submitting bool
	statusMsg  string
}

// submitReviewMsg asks the detail page to send the composed review.
type submitReviewMsg struct{ input domain.ReviewInput }

// cancelComposeMsg closes the composer without sending.
type cancelComposeMsg struct{}

func newComposerModel() composerModel {
	return composerModel{rating: domain.MaxRating, public: true}
}

// canSubmit gates the submit control: a star rating and a comment that is
// not blank after trimming.
func (m composerModel) canSubmit() bool {
	return !m.submitting && domain.ValidRating(m.rating) && strings.TrimSpace(m.comment) != ""
}

func (m composerModel) input() domain.ReviewInput {
	return domain.ReviewInput{Rating: m.rating, Comment: m.comment, IsPublic: m.public}
}

func (m composerModel) Update(msg tea.KeyMsg) (composerModel, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc":
		return m, func() tea.Msg { return cancelComposeMsg{} }
	case "tab":
		m.focus = (m.focus + 1) % fieldCount
		return m, nil
	case "shift+tab":
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		return m, nil
	case "ctrl+s":
		if m.submitting {
			return m, nil
		}
		if !m.canSubmit() {
			if !domain.ValidRating(m.rating) {
				m.statusMsg = "Pick a rating from 1 to 5"
			} else {
				m.statusMsg = "Write a comment before submitting"
			}
			return m, nil
		}
		m.statusMsg = ""
		m.submitting = true
		in := m.input()
		return m, func() tea.Msg { return submitReviewMsg{input: in} }
	}

	if m.submitting {
		return m, nil
	}
	m.statusMsg = ""

	switch m.focus {
	case fieldRating:
		switch key {
		case "1", "2", "3", "4", "5":
			m.rating = int(key[0] - '0')
		case "h", "left":
			if m.rating > domain.MinRating {
				m.rating--
			}
		case "l", "right":
			if m.rating < domain.MaxRating {
				m.rating++
			}
		case "enter":
			m.focus = fieldComment
		}
	case fieldComment:
		switch key {
		case "enter":
			m.comment += "\n"
		default:
			m.comment = editKey(m.comment, msg)
		}
	case fieldVisibility:
		switch key {
		case " ", "enter", "h", "l", "left", "right":
			m.public = !m.public
		}
	}
	return m, nil
}

func (m composerModel) View(width int) string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Write a review") + "\n\n")

	focusMark := func(f int) string {
		if m.focus == f {
			return accentStyle.Render("▸") + " "
		}
		return "  "
	}

	fmt.Fprintf(&b, " %sRating   %s %s\n", focusMark(fieldRating), stars(m.rating),
		dimStyle.Render(fmt.Sprintf("%d out of 5", m.rating)))

	// Earlier lines are static; the input cursor sits on the last line.
	lines := strings.Split(m.comment, "\n")
	last := len(lines) - 1
	for i, l := range lines {
		prompt, mark, placeholder := "         ", "  ", ""
		if i == 0 {
			prompt, mark, placeholder = "Comment  ", focusMark(fieldComment), "What did you think?"
		}
		if i < last {
			fmt.Fprintf(&b, " %s%s%s\n", mark, metaStyle.Render(prompt), normalStyle.Render(truncStr(l, width-14)))
			continue
		}
		fmt.Fprintf(&b, " %s%s\n", mark,
			renderInput(prompt, truncStr(l, width-14), placeholder, m.focus == fieldComment))
	}

	vis := "public"
	if !m.public {
		vis = "private"
	}
	fmt.Fprintf(&b, " %sVisible  %s\n", focusMark(fieldVisibility), normalStyle.Render("["+vis+"]"))

	submit := disabledStyle.Render("[ Submit Review ]")
	switch {
	case m.submitting:
		submit = dimStyle.Render("[ Submitting... ]")
	case m.canSubmit():
		submit = accentStyle.Render("[ Submit Review ]")
	}
	fmt.Fprintf(&b, "\n   %s\n", submit)
	if m.statusMsg != "" {
		fmt.Fprintf(&b, "   %s\n", errorStyle.Render(m.statusMsg))
	}
	return b.String()
}
