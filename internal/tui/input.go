package tui

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 2000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// editKey applies a key message to text. Typed and pasted runes are
// appended up to maxInputLen; backspace deletes one rune.
func editKey(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		return editRune(text, "backspace")
	case tea.KeySpace:
		return editRune(text, " ")
	case tea.KeyRunes:
		room := maxInputLen - utf8.RuneCountInString(text)
		runes := msg.Runes
		if room <= 0 {
			return text
		}
		if len(runes) > room {
			runes = runes[:room]
		}
		return text + string(runes)
	}
	return text
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders a one-line text input with a prompt and placeholder.
func renderInput(prompt, text, placeholder string, focused bool) string {
	p := inputPromptStyle.Render(prompt)
	if !focused {
		p = metaStyle.Render(prompt)
	}
	switch {
	case text == "" && focused:
		return p + accentStyle.Render("█") + inputPlaceholderStyle.Render(placeholder)
	case text == "":
		return p + inputPlaceholderStyle.Render(placeholder)
	case focused:
		return p + normalStyle.Render(text) + accentStyle.Render("█")
	default:
		return p + dimStyle.Render(text)
	}
}
