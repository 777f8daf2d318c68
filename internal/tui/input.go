package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 500

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
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + key
	}
	return text
}

// keyText returns what a key press would type: the pasted runes for
// KeyRunes, a space for KeySpace, or the key name otherwise.
func keyText(msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyRunes:
		return string(msg.Runes)
	case tea.KeySpace:
		return " "
	}
	return msg.String()
}

// typeInto applies a key press to text, accepting multi-rune pastes.
func typeInto(text string, msg tea.KeyMsg) string {
	if msg.Type == tea.KeyRunes && len(msg.Runes) > 1 {
		for _, r := range msg.Runes {
			text = editRune(text, string(r))
		}
		return text
	}
	return editRune(text, keyText(msg))
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

// formField is one labelled input of a form.
type formField struct {
	label  string
	secret bool
}

// renderForm renders labelled inputs with a cursor on the focused one and
// per-field errors under each input. errs is keyed by field index.
func renderForm(fields []formField, values []string, focus int, errs map[int]string) string {
	var b strings.Builder
	for i, f := range fields {
		cursor := " "
		style := metaStyle
		value := values[i]
		if f.secret {
			value = strings.Repeat("•", utf8.RuneCountInString(value))
		}
		switch {
		case i == focus:
			cursor = inputPromptStyle.Render(">")
			style = selectedStyle
			value = normalStyle.Render(value) + accentStyle.Render("█")
		case value == "":
			value = inputPlaceholderStyle.Render("—")
		default:
			value = normalStyle.Render(value)
		}
		fmt.Fprintf(&b, "%s %s: %s\n", cursor, style.Render(f.label), value)
		if msg, ok := errs[i]; ok && msg != "" {
			fmt.Fprintf(&b, "    %s\n", errorStyle.Render(msg))
		}
	}
	return b.String()
}
