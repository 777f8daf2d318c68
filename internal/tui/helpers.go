package tui

import (
	"strings"
	"unicode/utf8"
)

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// oneLine collapses newlines and runs of whitespace so a description fits a row.
func oneLine(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// centered pads s on the left so it sits in the middle of width columns.
func centered(s string, width, sWidth int) string {
	pad := (width - sWidth) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
