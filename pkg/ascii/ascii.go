// Package ascii provides width-aware helpers for terminal text output
package ascii

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Box builds a box containing the provided lines and returns it as a string.
// Lines are left-aligned with single-space padding on each side. Multi-width
// runes (emoji, CJK, etc.) are accounted for so the borders stay aligned.
func Box(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	trimmed := make([]string, len(lines))
	maxWidth := 0
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, " ")
		if w := StringWidth(trimmed[i]); w > maxWidth {
			maxWidth = w
		}
	}

	innerWidth := maxWidth + 2
	border := strings.Repeat("─", innerWidth)

	var sb strings.Builder
	sb.WriteString("┌" + border + "┐\n")
	for _, line := range trimmed {
		sb.WriteString("│ " + PadRight(line, maxWidth) + " │\n")
	}
	sb.WriteString("└" + border + "┘\n")
	return sb.String()
}

// Truncate shortens value so that its display width fits within width. An
// ellipsis ("...") is appended when truncation occurs and there is space
// for it.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return substringWithWidth(value, width)
	}
	return substringWithWidth(value, width-3) + "..."
}

// TruncateLeft keeps the tail of value, which is the informative end of a
// file path.
func TruncateLeft(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return tailWithWidth(value, width)
	}
	return "..." + tailWithWidth(value, width-3)
}

// PadRight pads value with spaces up to width display columns.
func PadRight(value string, width int) string {
	fill := width - StringWidth(value)
	if fill <= 0 {
		return value
	}
	return value + strings.Repeat(" ", fill)
}

func substringWithWidth(s string, target int) string {
	width := 0
	var sb strings.Builder
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > target {
			break
		}
		width += w
		sb.WriteRune(r)
	}
	return sb.String()
}

func tailWithWidth(s string, target int) string {
	runes := []rune(s)
	width := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		w := runewidth.RuneWidth(runes[i])
		if width+w > target {
			break
		}
		width += w
		start = i
	}
	return string(runes[start:])
}

// StringWidth returns the display width of a string, accounting for
// multi-width Unicode characters.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}
