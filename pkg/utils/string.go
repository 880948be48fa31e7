package utils

import "github.com/charmbracelet/x/ansi"

// Truncate cuts s to maxLen terminal cells and appends an ellipsis. Styled
// text and wide runes are measured by display width.
func Truncate(s string, maxLen int) string {
	if ansi.StringWidth(s) <= maxLen {
		return s
	}
	return ansi.Truncate(s, maxLen, "") + "..."
}
