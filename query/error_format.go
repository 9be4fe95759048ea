package query

import (
	"fmt"
	"strconv"
	"strings"
)

func formatCodeFrame(source string, span Span) string {
	if source == "" || span.Lo < 0 || span.Lo > len(source) {
		return ""
	}

	pos := PositionOf(source, span.Lo)
	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return ""
	}
	lineText := lines[pos.Line-1]

	width := span.Len()
	if remaining := len(lineText) - (pos.Column - 1); width > remaining {
		width = remaining
	}
	if width < 1 {
		width = 1
	}

	lineLabel := strconv.Itoa(pos.Line)
	gutterPad := strings.Repeat(" ", len(lineLabel))
	caretPad := strings.Repeat(" ", pos.Column-1)

	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s%s",
		pos.Line,
		pos.Column,
		lineLabel,
		lineText,
		gutterPad,
		caretPad,
		strings.Repeat("^", width),
	)
}
