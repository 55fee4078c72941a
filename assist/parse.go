package assist

import (
	"strings"
	"unicode"
)

// ParseList turns a generated bullet or numbered list into its items.
//
// Each non-blank line yields at most one item. One leading marker is removed:
// "-", "*", "+", "•", "1.", "1)", or "(1)". "-" and "•" need no following
// space; the others do. Lines made only of dashes are rules and skipped. Surrounding "**" emphasis is
// removed from the item. Markdown headings ("# ...") and unmarked lines ending
// in ":" are treated as preamble and skipped. Lines that are empty once the
// marker is gone are skipped. Order is preserved.
func ParseList(text string) []string {
	var items []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		item, marked := stripMarker(line)
		if !marked && strings.HasSuffix(item, ":") {
			continue
		}
		item = stripEmphasis(item)
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// stripMarker removes one list marker and reports whether one was found.
func stripMarker(line string) (string, bool) {
	for _, m := range []string{"- ", "* ", "+ ", "• ", "•"} {
		if strings.HasPrefix(line, m) {
			return strings.TrimSpace(line[len(m):]), true
		}
	}
	if line == "*" || line == "+" || strings.Trim(line, "-") == "" {
		return "", true
	}
	// A dash hugging its text ("-Alpha") is still a bullet. A "*"
	// hugging its text is left alone since it usually opens emphasis.
	if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "--") {
		return strings.TrimSpace(line[1:]), true
	}

	// (1) item
	if strings.HasPrefix(line, "(") {
		if end := strings.IndexByte(line, ')'); end > 1 && allDigits(line[1:end]) {
			return strings.TrimSpace(line[end+1:]), true
		}
	}
	// 1. item / 1) item
	n := 0
	for n < len(line) && line[n] >= '0' && line[n] <= '9' {
		n++
	}
	if n > 0 && n < len(line) && (line[n] == '.' || line[n] == ')') {
		rest := line[n+1:]
		if rest == "" || unicode.IsSpace(rune(rest[0])) {
			return strings.TrimSpace(rest), true
		}
	}
	return line, false
}

func stripEmphasis(s string) string {
	for _, mark := range []string{"**", "__"} {
		if len(s) > 2*len(mark) && strings.HasPrefix(s, mark) && strings.HasSuffix(s, mark) {
			s = strings.TrimSpace(s[len(mark) : len(s)-len(mark)])
		}
	}
	return s
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
