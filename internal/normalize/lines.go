package normalize

import "strings"

var bulletPrefixes = []string{"- ", "* ", "• ", "· "}

// ParseLines splits a one-item-per-line edit box into items. Leading bullet
// markers are removed and blank lines dropped.
func ParseLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, p := range bulletPrefixes {
			if strings.HasPrefix(line, p) {
				line = strings.TrimSpace(strings.TrimPrefix(line, p))
				break
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatLines is the inverse of ParseLines for clean items.
func FormatLines(items []string) string {
	return strings.Join(items, "\n")
}
