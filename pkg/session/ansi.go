package session

import "regexp"

// Terminal escape sequences seen in raw pipe-pane logs: CSI sequences
// (colors, cursor movement), OSC sequences (window titles), and stray
// single-character escapes.
var (
	csiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)
	oscPattern = regexp.MustCompile(`\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)
	escPattern = regexp.MustCompile(`\x1b[=>()][0-9A-Za-z]?`)
)

// StripANSI removes terminal escape sequences and carriage returns,
// leaving plain text suitable for export.
func StripANSI(s string) string {
	s = csiPattern.ReplaceAllString(s, "")
	s = oscPattern.ReplaceAllString(s, "")
	s = escPattern.ReplaceAllString(s, "")
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
