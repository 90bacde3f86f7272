package detect

import "strings"

// Busy indicators the hosted agent renders while it is still working.
// These are matched against the sampled window tail; seeing one defers a
// stability verdict until the next sample.
var busyPhrases = []string{
	"esc to interrupt",
	"ctrl+c to interrupt",
}

// Braille spinner glyphs used by the agent's progress indicator.
const spinnerGlyphs = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏⣾⣽⣻⢿⡿⣟⣯⣷"

// looksBusy reports whether the sampled window still shows work in
// progress. Only the last few lines are inspected; earlier output can
// legitimately contain these strings verbatim (for example in a transcript
// the agent itself printed).
func looksBusy(window string) bool {
	tail := lastLines(window, 5)
	lower := strings.ToLower(tail)
	for _, phrase := range busyPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return strings.ContainsAny(tail, spinnerGlyphs)
}

// lastLines returns the trailing n lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
