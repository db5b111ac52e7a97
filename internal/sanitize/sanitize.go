// Package sanitize cleans raw generation output into a bounded,
// transport-safe string for SMS template parameters.
package sanitize

import (
	"strings"
	"unicode"
)

// replacements folds full-width and typographic punctuation to half-width
// ASCII before the allow-list pass runs.
var replacements = map[rune]string{
	'，': ",", '。': ".", '：': ":", '；': ";",
	'？': "?", '！': "!", '“': `"`, '”': `"`,
	'‘': "'", '’': "'", '（': "(", '）': ")",
	'【': "[", '】': "]", '—': "-", '…': "...",
}

const allowedPunct = `,.!?;:"'()—[]-`

// Clean applies three passes in order: drop Latin letters and plain spaces,
// fold the fixed punctuation map, then drop every rune that is not a CJK
// ideograph, digit, newline, or allow-listed punctuation. Clean is pure and
// idempotent.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ' ' {
			continue
		}
		if rep, ok := replacements[r]; ok {
			b.WriteString(rep)
			continue
		}
		if allowed(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allowed(r rune) bool {
	switch {
	case r >= 0x4e00 && r <= 0x9fff:
		return true
	case unicode.IsDigit(r):
		return true
	case r == '\n':
		return true
	}
	return strings.ContainsRune(allowedPunct, r)
}
