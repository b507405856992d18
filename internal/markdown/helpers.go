package markdown

import (
	"strings"
	"unicode/utf8"
)

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `._[](){}#|!+-=*~>` + "`"

// MaxMessageLength is the Telegram limit for a single text message.
const MaxMessageLength = 4096

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var mdV2Lookup = func() [256]bool {
	var m [256]bool
	for i := range len(mdV2SpecialChars) {
		m[mdV2SpecialChars[i]] = true
	}
	return m
}()

func EscapeV2(input string) string {
	charsToEscape := 0

	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			charsToEscape++
		}
	}

	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if mdV2Lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Split cuts text into messages of at most limit runes, preferring
// paragraph, then line, then word boundaries. A cut never separates an
// escape backslash from the character it escapes.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	var parts []string
	for utf8.RuneCountInString(text) > limit {
		cut := cutIndex(text, limit)
		part := strings.TrimRight(text[:cut], " \n")
		if part != "" {
			parts = append(parts, part)
		}
		text = strings.TrimLeft(text[cut:], " \n")
	}

	text = strings.TrimRight(text, " \n")
	if text != "" {
		parts = append(parts, text)
	}

	return parts
}

// cutIndex returns a byte offset to cut at, within the first limit runes.
func cutIndex(text string, limit int) int {
	end := 0
	for range limit {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}

	window := text[:end]
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(window, sep); i > 0 {
			return i + len(sep)
		}
	}

	if window[len(window)-1] == '\\' && !escapedBackslash(window) {
		return end - 1
	}

	return end
}

// escapedBackslash reports whether the trailing backslash of s is itself
// escaped by an odd run of backslashes before it.
func escapedBackslash(s string) bool {
	run := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		run++
	}

	return run%2 == 0
}
