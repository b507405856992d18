package textutil

import (
	"strings"
	"unicode/utf8"
)

// SplitChunks groups the words of text into chunks of at most limit runes.
// A word longer than limit is cut into limit sized pieces.
func SplitChunks(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)

	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		wordSize := len(runes)
		if wordSize == 0 {
			continue
		}

		if size > 0 && size+1+wordSize > limit {
			flush()
		}

		if size > 0 {
			current.WriteByte(' ')
			size++
		}

		current.WriteString(string(runes))
		size += wordSize
	}

	flush()

	return chunks
}

// RuneLen is the length of s in runes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
