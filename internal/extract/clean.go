package extract

import (
	"strings"
	"unicode/utf8"
)

// CleanText drops blank lines and trims the rest. Lines are joined with a
// space unless they end a sentence, in which case a paragraph break follows.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		if i == len(lines)-1 {
			break
		}

		switch line[len(line)-1] {
		case '.', ':', '!', '?':
			b.WriteString("\n\n")
		default:
			b.WriteByte(' ')
		}
	}

	return strings.TrimSpace(b.String())
}

type Stats struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
	Paragraphs int `json:"paragraphs"`
}

func ComputeStats(text string) Stats {
	if text == "" {
		return Stats{}
	}

	paragraphs := 0
	for p := range strings.SplitSeq(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}

	return Stats{
		Words:      len(strings.Fields(text)),
		Characters: utf8.RuneCountInString(text),
		Paragraphs: paragraphs,
	}
}
