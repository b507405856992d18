package textutil

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	DefaultTruncateLength = 100
	DefaultDisplayLines   = 10
	WordsPerMinute        = 200

	truncatedMarker = "... (text truncated)"
)

var (
	supportedFileTypes = []string{"pdf", "txt", "docx"}
	sizeUnits          = []string{"B", "KB", "MB", "GB"}
)

// FormatFileSize renders a byte count with a 1024 base, e.g. "1.5 MB".
func FormatFileSize(size int64) string {
	if size == 0 {
		return "0 B"
	}

	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%d %s", size, sizeUnits[0])
	}

	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}

func SupportedFileTypes() []string {
	return slices.Clone(supportedFileTypes)
}

// FileExtension returns the lower-cased extension including the dot.
func FileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func ValidateFileType(filename string) bool {
	ext := strings.TrimPrefix(FileExtension(filename), ".")

	return ext != "" && slices.Contains(supportedFileTypes, ext)
}

// Truncate cuts text to maxLength runes, the last three being an ellipsis.
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	return string(runes[:max(maxLength-3, 0)]) + "..."
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}

func EstimateReadingTime(text string) string {
	return ReadingTime(CountWords(text))
}

// ReadingTime formats the time needed to read words at 200 words a minute.
func ReadingTime(words int) string {
	minutes := float64(words) / WordsPerMinute

	switch {
	case minutes < 1:
		return "< 1 minute"
	case minutes < 60:
		m := int(minutes)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	default:
		total := int(minutes)
		return fmt.Sprintf("%dh %dm", total/60, total%60)
	}
}

// CleanTextForDisplay keeps at most maxLines non-blank trimmed lines.
func CleanTextForDisplay(text string, maxLines int) string {
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], truncatedMarker)
	}

	return strings.Join(lines, "\n")
}

type SummaryStats struct {
	OriginalWords       string `json:"originalWords"`
	SummaryWords        string `json:"summaryWords"`
	CompressionRatio    string `json:"compressionRatio"`
	ReadingTimeOriginal string `json:"readingTimeOriginal"`
	ReadingTimeSummary  string `json:"readingTimeSummary"`
}

func FormatSummaryStats(originalWords, summaryWords int) SummaryStats {
	ratio := 0.0
	if originalWords != 0 {
		ratio = (1 - float64(summaryWords)/float64(originalWords)) * 100
	}

	return SummaryStats{
		OriginalWords:       humanize.Comma(int64(originalWords)),
		SummaryWords:        humanize.Comma(int64(summaryWords)),
		CompressionRatio:    fmt.Sprintf("%.1f%%", ratio),
		ReadingTimeOriginal: ReadingTime(originalWords),
		ReadingTimeSummary:  ReadingTime(summaryWords),
	}
}
