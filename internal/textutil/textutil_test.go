package textutil

import (
	"strings"
	"testing"
)

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:           "0 B",
		512:         "512 B",
		1024:        "1.0 KB",
		1536:        "1.5 KB",
		5 << 20:     "5.0 MB",
		3 << 30:     "3.0 GB",
		2048 << 30:  "2048.0 GB",
		1023:        "1023 B",
		1024*1024-1: "1024.0 KB",
	}

	for in, want := range cases {
		if got := FormatFileSize(in); got != want {
			t.Fatalf("FormatFileSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateFileType(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.TXT", "c.docx"} {
		if !ValidateFileType(name) {
			t.Fatalf("expected %s to be supported", name)
		}
	}

	for _, name := range []string{"a.doc", "b", "c.pdf.exe"} {
		if ValidateFileType(name) {
			t.Fatalf("expected %s to be rejected", name)
		}
	}

	if ext := FileExtension("Report.PDF"); ext != ".pdf" {
		t.Fatalf("unexpected extension: %q", ext)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Fatalf("unexpected result: %q", got)
	}

	if got := Truncate(strings.Repeat("a", 12), 10); got != "aaaaaaa..." {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestReadingTime(t *testing.T) {
	cases := map[int]string{
		0:     "< 1 minute",
		199:   "< 1 minute",
		200:   "1 minute",
		450:   "2 minutes",
		11999: "59 minutes",
		12000: "1h 0m",
		30000: "2h 30m",
	}

	for words, want := range cases {
		if got := ReadingTime(words); got != want {
			t.Fatalf("ReadingTime(%d) = %q, want %q", words, got, want)
		}
	}

	if got := EstimateReadingTime(strings.Repeat("word ", 400)); got != "2 minutes" {
		t.Fatalf("unexpected estimate: %q", got)
	}
}

func TestCleanTextForDisplay(t *testing.T) {
	var lines []string
	for range 12 {
		lines = append(lines, "  line  ", "")
	}

	got := CleanTextForDisplay(strings.Join(lines, "\n"), DefaultDisplayLines)
	gotLines := strings.Split(got, "\n")

	if len(gotLines) != 11 || gotLines[10] != truncatedMarker || gotLines[0] != "line" {
		t.Fatalf("unexpected display text: %q", got)
	}

	if CleanTextForDisplay("", DefaultDisplayLines) != "" {
		t.Fatalf("expected empty display text")
	}
}

func TestFormatSummaryStats(t *testing.T) {
	got := FormatSummaryStats(12500, 500)

	want := SummaryStats{
		OriginalWords:       "12,500",
		SummaryWords:        "500",
		CompressionRatio:    "96.0%",
		ReadingTimeOriginal: "1h 2m",
		ReadingTimeSummary:  "2 minutes",
	}

	if got != want {
		t.Fatalf("unexpected stats: %+v", got)
	}

	if zero := FormatSummaryStats(0, 0); zero.CompressionRatio != "0.0%" {
		t.Fatalf("unexpected ratio for empty document: %q", zero.CompressionRatio)
	}
}
