package textutil

import (
	"slices"
	"strings"
	"testing"
)

func TestSplitChunks(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "empty", text: "  ", limit: 10, want: nil},
		{name: "fits", text: "rent is due", limit: 20, want: []string{"rent is due"}},
		{name: "word boundary", text: "rent is due monthly", limit: 11, want: []string{"rent is due", "monthly"}},
		{name: "long word", text: "a abcdefghij b", limit: 4, want: []string{"a", "abcd", "efgh", "ij b"}},
		{name: "whitespace collapsed", text: "one\n\ntwo\tthree", limit: 100, want: []string{"one two three"}},
		{name: "multibyte", text: "ಕನ್ನಡ ಭಾಷೆ", limit: 5, want: []string{"ಕನ್ನಡ", "ಭಾಷೆ"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitChunks(tc.text, tc.limit)
			if !slices.Equal(got, tc.want) {
				t.Fatalf("SplitChunks(%q, %d) = %q, want %q", tc.text, tc.limit, got, tc.want)
			}
		})
	}
}

func TestSplitChunksRespectsLimit(t *testing.T) {
	text := strings.Repeat("clause ", 500)

	for _, chunk := range SplitChunks(text, 100) {
		if RuneLen(chunk) > 100 {
			t.Fatalf("chunk exceeds limit: %d", RuneLen(chunk))
		}
	}
}
