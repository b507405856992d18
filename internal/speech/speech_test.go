package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSpeak(t *testing.T) {
	var requests []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/translate_tts" || q.Get("client") != "tw-ob" || q.Get("tl") != "en" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}

		requests = append(requests, q.Get("q"))
		_, _ = io.WriteString(w, "ID3:"+q.Get("idx")+";")
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(srv.Client(), srv.URL, dir, discardLogger())

	text := strings.Repeat("The tenant pays rent. ", 10)

	got, err := c.Speak(context.Background(), text, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !IsAudioFile(got.Filename) || got.Path != filepath.Join(dir, got.Filename) {
		t.Fatalf("unexpected audio: %+v", got)
	}

	if got.Chunks != len(requests) || got.Chunks != 3 {
		t.Fatalf("unexpected chunk count: %d (requests %d)", got.Chunks, len(requests))
	}

	for _, q := range requests {
		if len(q) > MaxChunkRunes {
			t.Fatalf("chunk too long: %q", q)
		}
	}

	data, err := os.ReadFile(got.Path)
	if err != nil {
		t.Fatalf("read audio: %v", err)
	}

	if string(data) != "ID3:0;ID3:1;ID3:2;" {
		t.Fatalf("unexpected audio content: %q", data)
	}
}

func TestSpeakErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(srv.Client(), srv.URL, dir, discardLogger())

	if _, err := c.Speak(context.Background(), "   ", "en"); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}

	if _, err := c.Speak(context.Background(), "text", "../../etc"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}

	_, err := c.Speak(context.Background(), "text", "hi")
	if err == nil || !strings.Contains(err.Error(), "unexpected status: 502") {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files after failure, got %d", len(entries))
	}
}

func TestPurgeOlderThan(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(nil, "", dir, discardLogger())

	old := filepath.Join(dir, "speech_old.mp3")
	fresh := filepath.Join(dir, "speech_fresh.mp3")
	other := filepath.Join(dir, "report.pdf")

	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	past := time.Now().Add(-48 * time.Hour)
	for _, p := range []string{old, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed, err := c.PurgeOlderThan(context.Background(), 24*time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("unexpected purge result: %d, %v", removed, err)
	}

	for p, exists := range map[string]bool{old: false, fresh: true, other: true} {
		if _, err := os.Stat(p); (err == nil) != exists {
			t.Fatalf("unexpected state for %s: %v", p, err)
		}
	}

	missing := NewClient(nil, "", filepath.Join(dir, "missing"), discardLogger())
	if n, err := missing.PurgeOlderThan(context.Background(), time.Hour); n != 0 || err != nil {
		t.Fatalf("unexpected result for missing dir: %d, %v", n, err)
	}
}
