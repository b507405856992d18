package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docbrief/internal/textutil"

	"github.com/google/uuid"
)

const (
	DefaultBaseURL = "https://translate.google.co.uk"

	// MaxChunkRunes is the longest text the endpoint voices per request.
	MaxChunkRunes = 100

	FilePrefix = "speech_"
	FileSuffix = ".mp3"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	defaultClientTimeout = 30 * time.Second
	maxChunkBytes        = 2 << 20
)

var (
	ErrEmptyText           = errors.New("no text to speak")
	ErrUnsupportedLanguage = errors.New("unsupported speech language")

	langRe = regexp.MustCompile(`^[a-z]{2,3}(-[a-zA-Z]{2,4})?$`)
)

type Audio struct {
	Filename string
	Path     string
	Chunks   int
}

type Client struct {
	client  *http.Client
	baseURL string
	dir     string
	log     *slog.Logger
}

// NewClient writes generated audio into dir, which is created on demand.
func NewClient(client *http.Client, baseURL string, dir string, log *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		dir:     dir,
		log:     log,
	}
}

// Speak voices text in lang and stores the MP3 as speech_<uuid>.mp3.
func (c *Client) Speak(ctx context.Context, text string, lang string) (Audio, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = "en"
	}

	if !langRe.MatchString(lang) {
		return Audio{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	chunks := textutil.SplitChunks(text, MaxChunkRunes)
	if len(chunks) == 0 {
		return Audio{}, ErrEmptyText
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		if err := c.fetchChunk(ctx, &audio, chunk, lang, i, len(chunks)); err != nil {
			return Audio{}, fmt.Errorf("speak chunk %d of %d: %w", i+1, len(chunks), err)
		}
	}

	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return Audio{}, fmt.Errorf("create audio dir: %w", err)
	}

	filename := FilePrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + FileSuffix
	path := filepath.Join(c.dir, filename)

	tmp := path + ".part"
	if err := os.WriteFile(tmp, audio.Bytes(), 0o600); err != nil {
		return Audio{}, fmt.Errorf("write audio: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return Audio{}, errors.Join(fmt.Errorf("rename audio: %w", err), os.Remove(tmp))
	}

	c.log.InfoContext(ctx, "Audio file is generated",
		"path", path,
		"language", lang,
		"chunks", len(chunks))

	return Audio{Filename: filename, Path: path, Chunks: len(chunks)}, nil
}

func (c *Client) fetchChunk(
	ctx context.Context,
	w io.Writer,
	chunk string,
	lang string,
	idx int,
	total int,
) error {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", "tw-ob")
	query.Set("tl", lang)
	query.Set("q", chunk)
	query.Set("total", strconv.Itoa(total))
	query.Set("idx", strconv.Itoa(idx))
	query.Set("textlen", strconv.Itoa(textutil.RuneLen(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate_tts?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"language", lang)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	n, err := io.Copy(w, io.LimitReader(resp.Body, maxChunkBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if n == 0 {
		return errors.New("read body: empty audio")
	}

	return nil
}

// PurgeOlderThan removes generated audio files last modified before now-age
// and returns how many were removed.
func (c *Client) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}

		return 0, fmt.Errorf("read audio dir: %w", err)
	}

	cutoff := time.Now().Add(-age)

	var (
		removed int64
		errs    []error
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsAudioFile(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		if err = os.Remove(filepath.Join(c.dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}

		removed++
	}

	if removed > 0 {
		c.log.InfoContext(ctx, "Old audio files are removed",
			"removed", removed,
			"dir", c.dir)
	}

	return removed, errors.Join(errs...)
}

// IsAudioFile reports whether name looks like a file produced by Speak.
func IsAudioFile(name string) bool {
	return filepath.Base(name) == name &&
		strings.HasPrefix(name, FilePrefix) &&
		strings.HasSuffix(name, FileSuffix)
}
