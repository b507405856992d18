package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docbrief/internal/metrics"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatTXT  Format = "txt"
	FormatDOCX Format = "docx"
)

const (
	DefaultMaxBytes = 16 << 20
	minPDFTextRunes = 100
)

var (
	ErrNoReadableText = errors.New("no readable text found")
	ErrTooLarge       = errors.New("document exceeds the upload size limit")
)

// UnsupportedFormatError is returned for extensions other than pdf, txt and docx.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return "unsupported file format: missing extension"
	}
	return fmt.Sprintf("unsupported file format: %s", e.Extension)
}

// ExtractionError wraps every failure of a supported format.
type ExtractionError struct {
	Filename string
	Format   Format
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Strategy turns raw document bytes into text.
type Strategy struct {
	Name    string
	Extract func(ctx context.Context, data []byte) (string, error)
}

type Result struct {
	Text     string
	Format   Format
	Strategy string
	Stats    Stats
}

type Extractor struct {
	maxBytes   int64
	strategies map[Format][]Strategy
	log        *slog.Logger
}

func New(log *slog.Logger, maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Extractor{
		maxBytes: maxBytes,
		strategies: map[Format][]Strategy{
			FormatPDF:  pdfStrategies(),
			FormatTXT:  txtStrategies(),
			FormatDOCX: docxStrategies(),
		},
		log: log,
	}
}

// DetectFormat maps a file name to a supported format by extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".txt":
		return FormatTXT, nil
	case ".docx":
		return FormatDOCX, nil
	default:
		return "", &UnsupportedFormatError{Extension: ext}
	}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (Result, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return Result{}, err
	}

	res, err := e.extract(ctx, data, format)
	metrics.RecordExtraction(string(format), err)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to extract document text",
			"error", err,
			"filename", filename,
			"format", format,
			"sizeBytes", len(data))

		return Result{}, &ExtractionError{Filename: filename, Format: format, Err: err}
	}

	e.log.DebugContext(ctx, "Document text is extracted",
		"filename", filename,
		"format", format,
		"strategy", res.Strategy,
		"words", res.Stats.Words)

	return res, nil
}

func (e *Extractor) extract(ctx context.Context, data []byte, format Format) (Result, error) {
	if int64(len(data)) > e.maxBytes {
		return Result{}, fmt.Errorf("%w (%d > %d bytes)", ErrTooLarge, len(data), e.maxBytes)
	}

	minRunes := 0
	if format == FormatPDF {
		minRunes = minPDFTextRunes
	}

	text, name, err := runStrategies(ctx, data, e.strategies[format], minRunes)
	if err != nil {
		return Result{}, err
	}

	text = CleanText(text)
	if text == "" {
		if format == FormatPDF {
			return Result{}, fmt.Errorf("%w in PDF: the document may be scanned or image-based", ErrNoReadableText)
		}
		return Result{}, fmt.Errorf("%w in %s document", ErrNoReadableText, strings.ToUpper(string(format)))
	}

	return Result{
		Text:     text,
		Format:   format,
		Strategy: name,
		Stats:    ComputeStats(text),
	}, nil
}

// runStrategies tries strategies in order. A result with fewer than minRunes
// non-space characters is kept as a candidate while later strategies run;
// the longest candidate wins when none is sufficient. When every strategy
// fails the last error is returned.
func runStrategies(
	ctx context.Context,
	data []byte,
	strategies []Strategy,
	minRunes int,
) (string, string, error) {
	var (
		errs          []error
		bestText      string
		bestName      string
		bestRuneCount = -1
	)

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		text, err := s.Extract(ctx, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}

		n := utf8.RuneCountInString(strings.TrimSpace(text))
		if n >= minRunes && n > 0 {
			return text, s.Name, nil
		}

		if n > bestRuneCount {
			bestText, bestName, bestRuneCount = text, s.Name, n
		}
	}

	if bestRuneCount >= 0 {
		return bestText, bestName, nil
	}

	if len(errs) == 0 {
		return "", "", errors.New("no extraction strategy is configured")
	}

	return "", "", errs[len(errs)-1]
}
