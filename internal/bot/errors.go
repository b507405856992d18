package bot

import (
	"errors"

	"docbrief/internal/extract"
	"docbrief/internal/markdown"
	"docbrief/internal/pipeline"
	"docbrief/internal/speech"
	"docbrief/internal/summarizer"
	"docbrief/internal/translate"
)

// failureText renders err as a MarkdownV2 reply.
func failureText(err error) string {
	var (
		fetchErr       *pipeline.FetchError
		unsupportedErr *extract.UnsupportedFormatError
		extractErr     *extract.ExtractionError
		unavailableErr *summarizer.ProviderUnavailableError
	)

	var msg string
	switch {
	case errors.Is(err, pipeline.ErrNoInput), errors.Is(err, pipeline.ErrNoValidContent):
		msg = "No readable text was found."
	case errors.As(err, &unsupportedErr):
		msg = "Only PDF, TXT, and DOCX files are supported."
	case errors.Is(err, extract.ErrTooLarge):
		msg = "The file is too large."
	case errors.As(err, &extractErr):
		msg = "Could not read the file: " + extractErr.Error()
	case errors.As(err, &fetchErr):
		msg = "Could not fetch the link: " + fetchErr.Err.Error()
	case errors.As(err, &unavailableErr):
		msg = "The chosen AI provider is unavailable. Try /provider auto."
	case errors.Is(err, translate.ErrUnsupportedLanguage), errors.Is(err, speech.ErrUnsupportedLanguage):
		msg = "This language is not supported."
	default:
		msg = "Something went wrong. Please try again later."
	}

	return "❌ " + markdown.EscapeV2(msg)
}
