package server

import (
	"errors"
	"net/http"

	"docbrief/internal/extract"
	"docbrief/internal/pipeline"
	"docbrief/internal/speech"
	"docbrief/internal/summarizer"
	"docbrief/internal/translate"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
)

type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type apiError struct {
	Error string `json:"error"`
}

// summarizeError maps a pipeline failure to a status code and a message
// safe to show to the user.
func summarizeError(err error) (int, string) {
	var (
		fetchErr       *pipeline.FetchError
		unsupportedErr *extract.UnsupportedFormatError
		extractErr     *extract.ExtractionError
		unavailableErr *summarizer.ProviderUnavailableError
		requestErr     *summarizer.ProviderRequestError
		maxBytesErr    *http.MaxBytesError
	)

	switch {
	case errors.Is(err, pipeline.ErrNoInput):
		return http.StatusBadRequest, "No content to summarize"
	case errors.Is(err, pipeline.ErrNoValidContent):
		return http.StatusUnprocessableEntity, "No valid content to summarize"
	case errors.Is(err, pipeline.ErrUnsupportedMode), errors.Is(err, summarizer.ErrUnsupportedProvider):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &unsupportedErr):
		return http.StatusUnsupportedMediaType, "Only PDF, TXT, and DOCX files are supported."
	case errors.Is(err, extract.ErrTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "Upload is too large."
	case errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity, extractErr.Error()
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, "Failed to fetch URL: " + fetchErr.Err.Error()
	case errors.As(err, &unavailableErr):
		return http.StatusServiceUnavailable, unavailableErr.Error()
	case errors.As(err, &requestErr):
		return http.StatusBadGateway, "Summarize failed: " + requestErr.Error()
	default:
		return http.StatusInternalServerError, "Summarize failed: " + err.Error()
	}
}

func translateError(err error) (int, string) {
	switch {
	case errors.Is(err, translate.ErrUnsupportedLanguage):
		return http.StatusBadRequest, "Unsupported language"
	case errors.Is(err, translate.ErrEmptyText):
		return http.StatusBadRequest, "No text to translate"
	default:
		return http.StatusBadGateway, "Translation failed: " + err.Error()
	}
}

func speakError(err error) (int, string) {
	switch {
	case errors.Is(err, speech.ErrEmptyText):
		return http.StatusBadRequest, "No text to speak"
	case errors.Is(err, speech.ErrUnsupportedLanguage):
		return http.StatusBadRequest, "Unsupported language"
	default:
		return http.StatusBadGateway, "Text-to-speech failed: " + err.Error()
	}
}
