package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"docbrief/internal/article"
	"docbrief/internal/domain"
	"docbrief/internal/extract"
	"docbrief/internal/extractive"
	"docbrief/internal/metrics"
	"docbrief/internal/summarizer"
	"docbrief/internal/textutil"
)

type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeAI         Mode = "ai"
	ModeExtractive Mode = "extractive"
)

const (
	MethodAI         = "ai"
	MethodExtractive = "extractive"
)

var (
	ErrNoInput         = errors.New("no content to summarize")
	ErrNoValidContent  = errors.New("no valid content to summarize")
	ErrUnsupportedMode = errors.New("unsupported summarization mode")
)

// FetchError reports a URL input that could not be turned into text.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch URL %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseMode maps user input to a mode, empty input meaning auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeAI, ModeExtractive:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

type ArticleFetcher interface {
	Fetch(ctx context.Context, rawURL string) (article.Article, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (extract.Result, error)
}

type AISummarizer interface {
	Availability(p summarizer.Provider) summarizer.Availability
	DefaultProvider() (summarizer.Provider, bool)
	GenerateSummary(
		ctx context.Context,
		text string,
		provider summarizer.Provider,
		tier summarizer.LengthTier,
		focusAreas string,
	) (string, error)
}

type HistoryStore interface {
	AddSummary(ctx context.Context, record domain.SummaryRecord) (int64, error)
}

type File struct {
	Name string
	Data []byte
}

type Request struct {
	URL        string
	Files      []File
	Text       string
	Mode       Mode
	Provider   string
	LengthTier string
	FocusAreas string
	UserID     int64
}

type Response struct {
	Summary         string                `json:"summary"`
	Method          string                `json:"method"`
	Provider        string                `json:"provider,omitempty"`
	LengthTier      string                `json:"lengthTier,omitempty"`
	SelectedIndices []int                 `json:"selectedIndices,omitempty"`
	Sources         []string              `json:"sources"`
	Stats           textutil.SummaryStats `json:"stats"`
	FallbackReason  string                `json:"fallbackReason,omitempty"`
}

type Deps struct {
	Fetcher    ArticleFetcher
	Extractor  TextExtractor
	AI         AISummarizer
	Extractive *extractive.Summarizer
	History    HistoryStore
}

type Pipeline struct {
	fetcher    ArticleFetcher
	extractor  TextExtractor
	ai         AISummarizer
	extractive *extractive.Summarizer
	history    HistoryStore
	log        *slog.Logger
}

// New builds a pipeline. AI and History are optional.
func New(deps Deps, log *slog.Logger) *Pipeline {
	heuristic := deps.Extractive
	if heuristic == nil {
		heuristic = extractive.New(nil)
	}

	return &Pipeline{
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		ai:         deps.AI,
		extractive: heuristic,
		history:    deps.History,
		log:        log,
	}
}

// Run gathers the text of every input, in URL, files, text order, and
// summarizes it with the requested method.
func (p *Pipeline) Run(ctx context.Context, req Request) (Response, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeAuto
	}

	text, sources, err := p.gather(ctx, req)
	if err != nil {
		return Response{}, err
	}

	resp, err := p.summarize(ctx, text, mode, req)
	if err != nil {
		return Response{}, err
	}

	wordsIn, wordsOut := textutil.CountWords(text), textutil.CountWords(resp.Summary)

	resp.Sources = sources
	resp.Stats = textutil.FormatSummaryStats(wordsIn, wordsOut)

	metrics.RecordSummary(resp.Method, resp.Provider)

	p.record(ctx, req, resp, wordsIn, wordsOut)

	return resp, nil
}

func (p *Pipeline) gather(ctx context.Context, req Request) (string, []string, error) {
	var (
		parts   []string
		sources []string
	)

	if rawURL := strings.TrimSpace(req.URL); rawURL != "" {
		if p.fetcher == nil {
			return "", nil, &FetchError{URL: rawURL, Err: errors.New("URL input is disabled")}
		}

		art, err := p.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return "", nil, &FetchError{URL: rawURL, Err: err}
		}

		parts = append(parts, art.Text)
		sources = append(sources, art.URL)
	}

	for _, f := range req.Files {
		res, err := p.extractor.Extract(ctx, f.Data, f.Name)
		if err != nil {
			return "", nil, err
		}

		parts = append(parts, res.Text)
		sources = append(sources, f.Name)
	}

	if text := strings.TrimSpace(req.Text); text != "" {
		parts = append(parts, text)
		sources = append(sources, "text")
	}

	joined := strings.Join(parts, "\n")
	if strings.TrimSpace(joined) == "" {
		return "", nil, ErrNoInput
	}

	return joined, sources, nil
}

func (p *Pipeline) summarize(ctx context.Context, text string, mode Mode, req Request) (Response, error) {
	switch mode {
	case ModeExtractive:
		return p.summarizeExtractive(text)
	case ModeAI, ModeAuto:
	default:
		return Response{}, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	resp, err := p.summarizeAI(ctx, text, req)
	if err == nil {
		return resp, nil
	}

	var unavailable *summarizer.ProviderUnavailableError
	if mode == ModeAuto && errors.As(err, &unavailable) {
		p.log.InfoContext(ctx, "AI provider is unavailable so extractive summary will be used",
			"provider", unavailable.Provider,
			"reason", unavailable.Reason)

		resp, err = p.summarizeExtractive(text)
		resp.FallbackReason = unavailable.Error()

		return resp, err
	}

	return Response{}, err
}

func (p *Pipeline) summarizeAI(ctx context.Context, text string, req Request) (Response, error) {
	if p.ai == nil {
		return Response{}, &summarizer.ProviderUnavailableError{Reason: "AI summarization is not configured"}
	}

	provider, err := p.resolveProvider(req.Provider)
	if err != nil {
		return Response{}, err
	}

	tier := summarizer.ParseLengthTier(req.LengthTier)

	summary, err := p.ai.GenerateSummary(ctx, text, provider, tier, req.FocusAreas)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Summary:    summary,
		Method:     MethodAI,
		Provider:   string(provider),
		LengthTier: string(tier),
	}, nil
}

func (p *Pipeline) resolveProvider(raw string) (summarizer.Provider, error) {
	if strings.TrimSpace(raw) == "" {
		provider, ok := p.ai.DefaultProvider()
		if !ok {
			return "", &summarizer.ProviderUnavailableError{Reason: "no AI provider is configured"}
		}

		return provider, nil
	}

	return summarizer.ParseProvider(raw)
}

func (p *Pipeline) summarizeExtractive(text string) (Response, error) {
	res, err := p.extractive.Summarize(text)
	if err != nil {
		if errors.Is(err, extractive.ErrNoSentences) {
			return Response{}, errors.Join(ErrNoValidContent, err)
		}

		return Response{}, err
	}

	return Response{
		Summary:         res.SummaryText,
		Method:          MethodExtractive,
		SelectedIndices: res.SelectedIndices,
	}, nil
}

func (p *Pipeline) record(ctx context.Context, req Request, resp Response, wordsIn, wordsOut int) {
	if p.history == nil || req.UserID == 0 {
		return
	}

	record := domain.SummaryRecord{
		UserID:       req.UserID,
		Source:       textutil.Truncate(strings.Join(resp.Sources, ", "), textutil.DefaultTruncateLength),
		Method:       resp.Method,
		Provider:     resp.Provider,
		LengthTier:   resp.LengthTier,
		Summary:      resp.Summary,
		WordCountIn:  wordsIn,
		WordCountOut: wordsOut,
	}

	if _, err := p.history.AddSummary(ctx, record); err != nil {
		p.log.WarnContext(ctx, "Failed to record summary history",
			"error", err,
			"userID", req.UserID,
			"method", resp.Method)
	}
}
