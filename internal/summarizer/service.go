package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"docbrief/internal/metrics"
)

const defaultCacheTTL = 6 * time.Hour

// Service dispatches summary requests to the configured providers.
type Service struct {
	providers map[Provider]Availability
	cache     *resultCache
	cacheTTL  time.Duration
	now       func() time.Time
	log       *slog.Logger
}

type ServiceOptions struct {
	CacheSize int
	CacheTTL  time.Duration
}

func NewService(log *slog.Logger, opts ServiceOptions, providers ...Availability) *Service {
	byName := make(map[Provider]Availability, len(providers))
	for _, a := range providers {
		byName[a.Provider()] = a
	}

	size := opts.CacheSize
	if size == 0 {
		size = defaultCacheMaxEntries
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Service{
		providers: byName,
		cache:     newResultCache(size),
		cacheTTL:  ttl,
		now:       time.Now,
		log:       log,
	}
}

// Availability reports whether a provider can be dispatched to.
func (s *Service) Availability(p Provider) Availability {
	if a, ok := s.providers[p]; ok {
		return a
	}

	return Unavailable(p, "not configured")
}

// AvailableProviders returns available providers in preference order.
func (s *Service) AvailableProviders() []Provider {
	var out []Provider
	for _, p := range KnownProviders {
		if s.Availability(p).IsAvailable() {
			out = append(out, p)
		}
	}

	return out
}

// DefaultProvider is the first available provider.
func (s *Service) DefaultProvider() (Provider, bool) {
	available := s.AvailableProviders()
	if len(available) == 0 {
		return "", false
	}

	return available[0], true
}

// GenerateSummary sends a length tiered, focus qualified prompt to provider.
func (s *Service) GenerateSummary(
	ctx context.Context,
	text string,
	provider Provider,
	tier LengthTier,
	focusAreas string,
) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	if _, ok := lengthInstructions[tier]; !ok {
		tier = LengthStandard
	}

	avail := s.Availability(provider)
	if !avail.IsAvailable() {
		return "", &ProviderUnavailableError{Provider: provider, Reason: avail.Reason()}
	}

	now := s.now()
	key := resultCacheKey(provider, tier, focusAreas, text)
	if summary, ok := s.cache.get(key, now); ok {
		s.log.DebugContext(ctx, "Summary cache hit",
			"provider", provider,
			"lengthTier", tier)

		return summary, nil
	}

	start := time.Now()
	summary, err := avail.backend.Complete(ctx, BuildPrompt(text, tier, focusAreas))
	metrics.RecordProviderRequest(string(provider), err, time.Since(start))
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to generate summary",
			"error", err,
			"provider", provider,
			"lengthTier", tier,
			"textLength", len(text))

		var reqErr *ProviderRequestError
		if errors.As(err, &reqErr) {
			return "", err
		}

		return "", &ProviderRequestError{Provider: provider, Err: err}
	}

	s.cache.set(key, summary, now.Add(s.cacheTTL), now)

	return summary, nil
}
