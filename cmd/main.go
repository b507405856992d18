package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"docbrief/internal/article"
	"docbrief/internal/auth"
	"docbrief/internal/bot"
	"docbrief/internal/config"
	"docbrief/internal/database"
	"docbrief/internal/extract"
	"docbrief/internal/extractive"
	"docbrief/internal/pipeline"
	"docbrief/internal/scheduler"
	"docbrief/internal/server"
	"docbrief/internal/speech"
	"docbrief/internal/summarizer"
	"docbrief/internal/translate"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	ai := summarizer.NewService(log,
		summarizer.ServiceOptions{CacheSize: cfg.SummaryCacheSize},
		initOpenAIProvider(ctx, cfg.OpenAIAPIKey, log),
		initAnthropicProvider(ctx, cfg.AnthropicAPIKey, log),
		initGeminiProvider(ctx, cfg.GeminiAPIKey, log),
	)

	heuristic := extractive.New(extractive.NewAnalyzer(extractive.Options{
		Salience: cfg.SalienceMode,
		Workers:  runtime.NumCPU(),
	}))
	log.InfoContext(ctx, "Extractive summarizer is initialized",
		"salienceMode", cfg.SalienceMode)

	pipe := pipeline.New(pipeline.Deps{
		Fetcher:    article.NewFetcher(httpClient, log),
		Extractor:  extract.New(log, cfg.MaxUploadBytes),
		AI:         ai,
		Extractive: heuristic,
		History:    db,
	}, log)

	translator := translate.NewClient(httpClient, translate.DefaultBaseURL, log)
	speaker := speech.NewClient(httpClient, speech.DefaultBaseURL, cfg.UploadDir, log)
	authService := auth.NewService(db, cfg.SessionTTL, log)

	srv := server.New(server.Deps{
		Auth:       authService,
		Summarizer: pipe,
		Providers:  ai,
		Translator: translator,
		Speaker:    speaker,
		History:    db,
	}, server.Options{
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
	}, log)

	var botInst *bot.Bot
	if cfg.TelegramToken != "" {
		botInst, err = bot.New(cfg.TelegramToken, bot.Deps{
			Summarizer: pipe,
			Translator: translator,
			Speaker:    speaker,
		}, bot.Options{
			AllowedUsers: cfg.AllowedUsers,
			MaxFileBytes: cfg.MaxUploadBytes,
			HTTPClient:   httpClient,
		}, log)
		if err != nil {
			log.ErrorContext(ctx, "Failed to initialize bot",
				"error", err,
				"allowedUsersCount", len(cfg.AllowedUsers))

			return
		}
		log.InfoContext(ctx, "Bot is initialized",
			"allowedUsersCount", len(cfg.AllowedUsers))
	} else {
		log.WarnContext(ctx, "TELEGRAM_TOKEN is missing so bot will not be started",
			"envVar", "TELEGRAM_TOKEN")
	}

	sched := scheduler.New(ctx, authService, speaker, cfg.SpeechRetention, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", scheduler.HousekeepingSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", scheduler.HousekeepingSpec,
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.InfoContext(gCtx, "Server is started",
			"addr", cfg.HTTPAddr)

		return srv.Start(cfg.HTTPAddr)
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		return srv.Shutdown(shutdownCtx)
	})

	if botInst != nil {
		g.Go(func() error {
			log.InfoContext(gCtx, "Bot is started",
				"updateTimeoutSeconds", bot.BotUpdateTimeout)

			botInst.Start(gCtx)
			botInst.Stop()

			log.InfoContext(gCtx, "Bot is stopped",
				"uptimeSeconds", time.Since(start).Seconds())

			return nil
		})
	}

	g.Go(func() error {
		select {
		case sig := <-c:
			log.InfoContext(gCtx, "Shutdown signal is received",
				"signal", sig.String())
			cancel()
		case <-gCtx.Done():
		}

		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Failed to run server",
			"error", err,
			"addr", cfg.HTTPAddr)
	}

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initOpenAIProvider(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Availability {
	if apiKey == "" {
		log.WarnContext(ctx, "OPENAI_API_KEY is missing so provider is disabled",
			"envVar", "OPENAI_API_KEY")

		return summarizer.Unavailable(summarizer.ProviderOpenAI, "OPENAI_API_KEY is not set")
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", summarizer.ProviderOpenAI)

	return summarizer.Available(summarizer.ProviderOpenAI, summarizer.NewOpenAIBackend(apiKey))
}

func initAnthropicProvider(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Availability {
	if apiKey == "" {
		log.WarnContext(ctx, "ANTHROPIC_API_KEY is missing so provider is disabled",
			"envVar", "ANTHROPIC_API_KEY")

		return summarizer.Unavailable(summarizer.ProviderAnthropic, "ANTHROPIC_API_KEY is not set")
	}

	log.InfoContext(ctx, "Anthropic summarizer is initialized",
		"provider", summarizer.ProviderAnthropic)

	return summarizer.Available(summarizer.ProviderAnthropic, summarizer.NewAnthropicBackend(apiKey))
}

func initGeminiProvider(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Availability {
	if apiKey == "" {
		log.WarnContext(ctx, "GEMINI_API_KEY is missing so provider is disabled",
			"envVar", "GEMINI_API_KEY")

		return summarizer.Unavailable(summarizer.ProviderGemini, "GEMINI_API_KEY is not set")
	}

	backend, err := summarizer.NewGeminiBackend(ctx, apiKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create Gemini summarizer so provider is disabled",
			"error", err,
			"envVar", "GEMINI_API_KEY")

		return summarizer.Unavailable(summarizer.ProviderGemini, "client initialization failed")
	}

	log.InfoContext(ctx, "Gemini summarizer is initialized",
		"provider", summarizer.ProviderGemini)

	return summarizer.Available(summarizer.ProviderGemini, backend)
}
