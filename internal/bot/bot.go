package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"docbrief/internal/pipeline"
	"docbrief/internal/ratelimiter"
	"docbrief/internal/speech"
	"docbrief/internal/translate"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	updateProcessingTimeout = 120 * time.Second
	downloadTimeout         = 60 * time.Second

	BotUpdateTimeout = 60

	defaultMaxFileBytes = 16 << 20
)

// api is the part of the Telegram client the bot talks to.
type api interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendAudio(ctx context.Context, params *tgbot.SendAudioParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
	GetFile(ctx context.Context, params *tgbot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Summarizer interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
}

type Translator interface {
	Translate(ctx context.Context, text string, lang string) (translate.Translation, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string, lang string) (speech.Audio, error)
}

type Deps struct {
	Summarizer Summarizer
	Translator Translator
	Speaker    Speaker
}

type Options struct {
	AllowedUsers []int64
	MaxFileBytes int64
	HTTPClient   *http.Client
	RateLimits   ratelimiter.Options
}

type Bot struct {
	tg           *tgbot.Bot
	api          api
	rateLimiter  *ratelimiter.RateLimiter
	summarizer   Summarizer
	translator   Translator
	speaker      Speaker
	client       *http.Client
	allowedUsers []int64
	maxFileBytes int64
	chats        *chatStore
	log          *slog.Logger
}

func New(
	token string,
	deps Deps,
	opts Options,
	log *slog.Logger,
) (*Bot, error) {
	token = strings.TrimSpace(token)

	b := newBot(nil, deps, opts, log)

	tg, err := tgbot.New(token,
		tgbot.WithDefaultHandler(b.handleUpdate),
		tgbot.WithHTTPClient(BotUpdateTimeout*time.Second, &http.Client{
			Timeout: (BotUpdateTimeout + 10) * time.Second,
		}),
	)
	if err != nil {
		b.rateLimiter.Stop()
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	b.tg = tg
	b.api = tg

	return b, nil
}

func newBot(client api, deps Deps, opts Options, log *slog.Logger) *Bot {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: downloadTimeout}
	}

	maxFileBytes := opts.MaxFileBytes
	if maxFileBytes <= 0 {
		maxFileBytes = defaultMaxFileBytes
	}

	return &Bot{
		api:          client,
		rateLimiter:  ratelimiter.New(opts.RateLimits, log),
		summarizer:   deps.Summarizer,
		translator:   deps.Translator,
		speaker:      deps.Speaker,
		client:       httpClient,
		allowedUsers: opts.AllowedUsers,
		maxFileBytes: maxFileBytes,
		chats:        newChatStore(),
		log:          log,
	}
}

// Start long-polls Telegram until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.tg.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := update.Message
		chatID := message.Chat.ID

		if message.From == nil || !b.userAllowed(message.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", senderID(message),
				"chatID", chatID,
				"chatType", message.Chat.Type)

			return
		}

		if err := b.handleMessage(updateCtx, message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", message.From.ID,
				"chatType", message.Chat.Type,
				"messageID", message.ID)
		}

	case update.CallbackQuery != nil:
		callback := update.CallbackQuery
		chatID := callbackChatID(callback)

		if !b.userAllowed(callback.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", callback.From.ID,
				"chatID", chatID,
				"username", callback.From.Username,
				"data", callback.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, callback); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", callback.From.ID,
				"data", callback.Data)
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

func senderID(message *models.Message) int64 {
	if message.From == nil {
		return 0
	}

	return message.From.ID
}

func callbackChatID(cb *models.CallbackQuery) int64 {
	switch {
	case cb.Message.Message != nil:
		return cb.Message.Message.Chat.ID
	case cb.Message.InaccessibleMessage != nil:
		return cb.Message.InaccessibleMessage.Chat.ID
	default:
		return cb.From.ID
	}
}
