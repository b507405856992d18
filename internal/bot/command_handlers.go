package bot

import (
	"context"
	"fmt"
	"strings"

	"docbrief/internal/markdown"
	"docbrief/internal/pipeline"
	"docbrief/internal/summarizer"
)

const welcomeText = `📄 *Welcome to DocBrief\!*

I turn long documents into short summaries\. Send me:

– a PDF, TXT or DOCX file
– a link to an article, a feed or a public Telegram post
– or just paste the text

Under each summary you can translate it or listen to it\.

– Choose summary length with /length brief, standard or detailed
– Choose summarizer with /provider auto, extractive, openai, anthropic or gemini
– See current choices with /settings`

const settingsText = `*⚙️ Settings*

Summary length: *%s*
Summarizer: *%s*`

const (
	lengthUsageText   = "Usage: /length brief, /length standard or /length detailed\\."
	providerUsageText = "Usage: /provider auto, extractive, openai, anthropic or gemini\\."
)

func (b *Bot) handleStartCommand(ctx context.Context, chatID int64) error {
	return b.sendMessage(ctx, chatID, welcomeText)
}

func (b *Bot) handleLengthCommand(ctx context.Context, args string, chatID int64) error {
	arg := strings.ToLower(strings.TrimSpace(args))

	tier := summarizer.LengthTier(arg)
	switch tier {
	case summarizer.LengthBrief, summarizer.LengthStandard, summarizer.LengthDetailed:
	default:
		return b.sendMessage(ctx, chatID, lengthUsageText)
	}

	b.chats.update(chatID, func(st *chatState) {
		st.Tier = tier
	})

	return b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Summary length is *%s*\\.", markdown.EscapeV2(string(tier))))
}

func (b *Bot) handleProviderCommand(ctx context.Context, args string, chatID int64) error {
	arg := strings.ToLower(strings.TrimSpace(args))

	mode, provider, err := parseProviderChoice(arg)
	if err != nil {
		return b.sendMessage(ctx, chatID, providerUsageText)
	}

	b.chats.update(chatID, func(st *chatState) {
		st.Mode = mode
		st.Provider = provider
	})

	return b.sendMessage(ctx, chatID,
		fmt.Sprintf("✅ Summarizer is *%s*\\.", markdown.EscapeV2(describeSummarizer(mode, provider))))
}

func (b *Bot) handleSettingsCommand(ctx context.Context, chatID int64) error {
	st := b.chats.get(chatID)

	return b.sendMessage(ctx, chatID, fmt.Sprintf(settingsText,
		markdown.EscapeV2(string(st.Tier)),
		markdown.EscapeV2(describeSummarizer(st.Mode, st.Provider))))
}

// parseProviderChoice accepts a mode name or a provider name, the latter
// meaning AI mode with that provider.
func parseProviderChoice(arg string) (pipeline.Mode, string, error) {
	if arg == "" {
		return "", "", pipeline.ErrUnsupportedMode
	}

	if mode, err := pipeline.ParseMode(arg); err == nil {
		return mode, "", nil
	}

	provider, err := summarizer.ParseProvider(arg)
	if err != nil {
		return "", "", err
	}

	return pipeline.ModeAI, string(provider), nil
}

func describeSummarizer(mode pipeline.Mode, provider string) string {
	if provider != "" {
		return provider
	}

	return string(mode)
}
