package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docbrief/internal/markdown"
	"docbrief/internal/translate"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	translateCallbackPrefix = "translate_"
	speakCallbackPrefix     = "speak_"
	languageKeyboardRowSize = 3
)

func (b *Bot) sendMessageWithKeyboard(
	ctx context.Context,
	chatID int64,
	text string,
	keyboard [][]models.InlineKeyboardButton,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   normalizedText,
		// See https://core.telegram.org/bots/api#markdownv2-style.
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: tgbot.True()},
	}
	if len(keyboard) > 0 {
		params.ReplyMarkup = models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
	}

	return b.rateLimiter.Do(ctx, chatID, func(ctx context.Context) error {
		_, err := b.api.SendMessage(ctx, params)
		return err
	})
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) error {
	return b.sendMessageWithKeyboard(ctx, chatID, text, nil)
}

// sendLongMessage splits text at the message limit and attaches the
// keyboard to the last part only.
func (b *Bot) sendLongMessage(
	ctx context.Context,
	chatID int64,
	text string,
	keyboard [][]models.InlineKeyboardButton,
) error {
	parts := markdown.Split(text, markdown.MaxMessageLength)

	var errs []error
	for i, part := range parts {
		var kb [][]models.InlineKeyboardButton
		if i == len(parts)-1 {
			kb = keyboard
		}

		if err := b.sendMessageWithKeyboard(ctx, chatID, part, kb); err != nil {
			errs = append(errs, fmt.Errorf("send part %d of %d: %w", i+1, len(parts), err))
		}
	}

	return errors.Join(errs...)
}

func getSummaryKeyboard() [][]models.InlineKeyboardButton {
	return [][]models.InlineKeyboardButton{
		{
			{Text: "🌐 Translate", CallbackData: "translate"},
			{Text: "🔊 Listen", CallbackData: "speak"},
		},
	}
}

func getTranslationKeyboard(lang string) [][]models.InlineKeyboardButton {
	return [][]models.InlineKeyboardButton{
		{
			{Text: "🔊 Listen", CallbackData: speakCallbackPrefix + lang},
			{Text: "🌐 Other language", CallbackData: "translate"},
		},
	}
}

func getLanguageKeyboard() [][]models.InlineKeyboardButton {
	languages := translate.Languages()

	var keyboard [][]models.InlineKeyboardButton
	for i := 0; i < len(languages); i += languageKeyboardRowSize {
		var row []models.InlineKeyboardButton

		for j := i; j < i+languageKeyboardRowSize && j < len(languages); j++ {
			row = append(row, models.InlineKeyboardButton{
				Text:         languages[j].Name,
				CallbackData: translateCallbackPrefix + languages[j].Code,
			})
		}

		keyboard = append(keyboard, row)
	}

	return keyboard
}
