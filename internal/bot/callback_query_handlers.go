package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"docbrief/internal/markdown"
	"docbrief/internal/translate"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const noSummaryText = "Send a document first."

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *models.CallbackQuery) error {
	chatID := callbackChatID(callback)
	data := strings.TrimSpace(callback.Data)

	switch data {
	case "translate":
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.sendMessageWithKeyboard(ctx, chatID, "🌐 *Choose a language:*", getLanguageKeyboard())
		})
	case "speak":
		return b.handleSpeakQuery(ctx, translate.DefaultLanguage, callback)
	}

	if lang, ok := strings.CutPrefix(data, translateCallbackPrefix); ok {
		return b.handleTranslateQuery(ctx, lang, callback)
	}

	if lang, ok := strings.CutPrefix(data, speakCallbackPrefix); ok {
		return b.handleSpeakQuery(ctx, lang, callback)
	}

	return nil
}

func (b *Bot) handleTranslateQuery(
	ctx context.Context,
	lang string,
	callback *models.CallbackQuery,
) error {
	chatID := callbackChatID(callback)

	st := b.chats.get(chatID)
	if st.Summary == "" {
		return b.answerCallback(ctx, callback, noSummaryText)
	}

	if err := b.answerCallback(ctx, callback, ""); err != nil {
		return err
	}

	return b.withSpinner(ctx, chatID, func() error {
		translation, err := b.translator.Translate(ctx, st.Summary, lang)
		if err != nil {
			errs := []error{fmt.Errorf("translate: %w", err)}

			if sendErr := b.sendMessage(ctx, chatID, failureText(err)); sendErr != nil {
				errs = append(errs, fmt.Errorf("send message: %w", sendErr))
			}

			return errors.Join(errs...)
		}

		b.chats.update(chatID, func(st *chatState) {
			st.Translations[translation.Code] = translation.Text
		})

		text := fmt.Sprintf("🌐 *%s*\n\n%s",
			markdown.EscapeV2(translation.Language),
			markdown.EscapeV2(translation.Text))

		return b.sendLongMessage(ctx, chatID, text, getTranslationKeyboard(translation.Code))
	})
}

// handleSpeakQuery reads out the translation in lang if there is one and
// the summary itself otherwise.
func (b *Bot) handleSpeakQuery(
	ctx context.Context,
	lang string,
	callback *models.CallbackQuery,
) error {
	chatID := callbackChatID(callback)

	st := b.chats.get(chatID)
	if st.Summary == "" {
		return b.answerCallback(ctx, callback, noSummaryText)
	}

	text, ok := st.Translations[lang]
	if !ok {
		text, lang = st.Summary, translate.DefaultLanguage
	}

	if err := b.answerCallback(ctx, callback, ""); err != nil {
		return err
	}

	return b.withSpinner(ctx, chatID, func() error {
		audio, err := b.speaker.Speak(ctx, text, lang)
		if err != nil {
			errs := []error{fmt.Errorf("speak: %w", err)}

			if sendErr := b.sendMessage(ctx, chatID, failureText(err)); sendErr != nil {
				errs = append(errs, fmt.Errorf("send message: %w", sendErr))
			}

			return errors.Join(errs...)
		}

		return b.sendAudio(ctx, chatID, audio.Path, audio.Filename)
	})
}

func (b *Bot) sendAudio(ctx context.Context, chatID int64, path string, filename string) error {
	return b.rateLimiter.Do(ctx, chatID, func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open audio: %w", err)
		}
		defer func() {
			if err = f.Close(); err != nil {
				b.log.ErrorContext(ctx, "Failed to close audio file",
					"error", err,
					"path", path)
			}
		}()

		if _, err = b.api.SendAudio(ctx, &tgbot.SendAudioParams{
			ChatID: chatID,
			Audio:  &models.InputFileUpload{Filename: filename, Data: f},
			Title:  "Summary",
		}); err != nil {
			return fmt.Errorf("send audio: %w", err)
		}

		return nil
	})
}

func (b *Bot) answerCallback(ctx context.Context, callback *models.CallbackQuery, text string) error {
	if _, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
		Text:            text,
	}); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	return nil
}

func (b *Bot) withEmptyCallbackAnswer(
	ctx context.Context,
	callback *models.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if err := b.answerCallback(ctx, callback, ""); err != nil {
		errs = append(errs, b.errorCallbackAnswer(ctx, callback, err))
	}

	if err := fn(); err != nil {
		errs = append(errs, fmt.Errorf("call fn: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	ctx context.Context,
	callback *models.CallbackQuery,
	err error,
) error {
	if sendErr := b.answerCallback(ctx, callback, "❌ Failed."); sendErr != nil {
		return errors.Join(err, sendErr)
	}

	return err
}
