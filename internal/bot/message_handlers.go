package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"docbrief/internal/article"
	"docbrief/internal/extract"
	"docbrief/internal/markdown"
	"docbrief/internal/pipeline"
	"docbrief/internal/textutil"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	minTextRunes = 200

	shortTextHint = "Send a file, a link or a longer text \\(at least 200 characters\\) to summarize\\. See /help\\."
)

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	chatID := message.Chat.ID

	if message.Document != nil {
		return b.withSpinner(ctx, chatID, func() error {
			return b.handleDocument(ctx, message.Document, chatID)
		})
	}

	text := strings.TrimSpace(message.Text)
	command, args, _ := strings.Cut(text, " ")
	// Commands in groups may carry the bot name: /length@docbrief_bot.
	command, _, _ = strings.Cut(command, "@")

	switch command {
	case "/start", "/help":
		return b.handleStartCommand(ctx, chatID)
	case "/length":
		return b.handleLengthCommand(ctx, args, chatID)
	case "/provider":
		return b.handleProviderCommand(ctx, args, chatID)
	case "/settings":
		return b.handleSettingsCommand(ctx, chatID)
	}

	if text == "" {
		return nil
	}

	return b.withSpinner(ctx, chatID, func() error {
		return b.handleText(ctx, text, chatID)
	})
}

func (b *Bot) handleText(ctx context.Context, text string, chatID int64) error {
	var req pipeline.Request

	if urls := article.FindURLs(text); len(urls) > 0 {
		req.URL = urls[0]
	} else if utf8.RuneCountInString(text) >= minTextRunes {
		req.Text = text
	} else {
		return b.sendMessage(ctx, chatID, shortTextHint)
	}

	return b.summarize(ctx, chatID, req)
}

func (b *Bot) handleDocument(ctx context.Context, doc *models.Document, chatID int64) error {
	name := strings.TrimSpace(doc.FileName)

	if !textutil.ValidateFileType(name) {
		return b.sendMessage(ctx, chatID, failureText(&extract.UnsupportedFormatError{Extension: textutil.FileExtension(name)}))
	}

	if doc.FileSize > b.maxFileBytes {
		return b.sendMessage(ctx, chatID, failureText(extract.ErrTooLarge))
	}

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		errs := []error{fmt.Errorf("download file: %w", err)}

		if sendErr := b.sendMessage(ctx, chatID, failureText(err)); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	return b.summarize(ctx, chatID, pipeline.Request{
		Files: []pipeline.File{{Name: name, Data: data}},
	})
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.api.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			b.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"fileID", fileID)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if int64(len(data)) > b.maxFileBytes {
		return nil, extract.ErrTooLarge
	}

	return data, nil
}

// summarize runs req with the chat preferences and replies with the
// summary and its action buttons.
func (b *Bot) summarize(ctx context.Context, chatID int64, req pipeline.Request) error {
	st := b.chats.get(chatID)

	req.Mode = st.Mode
	req.Provider = st.Provider
	req.LengthTier = string(st.Tier)

	resp, err := b.summarizer.Run(ctx, req)
	if err != nil {
		errs := []error{fmt.Errorf("run pipeline: %w", err)}

		if sendErr := b.sendMessage(ctx, chatID, failureText(err)); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	b.chats.update(chatID, func(st *chatState) {
		st.Summary = resp.Summary
		st.Translations = make(map[string]string)
	})

	if err = b.sendLongMessage(ctx, chatID, formatSummary(resp), getSummaryKeyboard()); err != nil {
		return fmt.Errorf("send long message: %w", err)
	}

	return nil
}

func formatSummary(resp pipeline.Response) string {
	method := resp.Method
	if resp.Provider != "" {
		method += " · " + resp.Provider
	}

	var sb strings.Builder
	sb.WriteString("📝 *Summary*\n")
	sb.WriteString("_" + markdown.EscapeV2(method) + "_\n\n")
	sb.WriteString(markdown.EscapeV2(resp.Summary))

	if resp.FallbackReason != "" {
		sb.WriteString("\n\n_" + markdown.EscapeV2("AI was unavailable: "+resp.FallbackReason) + "_")
	}

	sb.WriteString("\n\n" + markdown.EscapeV2(fmt.Sprintf("%s → %s words (%s shorter)",
		resp.Stats.OriginalWords,
		resp.Stats.SummaryWords,
		resp.Stats.CompressionRatio)))

	return sb.String()
}
