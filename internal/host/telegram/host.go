package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/Fatebook/internal/plugin"
	"github.com/Alias1177/Fatebook/models"
)

var errFormTimeout = errors.New("timed out waiting for an answer")

// skipAnswer leaves an optional field empty or accepts a field's default.
const skipAnswer = "-"

// chatHost implements models.Host for one user in one chat.
type chatHost struct {
	bot    *Bot
	chatID int64
	userID int64
	inbox  <-chan reply // nil outside a command
}

func (h *chatHost) RegisterCommand(cmd models.Command) {
	h.bot.RegisterCommand(cmd)
}

func (h *chatHost) ShowNotice(_ context.Context, message string) {
	h.bot.send(h.chatID, message)
}

func (h *chatHost) LoadSettings(ctx context.Context) (models.Settings, error) {
	stored, err := h.bot.repo.GetSettings(ctx, h.userID)
	if err != nil {
		return models.Settings{}, err
	}
	if stored == nil {
		return models.DefaultSettings, nil
	}
	return models.Settings{APIKey: stored.APIKey}, nil
}

func (h *chatHost) SaveSettings(ctx context.Context, settings models.Settings) error {
	if !settings.Configured() {
		return h.bot.repo.DeleteSettings(ctx, h.userID)
	}
	return h.bot.repo.SaveSettings(ctx, h.userID, h.chatID, settings.APIKey)
}

// RenderForm asks for each field in turn and waits for the user's answer. The whole
// form must be answered within the bot's form timeout. When form.Check rejects the
// input, only the failing field is asked again.
func (h *chatHost) RenderForm(ctx context.Context, form models.Form) (models.FormInput, error) {
	if h.inbox == nil {
		return nil, fmt.Errorf("form %q rendered outside a command", form.Title)
	}

	deadline := time.NewTimer(h.bot.formTimeout)
	defer deadline.Stop()

	input := make(models.FormInput, len(form.Fields))
	for i, field := range form.Fields {
		prompt := fieldPrompt(field)
		if i == 0 {
			prompt = form.Title + "\n\n" + prompt
		}
		value, err := h.ask(ctx, deadline.C, field, prompt)
		if err != nil {
			return nil, err
		}
		input[field.Key] = value
	}

	for form.Check != nil {
		err := form.Check(input)
		field, ok := form.FailedField(err)
		if !ok {
			break
		}
		value, err := h.ask(ctx, deadline.C, field, plugin.Notice(err)+"\n\n"+fieldPrompt(field))
		if err != nil {
			return nil, err
		}
		input[field.Key] = value
	}
	return input, nil
}

func (h *chatHost) ask(ctx context.Context, deadline <-chan time.Time, field models.FormField, prompt string) (string, error) {
	h.bot.send(h.chatID, prompt)

	var answer reply
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-deadline:
		return "", errFormTimeout
	case answer = <-h.inbox:
	}

	if field.Kind == models.FieldSecret {
		if _, err := h.bot.api.Request(tgbotapi.NewDeleteMessage(h.chatID, answer.messageID)); err != nil {
			h.bot.logger.Warn().Err(err).Int64("chat_id", h.chatID).Msg("Failed to delete secret answer")
		}
	}

	value := strings.TrimSpace(answer.text)
	if value == skipAnswer {
		value = field.Default
	}
	return value, nil
}

// WriteClipboard sends the text alone so it can be copied as-is.
func (h *chatHost) WriteClipboard(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(h.chatID, text)
	msg.DisableWebPagePreview = true
	_, err := h.bot.api.Send(msg)
	return err
}

// ShowEmbed replies with a button opening the embeddable preview.
func (h *chatHost) ShowEmbed(_ context.Context, embed models.Embed) error {
	msg := tgbotapi.NewMessage(h.chatID, "Fatebook question "+embed.QuestionID)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Open preview", embed.URL),
		),
	)
	_, err := h.bot.api.Send(msg)
	return err
}

func fieldPrompt(field models.FormField) string {
	var sb strings.Builder
	sb.WriteString(field.Label)
	if field.Placeholder != "" {
		sb.WriteString(" (" + field.Placeholder + ")")
	}
	switch {
	case field.Default != "":
		sb.WriteString(fmt.Sprintf("\nSend %s to use %s.", skipAnswer, field.Default))
	case field.Optional:
		sb.WriteString(fmt.Sprintf("\nSend %s to leave empty.", skipAnswer))
	}
	return sb.String()
}
