// Package telegram runs the plugin inside a Telegram chat.
//
// Commands become bot commands, forms become a question-and-answer exchange,
// the clipboard is a reply holding only the markdown link, and any message
// carrying question links gets preview buttons in place of a hover preview.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Fatebook/internal/plugin"
	"github.com/Alias1177/Fatebook/models"
)

// Sender is the part of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SettingsRepository stores one API key per Telegram user.
type SettingsRepository interface {
	GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error)
	SaveSettings(ctx context.Context, userID, chatID int64, apiKey string) error
	DeleteSettings(ctx context.Context, userID int64) error
}

// Telegram command names for the plugin commands; others get "-" replaced by "_".
var aliases = map[string]string{
	plugin.CommandCreatePrediction: "predict",
	plugin.CommandSetAPIKey:        "setkey",
}

const inboxSize = 8

// Options configures a Bot.
type Options struct {
	FormTimeout time.Duration
}

// Bot routes Telegram updates to plugin commands and previews.
type Bot struct {
	api         Sender
	plugin      *plugin.Plugin
	repo        SettingsRepository
	formTimeout time.Duration
	logger      zerolog.Logger

	mu       sync.Mutex
	commands map[string]models.Command
	order    []string
	sessions map[int64]*session
	wg       sync.WaitGroup
}

type reply struct {
	text      string
	messageID int
}

// session is one running command in one chat.
type session struct {
	inbox  chan reply
	cancel context.CancelFunc
}

// New creates a Bot. Register the plugin's commands with p.Register(bot).
func New(api Sender, p *plugin.Plugin, repo SettingsRepository, opts Options) *Bot {
	if opts.FormTimeout == 0 {
		opts.FormTimeout = 10 * time.Minute
	}
	return &Bot{
		api:         api,
		plugin:      p,
		repo:        repo,
		formTimeout: opts.FormTimeout,
		logger:      log.With().Str("component", "telegram_bot").Logger(),
		commands:    make(map[string]models.Command),
		sessions:    make(map[int64]*session),
	}
}

// RegisterCommand implements models.CommandRegistry.
func (b *Bot) RegisterCommand(cmd models.Command) {
	name := commandName(cmd.ID)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.commands[name]; !exists {
		b.order = append(b.order, name)
	}
	b.commands[name] = cmd
}

func commandName(id string) string {
	if alias, ok := aliases[id]; ok {
		return alias
	}
	name := strings.ReplaceAll(strings.ToLower(id), "-", "_")
	if len(name) > 32 {
		name = name[:32]
	}
	return name
}

// SyncCommands publishes the command menu to Telegram.
func (b *Bot) SyncCommands() error {
	b.mu.Lock()
	botCommands := make([]tgbotapi.BotCommand, 0, len(b.order)+2)
	for _, name := range b.order {
		botCommands = append(botCommands, tgbotapi.BotCommand{Command: name, Description: b.commands[name].Name})
	}
	b.mu.Unlock()

	botCommands = append(botCommands,
		tgbotapi.BotCommand{Command: "preview", Description: "Preview Fatebook links in a text"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancel the current command"},
	)

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		return fmt.Errorf("setting bot commands: %w", err)
	}
	return nil
}

// Run handles updates until ctx is done or the channel closes, then waits for running commands.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.Wait()
	for {
		select {
		case <-ctx.Done():
			b.cancelAll()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// Wait blocks until every running command has returned.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleUpdate processes a single update. Commands run in their own goroutine.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID

	if message.IsCommand() {
		switch name := message.Command(); name {
		case "start", "help":
			b.send(chatID, b.helpText())
		case "cancel":
			if b.cancelSession(chatID) {
				b.send(chatID, "Cancelled.")
			} else {
				b.send(chatID, "Nothing to cancel.")
			}
		case "preview":
			if n := b.previewText(ctx, message, message.CommandArguments()); n == 0 {
				b.send(chatID, "No Fatebook question link found.")
			}
		default:
			b.mu.Lock()
			cmd, ok := b.commands[name]
			b.mu.Unlock()
			if !ok {
				b.send(chatID, "Unknown command. Send /help for the list of commands.")
				return
			}
			b.startSession(ctx, message, cmd)
		}
		return
	}

	if b.deliver(chatID, reply{text: message.Text, messageID: message.MessageID}) {
		return
	}
	b.previewText(ctx, message, "")
}

func (b *Bot) startSession(ctx context.Context, message *tgbotapi.Message, cmd models.Command) {
	chatID := message.Chat.ID

	b.mu.Lock()
	if _, busy := b.sessions[chatID]; busy {
		b.mu.Unlock()
		b.send(chatID, "Finish the current command or send /cancel first.")
		return
	}
	sessCtx, cancel := context.WithCancel(ctx)
	s := &session{inbox: make(chan reply, inboxSize), cancel: cancel}
	b.sessions[chatID] = s
	b.wg.Add(1)
	b.mu.Unlock()

	host := &chatHost{bot: b, chatID: chatID, userID: message.From.ID, inbox: s.inbox}
	logger := b.logger.With().Str("command", cmd.ID).Int64("chat_id", chatID).Int64("user_id", message.From.ID).Logger()

	go func() {
		defer b.wg.Done()
		defer b.endSession(chatID, s)

		err := cmd.Run(sessCtx, host)
		switch {
		case err == nil:
			logger.Debug().Msg("Command finished")
		case errors.Is(err, errFormTimeout):
			b.send(chatID, "Timed out waiting for an answer.")
		case errors.Is(err, context.Canceled):
			logger.Debug().Msg("Command cancelled")
		case models.KindOf(err) == models.KindValidation || models.KindOf(err) == models.KindConfiguration:
			logger.Debug().Err(err).Msg("Command rejected")
		default:
			logger.Warn().Err(err).Msg("Command failed")
		}
	}()
}

func (b *Bot) endSession(chatID int64, s *session) {
	s.cancel()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessions[chatID] == s {
		delete(b.sessions, chatID)
	}
}

func (b *Bot) cancelSession(chatID int64) bool {
	b.mu.Lock()
	s, ok := b.sessions[chatID]
	b.mu.Unlock()
	if ok {
		s.cancel()
	}
	return ok
}

func (b *Bot) cancelAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.sessions {
		s.cancel()
	}
}

// deliver hands a plain message to the chat's running command, if any.
func (b *Bot) deliver(chatID int64, r reply) bool {
	b.mu.Lock()
	s, ok := b.sessions[chatID]
	b.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case s.inbox <- r:
	default:
		b.send(chatID, "Too many messages, please wait for the current question.")
	}
	return true
}

// previewText shows one embed per distinct question linked from text, or from the
// message itself when text is empty. It returns the number of previews shown.
func (b *Bot) previewText(ctx context.Context, message *tgbotapi.Message, text string) int {
	events := plugin.TextHoverEvents(text)
	if text == "" {
		events = messageHoverEvents(message)
	}

	host := &chatHost{bot: b, chatID: message.Chat.ID, userID: message.From.ID}
	shown, err := b.plugin.HandleHovers(ctx, host, events)
	if err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", message.Chat.ID).Msg("Failed to send preview")
	}
	return shown
}

func (b *Bot) helpText() string {
	var sb strings.Builder
	sb.WriteString("Create Fatebook predictions and preview Fatebook questions.\n\n")

	b.mu.Lock()
	for _, name := range b.order {
		sb.WriteString(fmt.Sprintf("/%s - %s\n", name, b.commands[name].Description))
	}
	b.mu.Unlock()

	sb.WriteString("/preview <text> - Preview Fatebook links in a text\n")
	sb.WriteString("/cancel - Cancel the current command\n\n")
	sb.WriteString("Send any message with a Fatebook question link to get a preview.")
	return sb.String()
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
