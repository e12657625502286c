package telegram

import (
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/Fatebook/internal/plugin"
	"github.com/Alias1177/Fatebook/models"
)

// messageHoverEvents turns a message into hover events: one per link entity
// (rendered links) and one per markdown link written in the raw text.
func messageHoverEvents(message *tgbotapi.Message) []models.HoverEvent {
	var events []models.HoverEvent

	var encoded []uint16
	for _, entity := range message.Entities {
		switch entity.Type {
		case "text_link":
			events = append(events, models.HoverEvent{Href: entity.URL})
		case "url":
			if encoded == nil {
				encoded = utf16.Encode([]rune(message.Text))
			}
			if href, ok := entitySubstring(encoded, entity.Offset, entity.Length); ok {
				events = append(events, models.HoverEvent{Href: href})
			}
		}
	}

	return append(events, plugin.TextHoverEvents(message.Text)...)
}

// entitySubstring slices text by Telegram's UTF-16 offsets.
func entitySubstring(encoded []uint16, offset, length int) (string, bool) {
	if offset < 0 || length <= 0 || offset+length > len(encoded) {
		return "", false
	}
	return string(utf16.Decode(encoded[offset : offset+length])), true
}
