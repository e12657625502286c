// Package plugin binds the submission workflow and link resolver to a host application.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Fatebook/internal/links"
	"github.com/Alias1177/Fatebook/internal/validate"
	"github.com/Alias1177/Fatebook/models"
)

// Command IDs registered with the host.
const (
	CommandCreatePrediction = "create-fatebook-prediction"
	CommandSetAPIKey        = "set-fatebook-api-key"
)

// User-visible notices.
const (
	NoticeMissingAPIKey = "Please set your Fatebook API key in settings"
	NoticeCreated       = "Prediction created and link copied to clipboard!"
	NoticePartial       = "Prediction created but could not get link"
	NoticeAPIKeySaved   = "Fatebook API key saved"
	NoticeAPIKeyCleared = "Fatebook API key cleared"
)

const fieldAPIKey = "apiKey"

// Submitter is the workflow the plugin drives.
type Submitter interface {
	Submit(ctx context.Context, settings models.Settings, req models.PredictionRequest) (*models.Outcome, error)
}

// Plugin is host-agnostic; every side effect goes through models.Host.
type Plugin struct {
	submitter Submitter
	logger    zerolog.Logger
}

// New creates a Plugin.
func New(submitter Submitter) *Plugin {
	return &Plugin{
		submitter: submitter,
		logger:    log.With().Str("component", "plugin").Logger(),
	}
}

// Commands lists the actions the plugin exposes.
func (p *Plugin) Commands() []models.Command {
	return []models.Command{
		{
			ID:          CommandCreatePrediction,
			Name:        "Create New Prediction",
			Description: "Create a Fatebook question and copy its link",
			Run:         p.CreatePrediction,
		},
		{
			ID:          CommandSetAPIKey,
			Name:        "Set Fatebook API Key",
			Description: "Store the API key used to create questions",
			Run:         p.ConfigureAPIKey,
		},
	}
}

// Register adds the plugin's commands to the host.
func (p *Plugin) Register(registry models.CommandRegistry) {
	for _, cmd := range p.Commands() {
		registry.RegisterCommand(cmd)
	}
}

// PredictionForm is the modal rendered by CreatePrediction.
func PredictionForm() models.Form {
	return models.Form{
		Title: "Create Fatebook Prediction",
		Fields: []models.FormField{
			{Key: validate.FieldTitle, Label: "Question", Kind: models.FieldText, Placeholder: "Will X happen by Y date?"},
			{Key: validate.FieldForecast, Label: "Forecast (%)", Kind: models.FieldNumber, Placeholder: "75", Default: "50"},
			{Key: validate.FieldResolveBy, Label: "Resolve By", Kind: models.FieldDate, Placeholder: "YYYY-MM-DD"},
			{Key: validate.FieldTags, Label: "Tags", Kind: models.FieldText, Placeholder: "comma, separated", Optional: true},
		},
		Submit: "Create Prediction",
		Check: func(input models.FormInput) error {
			_, err := validate.Form(input)
			return err
		},
	}
}

// SettingsForm is the one-field settings screen.
func SettingsForm(current models.Settings) models.Form {
	placeholder := "Enter your API key"
	if current.Configured() {
		placeholder = "Leave empty to clear the stored key"
	}
	return models.Form{
		Title: "Fatebook Settings",
		Fields: []models.FormField{
			{Key: fieldAPIKey, Label: "Fatebook API Key", Kind: models.FieldSecret, Placeholder: placeholder, Optional: true},
		},
		Submit: "Save",
	}
}

// CreatePrediction runs the full flow: settings, form, validation, submission,
// then exactly one clipboard write on success. Every failure produces one notice.
func (p *Plugin) CreatePrediction(ctx context.Context, host models.Host) error {
	settings, err := host.LoadSettings(ctx)
	if err != nil {
		host.ShowNotice(ctx, "Failed to load settings")
		return fmt.Errorf("loading settings: %w", err)
	}
	if !settings.Configured() {
		host.ShowNotice(ctx, NoticeMissingAPIKey)
		return models.ConfigurationError()
	}

	input, err := host.RenderForm(ctx, PredictionForm())
	if err != nil {
		return fmt.Errorf("rendering form: %w", err)
	}

	req, err := validate.Form(input)
	if err != nil {
		host.ShowNotice(ctx, Notice(err))
		return err
	}

	return p.Submit(ctx, host, settings, req)
}

// Submit sends an already-validated request and reports the result through host.
func (p *Plugin) Submit(ctx context.Context, host models.Host, settings models.Settings, req models.PredictionRequest) error {
	outcome, err := p.submitter.Submit(ctx, settings, req)
	if err != nil {
		p.logger.Error().Err(err).Str("kind", models.KindOf(err).String()).Msg("Failed to create prediction")
		host.ShowNotice(ctx, Notice(err))
		return err
	}

	if outcome.Status == models.StatusPartial {
		host.ShowNotice(ctx, NoticePartial)
		return nil
	}

	if err := host.WriteClipboard(ctx, outcome.Link.Markdown); err != nil {
		p.logger.Error().Err(err).Msg("Clipboard write failed")
		host.ShowNotice(ctx, "Prediction created but the link could not be copied: "+outcome.Link.URL)
		return fmt.Errorf("writing clipboard: %w", err)
	}
	host.ShowNotice(ctx, NoticeCreated)
	return nil
}

// ConfigureAPIKey renders the settings form and persists the result.
func (p *Plugin) ConfigureAPIKey(ctx context.Context, host models.Host) error {
	current, err := host.LoadSettings(ctx)
	if err != nil {
		host.ShowNotice(ctx, "Failed to load settings")
		return fmt.Errorf("loading settings: %w", err)
	}

	input, err := host.RenderForm(ctx, SettingsForm(current))
	if err != nil {
		return fmt.Errorf("rendering form: %w", err)
	}

	current.APIKey = strings.TrimSpace(input[fieldAPIKey])
	if err := host.SaveSettings(ctx, current); err != nil {
		host.ShowNotice(ctx, "Failed to save settings")
		return fmt.Errorf("saving settings: %w", err)
	}

	if current.Configured() {
		host.ShowNotice(ctx, NoticeAPIKeySaved)
	} else {
		host.ShowNotice(ctx, NoticeAPIKeyCleared)
	}
	return nil
}

// ResolveHover maps a hover event to a preview. Href wins over Text when both are set.
func ResolveHover(ev models.HoverEvent) (models.Embed, bool) {
	var (
		id string
		ok bool
	)
	if ev.Href != "" {
		id, ok = links.IDFromHref(ev.Href)
	} else {
		id, ok = links.ResolveEmbeddedID(ev.Text, ev.Offset)
	}
	if !ok {
		return models.Embed{}, false
	}
	return links.NewEmbed(id), true
}

// HandleHover shows a preview when the event points at a question link.
func (p *Plugin) HandleHover(ctx context.Context, host models.Host, ev models.HoverEvent) (bool, error) {
	embed, ok := ResolveHover(ev)
	if !ok {
		return false, nil
	}
	if err := host.ShowEmbed(ctx, embed); err != nil {
		return true, fmt.Errorf("showing embed: %w", err)
	}
	return true, nil
}

// TextHoverEvents returns one event per markdown question link in text.
func TextHoverEvents(text string) []models.HoverEvent {
	var events []models.HoverEvent
	for _, m := range links.FindAll(text) {
		events = append(events, models.HoverEvent{Text: text, Offset: m.Start})
	}
	return events
}

// HandleHovers shows one preview per distinct question and returns how many were shown.
// It stops at the first host error.
func (p *Plugin) HandleHovers(ctx context.Context, host models.Host, events []models.HoverEvent) (int, error) {
	seen := make(map[string]bool)
	shown := 0
	for _, ev := range events {
		embed, ok := ResolveHover(ev)
		if !ok || seen[embed.QuestionID] {
			continue
		}
		seen[embed.QuestionID] = true

		if err := host.ShowEmbed(ctx, embed); err != nil {
			return shown, fmt.Errorf("showing embed %s: %w", embed.QuestionID, err)
		}
		shown++
	}
	return shown, nil
}

// Notice renders err as the message shown to the user.
func Notice(err error) string {
	var e *models.Error
	if !errors.As(err, &e) {
		return "Failed to create prediction: " + err.Error()
	}

	switch e.Kind {
	case models.KindConfiguration:
		return NoticeMissingAPIKey
	case models.KindValidation:
		msg := e.Err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:]
	case models.KindTransport:
		return "Request failed: " + e.Err.Error()
	case models.KindParse:
		return "Failed to create prediction: unexpected response from Fatebook"
	default:
		return "Failed to create prediction: " + err.Error()
	}
}
