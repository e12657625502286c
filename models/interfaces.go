package models

import (
	"context"
	"errors"
)

// QuestionAPI is the remote side of the two-phase submission.
type QuestionAPI interface {
	CreateQuestion(ctx context.Context, apiKey string, req PredictionRequest) error
	GetQuestions(ctx context.Context, apiKey string, limit int) ([]Question, error)
}

// FieldKind tells the host which input widget to render.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldDate   FieldKind = "date"
	FieldSecret FieldKind = "secret"
)

// FormField is one labeled input of a modal form.
type FormField struct {
	Key         string
	Label       string
	Kind        FieldKind
	Placeholder string
	Default     string
	Optional    bool
}

// Form is rendered by the host; the result maps FormField.Key to raw input.
type Form struct {
	Title  string
	Fields []FormField
	Submit string
	// Check validates collected input. Hosts that keep the form open ask again
	// for the field a failing validation *Error names.
	Check func(FormInput) error
}

// FailedField returns the field named by a validation error from Check.
func (f Form) FailedField(err error) (FormField, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindValidation {
		return FormField{}, false
	}
	for _, field := range f.Fields {
		if field.Key == e.Field {
			return field, true
		}
	}
	return FormField{}, false
}

// FormInput holds raw values keyed by FormField.Key.
type FormInput map[string]string

// Command is a user-invokable action registered with the host.
type Command struct {
	ID          string
	Name        string
	Description string
	Run         func(ctx context.Context, host Host) error
}

// CommandRegistry registers user-invokable actions.
type CommandRegistry interface {
	RegisterCommand(cmd Command)
}

// Host is everything the plugin needs from the surrounding application.
type Host interface {
	CommandRegistry
	ShowNotice(ctx context.Context, message string)
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
	RenderForm(ctx context.Context, form Form) (FormInput, error)
	WriteClipboard(ctx context.Context, text string) error
	ShowEmbed(ctx context.Context, embed Embed) error
}
