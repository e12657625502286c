package models

import (
	"fmt"
	"html"
	"time"
)

// Settings is the plugin configuration persisted by the host.
type Settings struct {
	APIKey string `yaml:"api_key" json:"apiKey"`
}

// DefaultSettings mirrors a fresh install: no credential.
var DefaultSettings = Settings{APIKey: ""}

// Configured reports whether a credential is present.
func (s Settings) Configured() bool {
	return s.APIKey != ""
}

// PredictionRequest is built from form input, submitted once and discarded.
type PredictionRequest struct {
	Title     string
	ResolveBy time.Time
	Forecast  float64 // fraction in (0,1)
	Tags      []string
}

// Question is a single item of the getQuestions response.
type Question struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// QuestionsResponse represents the API response from Fatebook getQuestions
type QuestionsResponse struct {
	Items []Question `json:"items"`
}

// DerivedLink is computed from a Question and never stored.
type DerivedLink struct {
	URL      string
	Markdown string
}

// Embed is an inline preview of a remote question.
type Embed struct {
	QuestionID string
	URL        string
}

// HTML renders the embed as an iframe snippet.
func (e Embed) HTML() string {
	return fmt.Sprintf(`<iframe src="%s" width="400" height="200" style="border:none"></iframe>`, html.EscapeString(e.URL))
}

// OutcomeStatus distinguishes full success from best-effort partial success.
type OutcomeStatus string

const (
	StatusCreated OutcomeStatus = "CREATED"
	StatusPartial OutcomeStatus = "PARTIAL"
)

// Outcome is the result of a submission that did not fail.
// Link is nil when Status is StatusPartial.
type Outcome struct {
	Status OutcomeStatus
	Link   *DerivedLink
}

// UserSettings is a stored per-user credential (chat hosts).
type UserSettings struct {
	UserID    int64
	ChatID    int64
	APIKey    string
	UpdatedAt time.Time
}

// HoverEvent describes a pointer over raw text (Text+Offset) or over a rendered hyperlink (Href).
type HoverEvent struct {
	Text   string
	Offset int
	Href   string
}
