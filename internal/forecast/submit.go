// Package forecast submits predictions to Fatebook and recovers their links.
package forecast

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Fatebook/internal/links"
	"github.com/Alias1177/Fatebook/internal/validate"
	"github.com/Alias1177/Fatebook/models"
)

// Submitter runs the two-phase submission protocol.
//
// Phase 1 creates the question; the API does not return its ID. Phase 2 asks for
// the single most recent question of the account and treats it as the one just
// created. Nothing links the two calls: a question created concurrently by the
// same account (another device, another submission in flight) can be returned
// instead, and the derived link then points at that question.
type Submitter struct {
	api    models.QuestionAPI
	logger zerolog.Logger
}

// NewSubmitter creates a Submitter backed by api.
func NewSubmitter(api models.QuestionAPI) *Submitter {
	return &Submitter{
		api:    api,
		logger: log.With().Str("component", "submitter").Logger(),
	}
}

// Submit creates the question and resolves its link.
// It returns StatusPartial, not an error, when the question was created but
// no question came back from the lookup.
func (s *Submitter) Submit(ctx context.Context, settings models.Settings, req models.PredictionRequest) (*models.Outcome, error) {
	if !settings.Configured() {
		return nil, models.ConfigurationError()
	}
	if err := validate.Request(req); err != nil {
		return nil, err
	}

	if err := s.api.CreateQuestion(ctx, settings.APIKey, req); err != nil {
		return nil, err
	}
	s.logger.Info().Str("title", req.Title).Msg("Question created")

	questions, err := s.api.GetQuestions(ctx, settings.APIKey, 1)
	if err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		s.logger.Warn().Str("title", req.Title).Msg("Question created but lookup returned no items")
		return &models.Outcome{Status: models.StatusPartial}, nil
	}

	question := questions[0]
	if question.Title != req.Title {
		s.logger.Warn().
			Str("requested", req.Title).
			Str("resolved", question.Title).
			Str("id", question.ID).
			Msg("Most recent question differs from the one submitted")
	}

	link := links.Derive(question)
	return &models.Outcome{Status: models.StatusCreated, Link: &link}, nil
}
