// Package validate turns raw form input into a PredictionRequest.
//
// Probability is entered as a percentage in the open interval (0,100) and
// converted to a fraction. The older 0–1 fraction policy is not accepted.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/Fatebook/models"
)

// Form field keys shared with the prediction form.
const (
	FieldTitle     = "title"
	FieldForecast  = "forecast"
	FieldResolveBy = "resolveBy"
	FieldTags      = "tags"
)

// Plain decimal notation: no hex floats, no exponents.
var decimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// Title fails if s is empty after trimming. The untrimmed value is returned.
func Title(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", models.ValidationError(FieldTitle, "question cannot be empty")
	}
	return s, nil
}

// Probability parses a percentage in (0,100) and returns it as a fraction.
func Probability(s string) (float64, error) {
	number := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if !decimal.MatchString(number) {
		return 0, models.ValidationError(FieldForecast, fmt.Sprintf("%q is not a number", s))
	}
	value, err := strconv.ParseFloat(number, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, models.ValidationError(FieldForecast, fmt.Sprintf("%q is not a number", s))
	}
	if value <= 0 || value >= 100 {
		return 0, models.ValidationError(FieldForecast, "forecast must be between 0 and 100 (exclusive)")
	}
	return value / 100, nil
}

// Fraction checks a probability already expressed as a fraction.
func Fraction(f float64) error {
	if math.IsNaN(f) || f <= 0 || f >= 1 {
		return models.ValidationError(FieldForecast, "forecast must be strictly between 0 and 1")
	}
	return nil
}

// ResolveBy parses a YYYY-MM-DD calendar date.
func ResolveBy(s string) (time.Time, error) {
	date, err := models.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, models.ValidationError(FieldResolveBy, "resolve by must be a valid date in YYYY-MM-DD format")
	}
	return date, nil
}

// Tags splits on commas, trims, and drops empty entries. Order and duplicates are kept.
func Tags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Request checks an already-built request.
func Request(req models.PredictionRequest) error {
	if _, err := Title(req.Title); err != nil {
		return err
	}
	if err := Fraction(req.Forecast); err != nil {
		return err
	}
	if req.ResolveBy.IsZero() {
		return models.ValidationError(FieldResolveBy, "resolve by date is required")
	}
	return nil
}

// Form validates raw input in field order and returns the first failure.
func Form(input models.FormInput) (models.PredictionRequest, error) {
	title, err := Title(input[FieldTitle])
	if err != nil {
		return models.PredictionRequest{}, err
	}

	forecast, err := Probability(input[FieldForecast])
	if err != nil {
		return models.PredictionRequest{}, err
	}

	resolveBy, err := ResolveBy(input[FieldResolveBy])
	if err != nil {
		return models.PredictionRequest{}, err
	}

	return models.PredictionRequest{
		Title:     title,
		ResolveBy: resolveBy,
		Forecast:  forecast,
		Tags:      Tags(input[FieldTags]),
	}, nil
}
