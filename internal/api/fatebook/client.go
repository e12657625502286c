package fatebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/Fatebook/internal/platform/http"
	"github.com/Alias1177/Fatebook/models"
)

// DefaultBaseURL is the public Fatebook deployment.
const DefaultBaseURL = "https://fatebook.io"

var errEmptyBody = errors.New("empty response body")

// Client is the Fatebook API client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Fatebook client
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
	Transport      http.RoundTripper
}

// NewClient creates a new Fatebook API client. Requests are never retried:
// createQuestion is not idempotent and a retry would create a duplicate question.
func NewClient(options ClientOptions) *Client {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			Transport:      options.Transport,
		}),
		logger: log.With().Str("component", "fatebook_client").Logger(),
	}
}

// CreateQuestion calls /api/v0/createQuestion. The endpoint does not return the new question's ID.
func (c *Client) CreateQuestion(ctx context.Context, apiKey string, req models.PredictionRequest) error {
	params := url.Values{}
	params.Set("apiKey", apiKey)
	params.Set("title", req.Title)
	params.Set("resolveBy", models.FormatDate(req.ResolveBy))
	params.Set("forecast", strconv.FormatFloat(req.Forecast, 'f', -1, 64))
	params.Set("sharePublicly", "yes")
	for _, tag := range req.Tags {
		params.Add("tags", tag)
	}

	c.logger.Debug().
		Str("title", req.Title).
		Str("resolve_by", params.Get("resolveBy")).
		Str("forecast", params.Get("forecast")).
		Int("tags", len(req.Tags)).
		Msg("Creating question")

	if _, err := c.get(ctx, "createQuestion", params); err != nil {
		return err
	}
	return nil
}

// GetQuestions calls /api/v0/getQuestions and returns the newest questions first.
func (c *Client) GetQuestions(ctx context.Context, apiKey string, limit int) ([]models.Question, error) {
	params := url.Values{}
	params.Set("apiKey", apiKey)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "getQuestions", params)
	if err != nil {
		return nil, err
	}

	var data models.QuestionsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Int("bytes", len(body)).Msg("Error parsing JSON")
		return nil, models.ParseError("getQuestions", fmt.Errorf("parsing JSON: %w", err))
	}

	c.logger.Debug().Int("count", len(data.Items)).Msg("Fetched questions")
	return data.Items, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	endpointURL := c.baseURL + "/api/v0/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return nil, models.TransportError(endpoint, fmt.Errorf("creating request: %w", err))
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		c.logger.Error().Err(redact(err, params.Get("apiKey"))).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, models.TransportError(endpoint, fmt.Errorf("HTTP request failed: %w", redact(err, params.Get("apiKey"))))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.TransportError(endpoint, fmt.Errorf("reading response body: %w", err))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.logger.Warn().Str("endpoint", endpoint).Msg("No body in response")
		return nil, models.TransportError(endpoint, errEmptyBody)
	}

	return body, nil
}

// redact keeps the API key out of errors: *url.Error embeds the full request URL.
func redact(err error, apiKey string) error {
	if apiKey == "" || !strings.Contains(err.Error(), apiKey) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s %s: %w", urlErr.Op, redactURL(urlErr.URL), urlErr.Err)
	}
	return errors.New(strings.ReplaceAll(err.Error(), apiKey, "REDACTED"))
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
