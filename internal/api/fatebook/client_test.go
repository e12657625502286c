package fatebook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Fatebook/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientOptions{
		BaseURL:        server.URL,
		RequestTimeout: 2 * time.Second,
		RequestsPerSec: 100,
	})
}

func TestCreateQuestionSendsParameters(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte("https://fatebook.io/q/will-it-rain--xyz9"))
	})

	err := client.CreateQuestion(context.Background(), "secret", models.PredictionRequest{
		Title:     "Will it rain",
		ResolveBy: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		Forecast:  0.7,
		Tags:      []string{"weather", "london", "weather"},
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/v0/createQuestion", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "secret", q.Get("apiKey"))
	assert.Equal(t, "Will it rain", q.Get("title"))
	assert.Equal(t, "2026-11-01", q.Get("resolveBy"))
	assert.Equal(t, "0.7", q.Get("forecast"))
	assert.Equal(t, "yes", q.Get("sharePublicly"))
	assert.Equal(t, []string{"weather", "london", "weather"}, q["tags"])
}

func TestCreateQuestionWithoutTagsOmitsParameter(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte("ok"))
	})

	err := client.CreateQuestion(context.Background(), "secret", models.PredictionRequest{
		Title: "Q", ResolveBy: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Forecast: 0.25,
	})
	require.NoError(t, err)

	_, hasTags := query["tags"]
	assert.False(t, hasTags)
}

func TestCreateQuestionEmptyBodyIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	err := client.CreateQuestion(context.Background(), "secret", models.PredictionRequest{Title: "Q", Forecast: 0.5})
	require.Error(t, err)

	assert.Equal(t, models.KindTransport, models.KindOf(err))
	assert.ErrorIs(t, err, errEmptyBody)
}

func TestServerErrorIsNotRetried(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.CreateQuestion(context.Background(), "secret", models.PredictionRequest{Title: "Q", Forecast: 0.5})
	require.Error(t, err)

	assert.Equal(t, models.KindTransport, models.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetQuestions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/getQuestions", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"xyz9","title":"Will it rain","resolveBy":"2026-11-01"}]}`))
	})

	questions, err := client.GetQuestions(context.Background(), "secret", 1)
	require.NoError(t, err)

	assert.Equal(t, []models.Question{{ID: "xyz9", Title: "Will it rain"}}, questions)
}

func TestGetQuestionsEmptyItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})

	questions, err := client.GetQuestions(context.Background(), "secret", 1)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestGetQuestionsInvalidJSONIsParseError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := client.GetQuestions(context.Background(), "secret", 1)
	require.Error(t, err)

	assert.Equal(t, models.KindParse, models.KindOf(err))
}

func TestNetworkErrorDoesNotLeakAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(ClientOptions{BaseURL: baseURL, RequestTimeout: time.Second, RequestsPerSec: 100})

	_, err := client.GetQuestions(context.Background(), "super-secret-key", 1)
	require.Error(t, err)

	assert.Equal(t, models.KindTransport, models.KindOf(err))
	assert.False(t, strings.Contains(err.Error(), "super-secret-key"), err.Error())
}

func TestDefaultBaseURL(t *testing.T) {
	client := NewClient(ClientOptions{})
	assert.Equal(t, DefaultBaseURL, client.baseURL)

	client = NewClient(ClientOptions{BaseURL: "http://localhost:3000/"})
	assert.Equal(t, "http://localhost:3000", client.baseURL)
}
