package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoRequestStatusHandling(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantHits int32
		wantErr  bool
	}{
		{name: "ok", status: http.StatusOK, wantHits: 1},
		{name: "created", status: http.StatusCreated, wantHits: 1},
		{name: "server error is not retried", status: http.StatusBadGateway, wantHits: 1, wantErr: true},
		{name: "client error", status: http.StatusUnauthorized, wantHits: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(ClientOptions{
				Timeout:        time.Second,
				RequestsPerSec: 100,
			})

			req, err := http.NewRequest(http.MethodGet, server.URL, nil)
			if err != nil {
				t.Fatalf("creating request: %v", err)
			}

			resp, err := client.DoRequest(context.Background(), req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DoRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				resp.Body.Close()
			} else {
				var statusErr *HTTPStatusError
				if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
					t.Errorf("expected HTTPStatusError %d, got %v", tt.status, err)
				}
			}
			if got := atomic.LoadInt32(&hits); got != tt.wantHits {
				t.Errorf("server hits = %d, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestDoRequestCancelledContext(t *testing.T) {
	client := NewClient(ClientOptions{RequestsPerSec: 1})
	// drain the burst so Wait has to block
	client.Limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	if _, err := client.DoRequest(ctx, req); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestHTTPStatusErrorMessage(t *testing.T) {
	err := &HTTPStatusError{StatusCode: http.StatusNotFound}
	if err.Error() != "unexpected status code: 404 Not Found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
