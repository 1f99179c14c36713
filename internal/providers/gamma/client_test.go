package gamma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

func TestGeneratePresentationPollsUntilExported(t *testing.T) {
	var polls int32
	var created map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/generations":
			_ = json.NewDecoder(r.Body).Decode(&created)
			_ = json.NewEncoder(w).Encode(map[string]string{"generationId": "gen-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/generations/gen-1":
			if atomic.AddInt32(&polls, 1) < 2 {
				_ = json.NewEncoder(w).Encode(map[string]string{"generationId": "gen-1", "status": "pending"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"generationId": "gen-1",
				"status":       "completed",
				"exportUrl":    "https://assets.gamma.app/export/gen-1.pptx",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "secret", BaseURL: srv.URL, PollInterval: time.Millisecond, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	deck, err := client.GeneratePresentation(context.Background(), "Hello world", domain.PresentationOptions{
		TopicName: "Topic 42",
		Language:  "en",
		MaxSlides: 10,
	})
	if err != nil {
		t.Fatalf("GeneratePresentation() error: %v", err)
	}
	if deck.FileURL != "https://assets.gamma.app/export/gen-1.pptx" || deck.GenerationID != "gen-1" {
		t.Fatalf("deck = %+v", deck)
	}
	if created["inputText"] != "Hello world" || created["exportAs"] != "pptx" || created["numCards"] != float64(10) {
		t.Fatalf("unexpected create payload: %#v", created)
	}
	if lang := created["textOptions"].(map[string]any)["language"]; lang != "en" {
		t.Fatalf("language = %v, want en", lang)
	}
	if !strings.Contains(created["additionalInstructions"].(string), "Topic 42") {
		t.Fatalf("instructions missing topic: %v", created["additionalInstructions"])
	}
}

func TestGeneratePresentationReportsFailedGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]string{"generationId": "gen-2"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"generationId": "gen-2",
			"status":       "failed",
			"error":        map[string]any{"message": "credits exhausted", "statusCode": 402},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL, PollInterval: time.Millisecond, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	_, err = client.GeneratePresentation(context.Background(), "text", domain.PresentationOptions{MaxSlides: 5})
	if err == nil || !strings.Contains(err.Error(), "credits exhausted") {
		t.Fatalf("GeneratePresentation() error = %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); err != ErrMissingAPIKey {
		t.Fatalf("NewClient() error = %v, want ErrMissingAPIKey", err)
	}
}
