package gamma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/providers/httpx"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("gamma: api key is required")

// Options configures the Gamma generations client.
type Options struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	MaxAttempts  int
	HTTPClient   *http.Client
	Logger       *zerolog.Logger
}

// Client creates presentations through the Gamma generations API and waits
// for the exported deck file.
type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	http         *httpx.Client
	logger       zerolog.Logger
}

type generationRequest struct {
	InputText              string      `json:"inputText"`
	TextMode               string      `json:"textMode"`
	Format                 string      `json:"format"`
	NumCards               int         `json:"numCards,omitempty"`
	AdditionalInstructions string      `json:"additionalInstructions,omitempty"`
	ExportAs               string      `json:"exportAs"`
	TextOptions            textOptions `json:"textOptions"`
}

type textOptions struct {
	Language string `json:"language,omitempty"`
}

type generationCreated struct {
	GenerationID string `json:"generationId"`
}

type generationStatus struct {
	GenerationID string `json:"generationId"`
	Status       string `json:"status"`
	ExportURL    string `json:"exportUrl"`
	GammaURL     string `json:"gammaUrl"`
	Error        *struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error,omitempty"`
}

// NewClient constructs a client with defaults.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://public-api.gamma.app/v0.2"
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		pollInterval: poll,
		http: httpx.New(httpx.Options{
			HTTPClient:  opts.HTTPClient,
			MaxAttempts: opts.MaxAttempts,
			Logger:      &logger,
			Name:        "gamma",
		}),
		logger: logger,
	}, nil
}

// GeneratePresentation starts a generation and polls until the exported deck
// is available. The caller's context bounds the wait.
func (c *Client) GeneratePresentation(ctx context.Context, text string, opts domain.PresentationOptions) (*domain.Presentation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("gamma: input text is required")
	}
	payload := generationRequest{
		InputText: text,
		TextMode:  "generate",
		Format:    "presentation",
		NumCards:  opts.MaxSlides,
		ExportAs:  "pptx",
		TextOptions: textOptions{
			Language: strings.TrimSpace(opts.Language),
		},
	}
	if topic := strings.TrimSpace(opts.TopicName); topic != "" {
		payload.AdditionalInstructions = fmt.Sprintf("Title the deck for %s. Use at most %d slides.", topic, opts.MaxSlides)
	}

	var created generationCreated
	if err := c.http.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/generations",
		Header: c.headers(),
		Body:   payload,
	}, &created); err != nil {
		return nil, err
	}
	if created.GenerationID == "" {
		return nil, errors.New("gamma: response has no generation id")
	}
	c.logger.Debug().Str("generation_id", created.GenerationID).Msg("gamma: generation started")
	return c.waitForExport(ctx, created.GenerationID)
}

func (c *Client) waitForExport(ctx context.Context, generationID string) (*domain.Presentation, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		var status generationStatus
		if err := c.http.Do(ctx, httpx.Request{
			Method: http.MethodGet,
			URL:    c.baseURL + "/generations/" + generationID,
			Header: c.headers(),
		}, &status); err != nil {
			return nil, err
		}
		switch strings.ToLower(status.Status) {
		case "completed":
			fileURL := strings.TrimSpace(status.ExportURL)
			if fileURL == "" {
				return nil, fmt.Errorf("gamma: generation %s completed without export url", generationID)
			}
			c.logger.Debug().Str("generation_id", generationID).Str("url", fileURL).Msg("gamma: deck exported")
			return &domain.Presentation{GenerationID: generationID, FileURL: fileURL}, nil
		case "failed", "error":
			msg := "generation failed"
			if status.Error != nil && status.Error.Message != "" {
				msg = status.Error.Message
			}
			return nil, fmt.Errorf("gamma: generation %s: %s", generationID, msg)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gamma: waiting for generation %s: %w", generationID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) headers() http.Header {
	return http.Header{"X-Api-Key": []string{c.apiKey}}
}
