package heygen

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/providers/httpx"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("heygen: api key is required")

// Options configures the HeyGen client.
type Options struct {
	APIKey      string
	BaseURL     string
	MaxAttempts int
	HTTPClient  *http.Client
	Logger      *zerolog.Logger
}

// Client submits template renders to HeyGen.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpx.Client
	logger  zerolog.Logger
}

type generateResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data *struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

// NewClient constructs a client with defaults.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.heygen.com"
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: httpx.New(httpx.Options{
			HTTPClient:  opts.HTTPClient,
			MaxAttempts: opts.MaxAttempts,
			Logger:      &logger,
			Name:        "heygen",
		}),
		logger: logger,
	}, nil
}

// GenerateTemplateVideo submits payload against templateID. A response
// without a video id is reported as unsuccessful rather than as an error.
func (c *Client) GenerateTemplateVideo(ctx context.Context, templateID string, payload *domain.TemplatePayload) (*domain.VideoSubmission, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, errors.New("heygen: template id is required")
	}
	if payload == nil {
		return nil, errors.New("heygen: payload is required")
	}

	var resp generateResponse
	err := c.http.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/v2/template/" + url.PathEscape(templateID) + "/generate",
		Header: http.Header{"X-Api-Key": []string{c.apiKey}},
		Body:   payload,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil && resp.Error.Message != "" {
		c.logger.Warn().Str("code", resp.Error.Code).Str("template_id", templateID).Msg("heygen: " + resp.Error.Message)
		message := resp.Error.Message
		if resp.Error.Code != "" {
			message = resp.Error.Code + ": " + message
		}
		return &domain.VideoSubmission{Success: false, Message: message}, nil
	}
	if resp.Data == nil || strings.TrimSpace(resp.Data.VideoID) == "" {
		return &domain.VideoSubmission{Success: false, Message: "response carried no video id"}, nil
	}
	c.logger.Info().Str("template_id", templateID).Str("video_id", resp.Data.VideoID).Msg("heygen: video submitted")
	return &domain.VideoSubmission{Success: true, VideoID: resp.Data.VideoID}, nil
}
