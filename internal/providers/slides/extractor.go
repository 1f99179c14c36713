package slides

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/providers/httpx"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/storage"
	"github.com/educoreai-lotus/ContentStudio-sub001/pkg/zip"
)

const maxSlideImageBytes int64 = 20 << 20

// Options configures the remote slide renderer client.
type Options struct {
	RendererURL string
	Store       storage.ObjectWriter
	HTTPClient  *http.Client
	MaxAttempts int
	Logger      *zerolog.Logger
}

// Extractor sends decks to a rendering service and stores one PNG per slide.
type Extractor struct {
	rendererURL string
	store       storage.ObjectWriter
	http        *httpx.Client
	logger      zerolog.Logger
}

type renderedSlide struct {
	Index       int    `json:"index"`
	ImageBase64 string `json:"image_base64"`
	Error       string `json:"error,omitempty"`
}

type renderResponse struct {
	Slides []renderedSlide `json:"slides"`
}

type slideImage struct {
	index int
	data  []byte
}

// NewExtractor validates options and returns an Extractor.
func NewExtractor(opts Options) (*Extractor, error) {
	rendererURL := strings.TrimSpace(opts.RendererURL)
	if rendererURL == "" {
		return nil, errors.New("slides: renderer url is required")
	}
	if opts.Store == nil {
		return nil, errors.New("slides: object store is required")
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Extractor{
		rendererURL: rendererURL,
		store:       opts.Store,
		http: httpx.New(httpx.Options{
			HTTPClient:  opts.HTTPClient,
			MaxAttempts: opts.MaxAttempts,
			Logger:      &logger,
			Name:        "slides",
		}),
		logger: logger,
	}, nil
}

// ExtractSlideImages renders at most maxSlides slides of deck and returns
// their stored URLs indexed from 1. With requireFullRendering any slide the
// renderer could not draw fails the whole call.
func (e *Extractor) ExtractSlideImages(ctx context.Context, deck []byte, jobID string, maxSlides int, requireFullRendering bool) ([]domain.SlideImage, error) {
	if len(deck) == 0 {
		return nil, errors.New("slides: deck is empty")
	}
	body, contentType, err := multipartDeck(deck, jobID, maxSlides, requireFullRendering)
	if err != nil {
		return nil, err
	}
	// Rendering only converts the deck, so a resend creates nothing new.
	raw, err := e.http.DoRaw(ctx, httpx.Request{
		Method:      http.MethodPost,
		URL:         e.rendererURL,
		Header:      http.Header{"Accept": []string{"application/zip, application/json"}},
		RawBody:     body,
		ContentType: contentType,
		Idempotent:  true,
	})
	if err != nil {
		return nil, err
	}

	images, err := decodeRender(raw, requireFullRendering)
	if err != nil {
		return nil, err
	}
	if maxSlides > 0 && len(images) > maxSlides {
		images = images[:maxSlides]
	}

	out := make([]domain.SlideImage, 0, len(images))
	for i, img := range images {
		index := i + 1
		key := fmt.Sprintf("jobs/%s/slides/slide-%02d.png", jobID, index)
		url, err := e.store.Put(ctx, key, img.data, "image/png")
		if err != nil {
			return nil, fmt.Errorf("slides: store slide %d: %w", index, err)
		}
		out = append(out, domain.SlideImage{Index: index, ImageURL: url})
	}
	e.logger.Debug().Str("job_id", jobID).Int("slides", len(out)).Msg("slides: deck rendered")
	return out, nil
}

func multipartDeck(deck []byte, jobID string, maxSlides int, fullRender bool) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", "deck.pptx")
	if err != nil {
		return nil, "", fmt.Errorf("slides: build form: %w", err)
	}
	if _, err := part.Write(deck); err != nil {
		return nil, "", fmt.Errorf("slides: build form: %w", err)
	}
	fields := map[string]string{
		"job_id":      jobID,
		"max_slides":  strconv.Itoa(maxSlides),
		"full_render": strconv.FormatBool(fullRender),
		"format":      "png",
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("slides: build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("slides: build form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// decodeRender accepts either a zip of PNG files or a JSON list of base64 images.
func decodeRender(raw []byte, requireFull bool) ([]slideImage, error) {
	if bytes.HasPrefix(raw, []byte("PK")) {
		assets, err := zip.ExtractAssets(raw, maxSlideImageBytes)
		if err != nil {
			return nil, fmt.Errorf("slides: %w", err)
		}
		images := make([]slideImage, 0, len(assets))
		for _, asset := range assets {
			if !strings.EqualFold(asset.MIME, "image/png") {
				continue
			}
			images = append(images, slideImage{index: len(images) + 1, data: asset.Data})
		}
		return images, nil
	}

	var resp renderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("slides: decode render response: %w", err)
	}
	images := make([]slideImage, 0, len(resp.Slides))
	for _, s := range resp.Slides {
		if s.Error != "" || s.ImageBase64 == "" {
			if requireFull {
				return nil, fmt.Errorf("slides: slide %d was not rendered: %s", s.Index, s.Error)
			}
			continue
		}
		data, err := base64.StdEncoding.DecodeString(s.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("slides: slide %d: %w", s.Index, err)
		}
		images = append(images, slideImage{index: s.Index, data: data})
	}
	sort.SliceStable(images, func(i, j int) bool { return images[i].index < images[j].index })
	return images, nil
}
