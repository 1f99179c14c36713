package pipeline

import (
	"context"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

// PresentationGenerator turns source text into a slide deck file.
type PresentationGenerator interface {
	GeneratePresentation(ctx context.Context, text string, opts domain.PresentationOptions) (*domain.Presentation, error)
}

// StorageClient fetches the raw bytes behind a file reference.
type StorageClient interface {
	Fetch(ctx context.Context, fileURL string) ([]byte, error)
}

// SlideImageExtractor renders deck slides to images stored under the job's namespace.
type SlideImageExtractor interface {
	ExtractSlideImages(ctx context.Context, deck []byte, jobID string, maxSlides int, requireFullRendering bool) ([]domain.SlideImage, error)
}

// SlideSpeechBuilder turns per-slide explanations into narration text.
type SlideSpeechBuilder interface {
	BuildSpeakerText(ctx context.Context, explanations []string) ([]domain.SlideSpeech, error)
}

// VoiceIDResolver maps a language code to a voice id. It returns an empty
// string when it has no opinion.
type VoiceIDResolver interface {
	Resolve(languageCode string) string
}

// PayloadBuilder assembles the template video request.
type PayloadBuilder interface {
	BuildPayload(in domain.PayloadInput) (*domain.TemplatePayload, error)
}

// AvatarVideoClient submits a template payload for rendering.
type AvatarVideoClient interface {
	GenerateTemplateVideo(ctx context.Context, templateID string, payload *domain.TemplatePayload) (*domain.VideoSubmission, error)
}

// Collaborators groups the services the orchestrator sequences.
type Collaborators struct {
	Presentations PresentationGenerator
	Storage       StorageClient
	Extractor     SlideImageExtractor
	Speech        SlideSpeechBuilder
	Voices        VoiceIDResolver
	Payloads      PayloadBuilder
	Videos        AvatarVideoClient
}

func (c Collaborators) missing() string {
	switch {
	case c.Presentations == nil:
		return "presentation generator"
	case c.Storage == nil:
		return "storage client"
	case c.Extractor == nil:
		return "slide image extractor"
	case c.Speech == nil:
		return "speech builder"
	case c.Voices == nil:
		return "voice resolver"
	case c.Payloads == nil:
		return "payload builder"
	case c.Videos == nil:
		return "avatar video client"
	default:
		return ""
	}
}
