package heygen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

// Template variable names. Slide variables are numbered from 1.
const (
	voiceVariable       = "voice"
	slideImageVariable  = "slide_%d_image"
	slideScriptVariable = "slide_%d_script"
)

// PayloadBuilder maps a slide plan onto the variables of a HeyGen template.
type PayloadBuilder struct{}

// NewPayloadBuilder returns a PayloadBuilder.
func NewPayloadBuilder() *PayloadBuilder { return &PayloadBuilder{} }

// BuildPayload assembles the template request. Every slide contributes an
// image and a script variable; the chosen voice is carried as its own variable.
func (PayloadBuilder) BuildPayload(in domain.PayloadInput) (*domain.TemplatePayload, error) {
	templateID := strings.TrimSpace(in.TemplateID)
	if templateID == "" {
		return nil, errors.New("heygen: template id is required")
	}
	voiceID := strings.TrimSpace(in.VoiceID)
	if voiceID == "" {
		return nil, errors.New("heygen: voice id is required")
	}
	if len(in.Slides) == 0 {
		return nil, errors.New("heygen: at least one slide is required")
	}

	vars := make(map[string]domain.TemplateVariable, len(in.Slides)*2+1)
	vars[voiceVariable] = domain.TemplateVariable{
		Name:       voiceVariable,
		Type:       "voice",
		Properties: map[string]any{"voice_id": voiceID},
	}
	slides := make([]domain.SlidePlanEntry, len(in.Slides))
	copy(slides, in.Slides)
	for _, slide := range slides {
		if strings.TrimSpace(slide.ImageURL) == "" {
			return nil, fmt.Errorf("heygen: slide %d has no image", slide.Index)
		}
		imageName := fmt.Sprintf(slideImageVariable, slide.Index)
		scriptName := fmt.Sprintf(slideScriptVariable, slide.Index)
		if _, dup := vars[imageName]; dup {
			return nil, fmt.Errorf("heygen: duplicate slide index %d", slide.Index)
		}
		vars[imageName] = domain.TemplateVariable{
			Name:       imageName,
			Type:       "image",
			Properties: map[string]any{"url": slide.ImageURL, "fit": "contain"},
		}
		vars[scriptName] = domain.TemplateVariable{
			Name:       scriptName,
			Type:       "text",
			Properties: map[string]any{"content": slide.SpeakerText},
		}
	}

	return &domain.TemplatePayload{
		TemplateID: templateID,
		Title:      strings.TrimSpace(in.Title),
		Caption:    in.Caption,
		VoiceID:    voiceID,
		Slides:     slides,
		Variables:  vars,
	}, nil
}
