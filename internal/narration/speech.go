package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

// ErrNoExplanations is returned when there is nothing to narrate.
var ErrNoExplanations = errors.New("narration: no slide explanations")

// SpeechBuilder turns per-slide explanations into speaker text.
type SpeechBuilder struct {
	maxChars int
}

// NewSpeechBuilder returns a builder. maxChars caps each slide's script when positive.
func NewSpeechBuilder(maxChars int) *SpeechBuilder {
	return &SpeechBuilder{maxChars: maxChars}
}

// BuildSpeakerText normalizes whitespace and indexes the explanations from 1
// in the order given. Blank entries are rejected so slide and speech counts
// stay aligned.
func (b *SpeechBuilder) BuildSpeakerText(ctx context.Context, explanations []string) ([]domain.SlideSpeech, error) {
	if len(explanations) == 0 {
		return nil, ErrNoExplanations
	}
	out := make([]domain.SlideSpeech, 0, len(explanations))
	for i, raw := range explanations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.Join(strings.Fields(raw), " ")
		if text == "" {
			return nil, fmt.Errorf("narration: explanation %d is blank", i+1)
		}
		out = append(out, domain.SlideSpeech{Index: i + 1, SpeakerText: b.clip(text)})
	}
	return out, nil
}

func (b *SpeechBuilder) clip(text string) string {
	if b.maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= b.maxChars {
		return text
	}
	cut := string(runes[:b.maxChars])
	if idx := strings.LastIndexAny(cut, ".!?"); idx > len(cut)/2 {
		return cut[:idx+1]
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		return cut[:idx]
	}
	return cut
}
