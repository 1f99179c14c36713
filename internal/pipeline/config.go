package pipeline

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultMaxSlides caps how many slides a generated deck may contain.
	DefaultMaxSlides = 10
	// DefaultStageTimeout bounds a single collaborator call.
	DefaultStageTimeout = 5 * time.Minute
)

// Config holds the orchestrator-level constants. It is built once by the
// caller and never read from the environment inside the pipeline.
type Config struct {
	TemplateID     string
	MaxSlides      int
	DefaultVoiceID string
	CaptionEnabled bool
	StageTimeout   time.Duration
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

func (c Config) normalized() (Config, error) {
	c.TemplateID = strings.TrimSpace(c.TemplateID)
	if c.TemplateID == "" {
		return c, errors.New("pipeline: template id is required")
	}
	if c.MaxSlides <= 0 {
		c.MaxSlides = DefaultMaxSlides
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = DefaultStageTimeout
	}
	c.DefaultVoiceID = strings.TrimSpace(c.DefaultVoiceID)
	if c.DefaultVoiceID == "" {
		return c, errors.New("pipeline: default voice id is required")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}
