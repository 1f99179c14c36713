package domain

// SlideImage is one rendered slide. Index is 1-based and follows deck order.
type SlideImage struct {
	Index    int    `json:"index"`
	ImageURL string `json:"imageUrl"`
}

// SlideSpeech is the narration for one slide; Index aligns with SlideImage.Index.
type SlideSpeech struct {
	Index       int    `json:"index"`
	SpeakerText string `json:"speakerText"`
}

// SlidePlanEntry joins a slide image with its narration.
type SlidePlanEntry struct {
	Index       int    `json:"index"`
	ImageURL    string `json:"imageUrl"`
	SpeakerText string `json:"speakerText"`
}

// PayloadInput is everything needed to assemble a template video request.
type PayloadInput struct {
	TemplateID string
	Slides     []SlidePlanEntry
	Title      string
	Caption    bool
	VoiceID    string
}

// TemplateVariable is one named value substituted into a video template.
type TemplateVariable struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// TemplatePayload is the assembled request body for a template video render.
type TemplatePayload struct {
	TemplateID string                      `json:"-"`
	Title      string                      `json:"title"`
	Caption    bool                        `json:"caption"`
	VoiceID    string                      `json:"-"`
	Slides     []SlidePlanEntry            `json:"-"`
	Variables  map[string]TemplateVariable `json:"variables"`
}

// VideoSubmission is the render service's answer to a template submission.
// Message carries the provider's reason when Success is false.
type VideoSubmission struct {
	Success bool
	VideoID string
	Message string
}

// PresentationOptions is the metadata sent alongside the deck source text.
type PresentationOptions struct {
	TopicName string
	Language  string
	MaxSlides int
}

// Presentation references a generated slide deck file.
type Presentation struct {
	GenerationID string
	FileURL      string
}
