package pipeline

import (
	"fmt"
	"strings"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

// Request is the input of one avatar-video run.
type Request struct {
	TrainerID           string   `json:"trainer_id"`
	TopicID             string   `json:"topic_id"`
	LanguageCode        string   `json:"language_code"`
	Mode                string   `json:"mode"`
	InputText           string   `json:"input_text"`
	AISlideExplanations []string `json:"ai_slide_explanations"`
	JobID               string   `json:"job_id,omitempty"`
}

// JobResult is returned by Execute. JobState is a snapshot safe to read.
type JobResult struct {
	Success  bool        `json:"success"`
	VideoID  string      `json:"video_id"`
	JobID    string      `json:"jobId"`
	JobState *domain.Job `json:"jobState"`
}

// MissingField returns the wire name of the first absent required field, in
// the order trainer_id, topic_id, language_code, mode, input_text,
// ai_slide_explanations. It does not check the mode value.
func (r Request) MissingField() string {
	switch {
	case blank(r.TrainerID):
		return "trainer_id"
	case blank(r.TopicID):
		return "topic_id"
	case blank(r.LanguageCode):
		return "language_code"
	case blank(r.Mode):
		return "mode"
	case blank(r.InputText):
		return "input_text"
	case len(r.AISlideExplanations) == 0:
		return "ai_slide_explanations"
	default:
		return ""
	}
}

// Validate checks preconditions in order and returns a validation StepError
// for the first violation. Mode must equal "avatar" and a caller-supplied
// job id must pass domain.ValidJobID.
func (r Request) Validate() error {
	field := r.MissingField()
	switch field {
	case "trainer_id", "topic_id", "language_code", "mode":
		return requiredError(field)
	}
	if !IsAvatarMode(r.Mode) {
		return domain.NewStepError(domain.StageValidation, "",
			fmt.Sprintf("mode %q is not supported", r.Mode),
			fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrUnsupportedMode))
	}
	if field != "" {
		return requiredError(field)
	}
	if id := strings.TrimSpace(r.JobID); id != "" && !domain.ValidJobID(id) {
		msg := "job_id must be 1-128 letters, digits, '-' or '_'"
		return domain.NewStepError(domain.StageValidation, "", msg, fmt.Errorf("%w: %s", domain.ErrValidation, msg))
	}
	return nil
}

// IsAvatarMode reports whether mode selects the avatar pipeline.
func IsAvatarMode(mode string) bool {
	return strings.TrimSpace(mode) == domain.ModeAvatar
}

func requiredError(field string) error {
	msg := field + " is required"
	return domain.NewStepError(domain.StageValidation, "", msg, fmt.Errorf("%w: %s", domain.ErrValidation, msg))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
