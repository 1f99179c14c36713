package domain

import (
	"regexp"
	"time"
)

// Stage identifies one named step of the avatar-video pipeline. The set is
// closed; StageValidation is reserved for request checks that run before any
// stage starts.
type Stage string

const (
	StageValidation        Stage = "validation"
	StageGammaGeneration   Stage = "gamma_generation"
	StageImageExtraction   Stage = "image_extraction"
	StageSpeechBuilding    Stage = "speech_building"
	StageSlidePlanCreation Stage = "slide_plan_creation"
	StageVoiceResolution   Stage = "voice_resolution"
	StagePayloadBuilding   Stage = "payload_building"
	StageHeyGenGeneration  Stage = "heygen_generation"
)

var pipelineStages = []Stage{
	StageGammaGeneration,
	StageImageExtraction,
	StageSpeechBuilding,
	StageSlidePlanCreation,
	StageVoiceResolution,
	StagePayloadBuilding,
	StageHeyGenGeneration,
}

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidJobID reports whether id is usable as a job id and as a storage path
// segment: letters, digits, '-' and '_', at most 128 characters.
func ValidJobID(id string) bool {
	return jobIDPattern.MatchString(id)
}

// PipelineStages returns the pipeline stages in execution order.
func PipelineStages() []Stage {
	out := make([]Stage, len(pipelineStages))
	copy(out, pipelineStages)
	return out
}

// Valid reports whether s is one of the known stage identifiers.
func (s Stage) Valid() bool {
	if s == StageValidation {
		return true
	}
	for _, stage := range pipelineStages {
		if stage == s {
			return true
		}
	}
	return false
}

// ModeAvatar is the only generation mode the pipeline accepts.
const ModeAvatar = "avatar"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// StepStatus enumerates per-stage states. Transitions only move forward:
// pending -> in_progress -> completed|failed.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
)

func (s StepStatus) rank() int {
	switch s {
	case StepStatusPending:
		return 0
	case StepStatusInProgress:
		return 1
	case StepStatusCompleted, StepStatusFailed:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether moving from s to next keeps the step moving forward.
func (s StepStatus) CanTransition(next StepStatus) bool {
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return false
	}
	return to == from+1
}

// StepState tracks one stage of a job.
type StepState struct {
	Name        Stage      `json:"name"`
	Status      StepStatus `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Job is one end-to-end pipeline run. It is mutated only by the orchestrator
// and is read-only once its status is terminal.
type Job struct {
	ID           string      `json:"jobId"`
	TrainerID    string      `json:"trainerId"`
	TopicID      string      `json:"topicId"`
	LanguageCode string      `json:"languageCode"`
	Mode         string      `json:"mode"`
	Status       JobStatus   `json:"status"`
	StartedAt    time.Time   `json:"startedAt"`
	CompletedAt  *time.Time  `json:"completedAt,omitempty"`
	VideoID      string      `json:"videoId,omitempty"`
	Steps        []StepState `json:"steps"`
}

// NewJob returns an in-progress job with one pending StepState per pipeline stage.
func NewJob(id, trainerID, topicID, languageCode, mode string, startedAt time.Time) *Job {
	steps := make([]StepState, 0, len(pipelineStages))
	for _, stage := range pipelineStages {
		steps = append(steps, StepState{Name: stage, Status: StepStatusPending})
	}
	return &Job{
		ID:           id,
		TrainerID:    trainerID,
		TopicID:      topicID,
		LanguageCode: languageCode,
		Mode:         mode,
		Status:       JobStatusInProgress,
		StartedAt:    startedAt,
		Steps:        steps,
	}
}

// Step returns the state of the named stage.
func (j *Job) Step(stage Stage) (StepState, bool) {
	if j == nil {
		return StepState{}, false
	}
	for _, step := range j.Steps {
		if step.Name == stage {
			return step, true
		}
	}
	return StepState{}, false
}

// RunningStep returns the stage currently in progress, if any.
func (j *Job) RunningStep() (Stage, bool) {
	if j == nil {
		return "", false
	}
	for _, step := range j.Steps {
		if step.Status == StepStatusInProgress {
			return step.Name, true
		}
	}
	return "", false
}

// Clone returns a deep copy safe to hand to readers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.CompletedAt = cloneTime(j.CompletedAt)
	out.Steps = make([]StepState, len(j.Steps))
	for i, step := range j.Steps {
		step.StartedAt = cloneTime(step.StartedAt)
		step.CompletedAt = cloneTime(step.CompletedAt)
		out.Steps[i] = step
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
