package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

// Orchestrator sequences the collaborators into the avatar-video pipeline.
// Stages of one run execute strictly in order; separate runs share nothing
// except the job id namespace of their artifacts.
type Orchestrator struct {
	cfg    Config
	deps   Collaborators
	jobs   domain.JobRepository
	logger zerolog.Logger
}

// New validates the configuration and collaborators. jobs may be nil, in
// which case job state is only returned, never stored.
func New(cfg Config, deps Collaborators, jobs domain.JobRepository, logger *zerolog.Logger) (*Orchestrator, error) {
	normalized, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	if name := deps.missing(); name != "" {
		return nil, fmt.Errorf("pipeline: %s is required", name)
	}
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = *logger
	}
	return &Orchestrator{cfg: normalized, deps: deps, jobs: jobs, logger: l}, nil
}

// Execute runs every stage for req. Any failure is returned as a
// *domain.StepError. When the failure happens after the job was created the
// returned JobResult is non-nil and carries the failed job state.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*JobResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		jobID = uuid.NewString()
	}
	logger := o.logger.With().
		Str("job_id", jobID).
		Str("trainer_id", req.TrainerID).
		Str("topic_id", req.TopicID).
		Logger()

	job := domain.NewJob(jobID, req.TrainerID, req.TopicID, req.LanguageCode, domain.ModeAvatar, o.cfg.Now())
	r := &run{
		o:   o,
		req: req,
		t:   newTracker(job, o.jobs, logger, o.cfg.Now),
		log: logger,
	}
	if err := r.t.create(ctx); err != nil {
		logger.Warn().Err(err).Msg("pipeline: job id rejected")
		return nil, domain.NewStepError(domain.StageValidation, jobID, "", err)
	}
	logger.Info().Msg("pipeline: job started")

	videoID, err := r.execute(ctx)
	if err != nil {
		result := &JobResult{Success: false, JobID: jobID, JobState: r.t.snapshot()}
		return result, err
	}
	r.t.succeed(ctx, videoID)
	logger.Info().Str("video_id", videoID).Msg("pipeline: job completed")
	return &JobResult{
		Success:  true,
		VideoID:  videoID,
		JobID:    jobID,
		JobState: r.t.snapshot(),
	}, nil
}

// run carries the per-job values threaded through the stages.
type run struct {
	o   *Orchestrator
	req Request
	t   *tracker
	log zerolog.Logger
}

func (r *run) jobID() string {
	return r.t.job.ID
}

func (r *run) execute(ctx context.Context) (string, error) {
	cfg := r.o.cfg
	deps := r.o.deps
	topicLabel := "Topic " + strings.TrimSpace(r.req.TopicID)

	presentation, err := stage(ctx, r, domain.StageGammaGeneration, func(ctx context.Context) (*domain.Presentation, error) {
		p, err := deps.Presentations.GeneratePresentation(ctx, r.req.InputText, domain.PresentationOptions{
			TopicName: topicLabel,
			Language:  r.req.LanguageCode,
			MaxSlides: cfg.MaxSlides,
		})
		if err != nil {
			return nil, err
		}
		if p == nil || strings.TrimSpace(p.FileURL) == "" {
			return nil, errors.New("presentation has no file url")
		}
		return p, nil
	})
	if err != nil {
		return "", err
	}

	// The deck download has no stage of its own; its failures count as image extraction.
	images, err := stage(ctx, r, domain.StageImageExtraction, func(ctx context.Context) ([]domain.SlideImage, error) {
		deck, err := deps.Storage.Fetch(ctx, presentation.FileURL)
		if err != nil {
			return nil, fmt.Errorf("download deck: %w", err)
		}
		if len(deck) == 0 {
			return nil, errors.New("download deck: empty file")
		}
		images, err := deps.Extractor.ExtractSlideImages(ctx, deck, r.jobID(), cfg.MaxSlides, true)
		if err != nil {
			return nil, fmt.Errorf("extract slide images: %w", err)
		}
		if len(images) == 0 {
			return nil, errors.New("extract slide images: no slides rendered")
		}
		return images, nil
	})
	if err != nil {
		return "", err
	}

	speeches, err := stage(ctx, r, domain.StageSpeechBuilding, func(ctx context.Context) ([]domain.SlideSpeech, error) {
		return deps.Speech.BuildSpeakerText(ctx, r.req.AISlideExplanations)
	})
	if err != nil {
		return "", err
	}

	plan, err := stage(ctx, r, domain.StageSlidePlanCreation, func(context.Context) ([]domain.SlidePlanEntry, error) {
		return BuildSlidePlan(images, speeches)
	})
	if err != nil {
		return "", err
	}

	voiceID, err := stage(ctx, r, domain.StageVoiceResolution, func(context.Context) (string, error) {
		voice := strings.TrimSpace(deps.Voices.Resolve(r.req.LanguageCode))
		if voice == "" {
			r.log.Debug().Str("language_code", r.req.LanguageCode).Msg("pipeline: no voice for language, using default")
			voice = cfg.DefaultVoiceID
		}
		return voice, nil
	})
	if err != nil {
		return "", err
	}

	payload, err := stage(ctx, r, domain.StagePayloadBuilding, func(context.Context) (*domain.TemplatePayload, error) {
		p, err := deps.Payloads.BuildPayload(domain.PayloadInput{
			TemplateID: cfg.TemplateID,
			Slides:     plan,
			Title:      fmt.Sprintf("%s: avatar lesson", topicLabel),
			Caption:    cfg.CaptionEnabled,
			VoiceID:    voiceID,
		})
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, errors.New("payload builder returned no payload")
		}
		return p, nil
	})
	if err != nil {
		return "", err
	}

	return stage(ctx, r, domain.StageHeyGenGeneration, func(ctx context.Context) (string, error) {
		submission, err := deps.Videos.GenerateTemplateVideo(ctx, cfg.TemplateID, payload)
		if err != nil {
			return "", err
		}
		if submission == nil || !submission.Success {
			if submission != nil && submission.Message != "" {
				return "", fmt.Errorf("video submission was not accepted: %s", submission.Message)
			}
			return "", errors.New("video submission was not accepted")
		}
		if strings.TrimSpace(submission.VideoID) == "" {
			return "", errors.New("video submission returned no video id")
		}
		return submission.VideoID, nil
	})
}

// stage brackets fn with StepState transitions and the per-stage timeout,
// converting any failure into a StepError for that stage.
func stage[T any](ctx context.Context, r *run, name domain.Stage, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, r.failStage(ctx, name, fmt.Errorf("cancelled before start: %w", err))
	}
	r.t.begin(ctx, name)
	r.log.Debug().Str("step", string(name)).Msg("pipeline: step started")

	stageCtx, cancel := context.WithTimeout(ctx, r.o.cfg.StageTimeout)
	defer cancel()
	out, err := fn(stageCtx)
	if err != nil {
		return zero, r.failStage(ctx, name, err)
	}
	r.t.complete(ctx, name)
	r.log.Debug().Str("step", string(name)).Msg("pipeline: step completed")
	return out, nil
}

func (r *run) failStage(ctx context.Context, name domain.Stage, cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) && ctx.Err() == nil {
		cause = fmt.Errorf("timed out after %s: %w", r.o.cfg.StageTimeout, cause)
	}
	stepErr := domain.NewStepError(name, r.jobID(), "", cause)
	step, _ := r.t.job.Step(name)
	if step.Status == domain.StepStatusPending {
		r.t.begin(ctx, name)
	}
	r.t.fail(ctx, name, stepErr.Message)
	r.log.Error().Err(cause).Str("step", string(name)).Msg("pipeline: step failed")
	return stepErr
}
