package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/dispatch"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/middleware"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/pipeline"
)

const maxRequestBytes = 1 << 20

type acceptedResponse struct {
	Success bool    `json:"success"`
	Status  string  `json:"status"`
	VideoID *string `json:"video_id"`
	JobID   string  `json:"jobId"`
}

type skippedResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Mode    string `json:"mode"`
}

// AvatarVideo validates the request, schedules the pipeline and answers 202
// before any external call is made. Pipeline failures after acceptance are
// only visible through the job status endpoint and the logs.
func (a *App) AvatarVideo(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	switch field := req.MissingField(); field {
	case "trainer_id", "topic_id", "language_code", "mode":
		a.error(w, http.StatusBadRequest, field+" is required")
		return
	}
	if !pipeline.IsAvatarMode(req.Mode) {
		a.json(w, http.StatusOK, skippedResponse{Success: true, Status: "skipped", Mode: req.Mode})
		return
	}
	if field := req.MissingField(); field != "" {
		a.error(w, http.StatusBadRequest, field+" is required")
		return
	}
	if !middleware.MayActFor(r.Context(), req.TrainerID) {
		a.error(w, http.StatusForbidden, "token does not match trainer_id")
		return
	}

	logger := zerolog.Ctx(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = &a.Logger
	}
	jobID, err := a.Dispatcher.Accept(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrBusy), errors.Is(err, dispatch.ErrClosed):
			logger.Warn().Err(err).Str("trainer_id", req.TrainerID).Msg("avatar video: not accepted")
			w.Header().Set("Retry-After", "30")
			a.error(w, http.StatusServiceUnavailable, "service busy, retry later")
		case errors.Is(err, domain.ErrJobConflict):
			a.error(w, http.StatusConflict, "job_id is already in use")
		case errors.Is(err, domain.ErrJobTerminal):
			a.error(w, http.StatusConflict, "job already finished")
		case domain.IsValidation(err):
			stepErr, _ := domain.AsStepError(err)
			a.error(w, http.StatusBadRequest, stepErr.Message)
		default:
			logger.Error().Err(err).Str("trainer_id", req.TrainerID).Msg("avatar video: dispatch failed")
			a.error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	logger.Info().
		Str("job_id", jobID).
		Str("trainer_id", req.TrainerID).
		Str("topic_id", req.TopicID).
		Msg("avatar video: job accepted")
	a.json(w, http.StatusAccepted, acceptedResponse{Success: true, Status: "accepted", VideoID: nil, JobID: jobID})
}
