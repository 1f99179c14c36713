package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/middleware"
)

type jobStatusResponse struct {
	Success  bool        `json:"success"`
	JobID    string      `json:"jobId"`
	Status   string      `json:"status"`
	VideoID  *string     `json:"video_id"`
	JobState *domain.Job `json:"jobState"`
}

// JobStatus returns the stored snapshot of a job. A job accepted a moment ago
// may not be stored yet and reports 404 until its run starts.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(chi.URLParam(r, "job_id"))
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "job_id is required")
		return
	}
	job, err := a.Jobs.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("job status: lookup failed")
		a.error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !middleware.MayActFor(r.Context(), job.TrainerID) {
		a.error(w, http.StatusNotFound, "job not found")
		return
	}

	var videoID *string
	if job.VideoID != "" {
		videoID = &job.VideoID
	}
	a.json(w, http.StatusOK, jobStatusResponse{
		Success:  true,
		JobID:    job.ID,
		Status:   string(job.Status),
		VideoID:  videoID,
		JobState: job,
	})
}
