package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/pipeline"
)

// JobDispatcher schedules a pipeline run and returns its job id without
// waiting for it.
type JobDispatcher interface {
	Accept(ctx context.Context, req pipeline.Request) (string, error)
}

type App struct {
	Dispatcher JobDispatcher
	Jobs       domain.JobRepository
	Logger     zerolog.Logger
	// Checks are run by Health; nil means always healthy.
	Checks map[string]HealthCheck
}

func NewApp(dispatcher JobDispatcher, jobs domain.JobRepository, logger *zerolog.Logger) *App {
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = *logger
	}
	return &App{Dispatcher: dispatcher, Jobs: jobs, Logger: l}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, errorResponse{Success: false, Error: msg})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
