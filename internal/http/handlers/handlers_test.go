package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/adapter/repo"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/dispatch"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/middleware"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/pipeline"
)

type stubDispatcher struct {
	accepted []pipeline.Request
	jobID    string
	err      error
}

func (s *stubDispatcher) Accept(_ context.Context, req pipeline.Request) (string, error) {
	s.accepted = append(s.accepted, req)
	if s.err != nil {
		return "", s.err
	}
	if req.JobID != "" {
		return req.JobID, nil
	}
	return s.jobID, nil
}

const validBody = `{
	"trainer_id": "trainer-1",
	"topic_id": "42",
	"language_code": "en",
	"mode": "avatar",
	"input_text": "Hello world",
	"ai_slide_explanations": ["Slide A", "Slide B"]
}`

func postAvatar(app *App, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/content/avatar-video", strings.NewReader(body))
	rr := httptest.NewRecorder()
	app.AvatarVideo(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAvatarVideoAcceptsValidRequest(t *testing.T) {
	d := &stubDispatcher{jobID: "job-abc"}
	app := NewApp(d, repo.NewMemoryJobRepository(), nil)

	rr := postAvatar(app, validBody)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rr.Code)
	}
	body := decode(t, rr)
	if body["success"] != true || body["status"] != "accepted" || body["jobId"] != "job-abc" {
		t.Fatalf("body = %v", body)
	}
	if v, ok := body["video_id"]; !ok || v != nil {
		t.Fatalf("video_id = %#v, want explicit null", v)
	}
	if len(d.accepted) != 1 || len(d.accepted[0].AISlideExplanations) != 2 {
		t.Fatalf("dispatched = %+v", d.accepted)
	}
}

func TestAvatarVideoValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    int
		wantErr string
		status  string
	}{
		{"invalid json", `{"trainer_id":`, http.StatusBadRequest, "invalid payload", ""},
		{"missing trainer", `{"topic_id":"1","language_code":"en","mode":"avatar"}`, http.StatusBadRequest, "trainer_id is required", ""},
		{"missing topic", `{"trainer_id":"t","language_code":"en","mode":"avatar"}`, http.StatusBadRequest, "topic_id is required", ""},
		{"missing language", `{"trainer_id":"t","topic_id":"1","mode":"avatar"}`, http.StatusBadRequest, "language_code is required", ""},
		{"missing mode", `{"trainer_id":"t","topic_id":"1","language_code":"en"}`, http.StatusBadRequest, "mode is required", ""},
		{"other mode skipped", `{"trainer_id":"t","topic_id":"1","language_code":"en","mode":"text"}`, http.StatusOK, "", "skipped"},
		{"missing input text", `{"trainer_id":"t","topic_id":"1","language_code":"en","mode":"avatar","ai_slide_explanations":["a"]}`, http.StatusBadRequest, "input_text is required", ""},
		{"missing explanations", `{"trainer_id":"t","topic_id":"1","language_code":"en","mode":"avatar","input_text":"x"}`, http.StatusBadRequest, "ai_slide_explanations is required", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := &stubDispatcher{jobID: "never"}
			app := NewApp(d, repo.NewMemoryJobRepository(), nil)
			rr := postAvatar(app, tc.body)
			if rr.Code != tc.code {
				t.Fatalf("status = %d, want %d", rr.Code, tc.code)
			}
			body := decode(t, rr)
			if tc.wantErr != "" && (body["error"] != tc.wantErr || body["success"] != false) {
				t.Fatalf("body = %v, want error %q", body, tc.wantErr)
			}
			if tc.status != "" && body["status"] != tc.status {
				t.Fatalf("body = %v, want status %q", body, tc.status)
			}
			if len(d.accepted) != 0 {
				t.Fatalf("dispatcher called for rejected request")
			}
		})
	}
}

func TestAvatarVideoBusy(t *testing.T) {
	app := NewApp(&stubDispatcher{err: dispatch.ErrBusy}, repo.NewMemoryJobRepository(), nil)
	rr := postAvatar(app, validBody)
	if rr.Code != http.StatusServiceUnavailable || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("status = %d, headers = %v", rr.Code, rr.Header())
	}
}

func TestAvatarVideoDispatchError(t *testing.T) {
	app := NewApp(&stubDispatcher{err: errors.New("boom")}, repo.NewMemoryJobRepository(), nil)
	if rr := postAvatar(app, validBody); rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

type noopExecutor struct{}

func (noopExecutor) Execute(ctx context.Context, req pipeline.Request) (*pipeline.JobResult, error) {
	return &pipeline.JobResult{Success: true, JobID: req.JobID}, nil
}

func TestAvatarVideoRefusesTakenOrMalformedJobID(t *testing.T) {
	jobs := repo.NewMemoryJobRepository()
	done := domain.NewJob("job-A", "trainer-A", "42", "en", domain.ModeAvatar, time.Now())
	done.Status = domain.JobStatusCompleted
	if err := jobs.Create(context.Background(), done); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	d, err := dispatch.New(noopExecutor{}, dispatch.Options{PoolSize: 1, Jobs: jobs})
	if err != nil {
		t.Fatalf("dispatch.New() error: %v", err)
	}
	defer d.Close(time.Second)
	app := NewApp(d, jobs, nil)

	tests := []struct {
		name  string
		body  string
		code  int
		error string
	}{
		{
			name:  "foreign trainer",
			body:  strings.Replace(validBody, `"trainer_id": "trainer-1",`, `"trainer_id": "trainer-B", "job_id": "job-A",`, 1),
			code:  http.StatusConflict,
			error: "job_id is already in use",
		},
		{
			name:  "finished job",
			body:  strings.Replace(validBody, `"trainer_id": "trainer-1",`, `"trainer_id": "trainer-A", "job_id": "job-A",`, 1),
			code:  http.StatusConflict,
			error: "job already finished",
		},
		{
			name:  "path in job id",
			body:  strings.Replace(validBody, `"trainer_id": "trainer-1",`, `"trainer_id": "trainer-1", "job_id": "../job-A",`, 1),
			code:  http.StatusBadRequest,
			error: "job_id must be 1-128 letters, digits, '-' or '_'",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postAvatar(app, tc.body)
			if rr.Code != tc.code {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tc.code, rr.Body.String())
			}
			if got := decode(t, rr)["error"]; got != tc.error {
				t.Fatalf("error = %v, want %q", got, tc.error)
			}
		})
	}
}

func TestAvatarVideoRejectsForeignTrainerToken(t *testing.T) {
	d := &stubDispatcher{jobID: "job"}
	app := NewApp(d, repo.NewMemoryJobRepository(), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/content/avatar-video", strings.NewReader(validBody))
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), &middleware.TokenClaims{Sub: "trainer-2"}))
	rr := httptest.NewRecorder()
	app.AvatarVideo(rr, req)
	if rr.Code != http.StatusForbidden || len(d.accepted) != 0 {
		t.Fatalf("status = %d, accepted = %d", rr.Code, len(d.accepted))
	}
}

func getJob(ctx context.Context, app *App, jobID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/"+jobID, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("job_id", jobID)
	req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()
	app.JobStatus(rr, req)
	return rr
}

func TestJobStatus(t *testing.T) {
	jobs := repo.NewMemoryJobRepository()
	job := domain.NewJob("job-1", "trainer-1", "42", "en", domain.ModeAvatar, time.Now())
	job.Status = domain.JobStatusCompleted
	job.VideoID = "video-9"
	if err := jobs.Save(context.Background(), job); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	app := NewApp(&stubDispatcher{}, jobs, nil)

	rr := getJob(context.Background(), app, "job-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode(t, rr)
	if body["status"] != "completed" || body["video_id"] != "video-9" {
		t.Fatalf("body = %v", body)
	}
	state := body["jobState"].(map[string]any)
	if steps := state["steps"].([]any); len(steps) != 7 {
		t.Fatalf("steps = %d, want 7", len(steps))
	}

	rr = getJob(context.Background(), app, "missing")
	if rr.Code != http.StatusNotFound || decode(t, rr)["error"] != "job not found" {
		t.Fatalf("missing job status = %d", rr.Code)
	}

	foreign := middleware.ContextWithClaims(context.Background(), &middleware.TokenClaims{Sub: "trainer-2"})
	if rr := getJob(foreign, app, "job-1"); rr.Code != http.StatusNotFound {
		t.Fatalf("foreign trainer status = %d, want 404", rr.Code)
	}
}

func TestHealthAndOpenAPI(t *testing.T) {
	app := NewApp(&stubDispatcher{}, repo.NewMemoryJobRepository(), nil)
	rr := httptest.NewRecorder()
	app.Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rr.Code != http.StatusOK || decode(t, rr)["status"] != "ok" {
		t.Fatalf("health status = %d", rr.Code)
	}

	app.Checks = map[string]HealthCheck{"database": func(context.Context) error { return errors.New("down") }}
	rr = httptest.NewRecorder()
	app.Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded health status = %d, want 503", rr.Code)
	}
	checks := decode(t, rr)["checks"].(map[string]any)
	if checks["database"] != "down" {
		t.Fatalf("checks = %v", checks)
	}

	rr = httptest.NewRecorder()
	app.OpenAPIJSON(rr, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	doc := decode(t, rr)
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/v1/content/avatar-video"]; !ok {
		t.Fatalf("openapi document missing avatar-video path")
	}
}

func TestOpenAPIDocsListsRoutesAndCaches(t *testing.T) {
	app := NewApp(&stubDispatcher{}, repo.NewMemoryJobRepository(), nil)

	rr := httptest.NewRecorder()
	app.OpenAPIDocs(rr, httptest.NewRequest(http.MethodGet, "/v1/docs", nil))
	page := rr.Body.String()
	for _, want := range []string{"<title>ContentStudio Avatar Video API 1.0.0</title>", "POST /v1/content/avatar-video", "GET /v1/jobs/{job_id}"} {
		if !strings.Contains(page, want) {
			t.Fatalf("docs page missing %q", want)
		}
	}

	rr = httptest.NewRecorder()
	app.OpenAPIJSON(rr, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	app.OpenAPIJSON(rr, req)
	if rr.Code != http.StatusNotModified || rr.Body.Len() != 0 {
		t.Fatalf("conditional get = %d with %d bytes", rr.Code, rr.Body.Len())
	}
}
