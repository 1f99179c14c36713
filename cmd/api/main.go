package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/adapter/repo"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/dispatch"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/http/handlers"
	httpapi "github.com/educoreai-lotus/ContentStudio-sub001/internal/http/httpapi"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/infra"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/narration"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/pipeline"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/providers/gamma"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/providers/heygen"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/providers/slides"
	"github.com/educoreai-lotus/ContentStudio-sub001/internal/storage"
)

const shutdownGrace = 30 * time.Second

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Job store: Postgres when configured, otherwise in process.
	var jobs domain.JobRepository
	dbpool, err := infra.NewDBPool(ctx, cfg)
	switch {
	case errors.Is(err, infra.ErrNoDatabase):
		logger.Warn().Msg("DATABASE_URL not set, job state is kept in memory")
		jobs = repo.NewMemoryJobRepository()
	case err != nil:
		logger.Fatal().Err(err).Msg("failed to connect database")
	default:
		defer dbpool.Close()
		pgJobs := repo.NewJobRepository(infra.NewSQLRunner(dbpool, logger))
		if err := pgJobs.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure jobs schema")
		}
		jobs = pgJobs
	}

	// Artifacts: S3 when a bucket is set, local files otherwise.
	files, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init file storage")
	}
	var artifacts storage.ObjectWriter = files
	var s3Store *storage.S3Store
	if cfg.S3Bucket != "" {
		s3Store, err = storage.NewS3Store(storage.S3Options{Bucket: cfg.S3Bucket, Region: cfg.S3Region, PublicURL: cfg.S3PublicURL})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init s3 storage")
		}
		logger.Info().Str("bucket", s3Store.Bucket()).Msg("slide images are stored in s3")
		artifacts = s3Store
	}

	deps, err := buildCollaborators(cfg, &logger, files, s3Store, artifacts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init collaborators")
	}
	orchestrator, err := pipeline.New(pipeline.Config{
		TemplateID:     cfg.HeyGenTemplateID,
		MaxSlides:      cfg.MaxSlides,
		DefaultVoiceID: cfg.DefaultVoiceID,
		CaptionEnabled: cfg.CaptionEnabled,
		StageTimeout:   cfg.StageTimeout,
	}, deps, jobs, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init pipeline")
	}

	dispatcher, err := dispatch.New(orchestrator, dispatch.Options{
		PoolSize:   cfg.WorkerPoolSize,
		JobTimeout: cfg.JobTimeout,
		Jobs:       jobs,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init dispatcher")
	}

	janitor, err := dispatch.NewJanitor(jobs, dispatch.JanitorOptions{
		MaxJobAge: cfg.StaleJobAge,
		Interval:  cfg.JanitorInterval,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init janitor")
	}
	go janitor.Run(ctx)

	app := handlers.NewApp(dispatcher, jobs, &logger)
	if dbpool != nil {
		app.Checks = map[string]handlers.HealthCheck{"database": dbpool.Ping}
	}
	staticDir := ""
	if s3Store == nil {
		staticDir = files.BasePath()
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		JWTSecret:       cfg.JWTSecret,
		StaticDir:       staticDir,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Int("workers", cfg.WorkerPoolSize).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := dispatcher.Close(shutdownGrace); err != nil {
		logger.Warn().Err(err).Int("running", dispatcher.Running()).Msg("pipeline jobs still running at exit")
	}
	logger.Info().Msg("server stopped")
}

func buildCollaborators(cfg *infra.Config, logger *infra.Logger, files *storage.FileStore, s3Store *storage.S3Store, artifacts storage.ObjectWriter) (pipeline.Collaborators, error) {
	httpClient := &http.Client{Timeout: 2 * time.Minute}

	presentations, err := gamma.NewClient(gamma.Options{
		APIKey:       cfg.GammaAPIKey,
		BaseURL:      cfg.GammaBaseURL,
		PollInterval: cfg.GammaPollInterval,
		MaxAttempts:  cfg.ProviderAttempts,
		HTTPClient:   httpClient,
		Logger:       logger,
	})
	if err != nil {
		return pipeline.Collaborators{}, err
	}
	extractor, err := slides.NewExtractor(slides.Options{
		RendererURL: cfg.SlideRendererURL,
		Store:       artifacts,
		HTTPClient:  &http.Client{Timeout: 5 * time.Minute},
		MaxAttempts: cfg.ProviderAttempts,
		Logger:      logger,
	})
	if err != nil {
		return pipeline.Collaborators{}, err
	}
	videos, err := heygen.NewClient(heygen.Options{
		APIKey:      cfg.HeyGenAPIKey,
		BaseURL:     cfg.HeyGenBaseURL,
		MaxAttempts: cfg.ProviderAttempts,
		HTTPClient:  httpClient,
		Logger:      logger,
	})
	if err != nil {
		return pipeline.Collaborators{}, err
	}

	return pipeline.Collaborators{
		Presentations: presentations,
		Storage:       storage.NewFetcher(storage.FetcherOptions{S3: s3Store, Files: files}),
		Extractor:     extractor,
		Speech:        narration.NewSpeechBuilder(0),
		Voices:        narration.NewVoiceCatalog(cfg.VoiceMap),
		Payloads:      heygen.NewPayloadBuilder(),
		Videos:        videos,
	}, nil
}
