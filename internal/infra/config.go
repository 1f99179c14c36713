package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	GammaAPIKey       string
	GammaBaseURL      string
	GammaPollInterval time.Duration
	SlideRendererURL  string
	HeyGenAPIKey      string
	HeyGenBaseURL     string
	HeyGenTemplateID  string
	DefaultVoiceID    string
	VoiceMap          map[string]string
	CaptionEnabled    bool
	MaxSlides         int
	ProviderAttempts  int

	StoragePath    string
	StorageBaseURL string
	S3Bucket       string
	S3Region       string
	S3PublicURL    string

	WorkerPoolSize  int
	StageTimeout    time.Duration
	JobTimeout      time.Duration
	StaleJobAge     time.Duration
	JanitorInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		CORSOrigins:      splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		GammaAPIKey:       os.Getenv("GAMMA_API_KEY"),
		GammaBaseURL:      getEnv("GAMMA_BASE_URL", "https://public-api.gamma.app/v0.2"),
		GammaPollInterval: getEnvDuration("GAMMA_POLL_INTERVAL", 5*time.Second),
		SlideRendererURL:  os.Getenv("SLIDE_RENDERER_URL"),
		HeyGenAPIKey:      os.Getenv("HEYGEN_API_KEY"),
		HeyGenBaseURL:     getEnv("HEYGEN_BASE_URL", "https://api.heygen.com"),
		HeyGenTemplateID:  os.Getenv("HEYGEN_TEMPLATE_ID"),
		DefaultVoiceID:    os.Getenv("HEYGEN_DEFAULT_VOICE_ID"),
		VoiceMap:          parseVoiceMap(os.Getenv("HEYGEN_VOICE_MAP")),
		CaptionEnabled:    getEnvBool("HEYGEN_CAPTION_ENABLED", true),
		MaxSlides:         getEnvInt("PIPELINE_MAX_SLIDES", 10),
		ProviderAttempts:  getEnvInt("PROVIDER_MAX_ATTEMPTS", 3),

		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),

		WorkerPoolSize:  getEnvInt("WORKER_POOL_SIZE", 16),
		StageTimeout:    getEnvDuration("PIPELINE_STAGE_TIMEOUT", 5*time.Minute),
		JobTimeout:      getEnvDuration("PIPELINE_JOB_TIMEOUT", 30*time.Minute),
		StaleJobAge:     getEnvDuration("PIPELINE_STALE_JOB_AGE", 45*time.Minute),
		JanitorInterval: getEnvDuration("PIPELINE_JANITOR_INTERVAL", time.Minute),
	}

	required := []struct{ key, value string }{
		{"GAMMA_API_KEY", cfg.GammaAPIKey},
		{"HEYGEN_API_KEY", cfg.HeyGenAPIKey},
		{"HEYGEN_TEMPLATE_ID", cfg.HeyGenTemplateID},
		{"HEYGEN_DEFAULT_VOICE_ID", cfg.DefaultVoiceID},
		{"SLIDE_RENDERER_URL", cfg.SlideRendererURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, fmt.Errorf("%s is required", r.key)
		}
	}
	if cfg.StaleJobAge <= cfg.JobTimeout {
		return nil, fmt.Errorf("PIPELINE_STALE_JOB_AGE (%s) must exceed PIPELINE_JOB_TIMEOUT (%s)", cfg.StaleJobAge, cfg.JobTimeout)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseVoiceMap reads "en=voice-a,he=voice-b" pairs.
func parseVoiceMap(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range splitList(raw) {
		lang, voice, ok := strings.Cut(pair, "=")
		lang, voice = strings.TrimSpace(lang), strings.TrimSpace(voice)
		if !ok || lang == "" || voice == "" {
			continue
		}
		out[lang] = voice
	}
	return out
}
