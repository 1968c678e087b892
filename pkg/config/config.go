package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port        string
	AppName     string
	FrontendURL string
	StaticDir   string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Database (postgres://... or sqlite3 file path / file: URI)
	DatabaseURL string

	// Face encoder service
	FaceEncoderURL     string
	FaceEncoderToken   string // Bearer token (empty = no auth)
	FaceMatchTolerance float64
	FaceTimeout        time.Duration

	// Generative model
	LLMProvider string // googleai, openai, ollama
	LLMModel    string
	LLMAPIKey   string
	OllamaURL   string
	OllamaToken string // Bearer token for Ollama Cloud (empty = local)
	LLMTimeout  time.Duration

	// Knowledge base document given verbatim to the assistant
	KnowledgePath string

	// RUT documents
	RUTTemplatePath  string
	RUTOutputDir     string
	FieldMapFile     string // empty = embedded default
	FieldMapRevision string // empty = file's default

	// Sessions
	SessionCookie      string
	SessionIdleTimeout time.Duration // 0 = never expire
	CookieSecure       bool

	// Operator endpoints (empty = audit API disabled)
	AuditToken string

	// Mail
	SMTPHost     string // empty = transcript mail disabled
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailTimeout  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        envOrDefault("PORT", "5000"),
		AppName:     envOrDefault("APP_NAME", "AiVi DIAN"),
		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:5000"),
		StaticDir:   envOrDefault("STATIC_DIR", "./web"),

		LogFile:  os.Getenv("LOG_FILE"),
		LogLevel: envOrDefaultLevel("LOG_LEVEL", slog.LevelInfo),

		DatabaseURL: envOrDefault("DATABASE_URL", "aivi_dian.db"),

		FaceEncoderURL:     envOrDefault("FACE_ENCODER_URL", "http://localhost:8500"),
		FaceEncoderToken:   os.Getenv("FACE_ENCODER_TOKEN"),
		FaceMatchTolerance: envOrDefaultFloat("FACE_MATCH_TOLERANCE", 0.6),
		FaceTimeout:        envOrDefaultDuration("FACE_TIMEOUT", 20*time.Second),

		LLMProvider: envOrDefault("LLM_PROVIDER", "googleai"),
		LLMModel:    envOrDefault("LLM_MODEL", "gemini-1.5-flash"),
		LLMAPIKey:   envOrDefault("LLM_API_KEY", os.Getenv("GEMINI_API_KEY")),
		OllamaURL:   envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaToken: os.Getenv("OLLAMA_TOKEN"),
		LLMTimeout:  envOrDefaultDuration("LLM_TIMEOUT", 60*time.Second),

		KnowledgePath: envOrDefault("KNOWLEDGE_PATH", "preguntas_frecuentes_varias.pdf"),

		RUTTemplatePath:  envOrDefault("RUT_TEMPLATE_PATH", "RUT_editable.pdf"),
		RUTOutputDir:     envOrDefault("RUT_OUTPUT_DIR", "documentos_rut"),
		FieldMapFile:     os.Getenv("FIELD_MAP_FILE"),
		FieldMapRevision: os.Getenv("FIELD_MAP_REVISION"),

		SessionCookie:      envOrDefault("SESSION_COOKIE", "aivi_session"),
		SessionIdleTimeout: envOrDefaultDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		CookieSecure:       envOrDefaultBool("COOKIE_SECURE", false),

		AuditToken: os.Getenv("AUDIT_TOKEN"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envOrDefaultInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     envOrDefault("MAIL_FROM", "aivi@dian.local"),
		MailTimeout:  envOrDefaultDuration("MAIL_TIMEOUT", 15*time.Second),
	}
}

// MailEnabled reports whether transcripts should be e-mailed on rating.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}

func envOrDefaultLevel(key string, fallback slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
