// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database and object storage backends, the vision model, guardian
// alerts, auth, rate limiting and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/safestudent/safe-student-backend/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]

	Headers map[string]string // OTEL_EXPORTER_OTLP_HEADERS, "k1=v1,k2=v2"
}

// DBConfig selects the record store.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite)
	URL    string // DATABASE_URL (postgres)
}

// StorageConfig selects and configures the screenshot object store.
type StorageConfig struct {
	Backend       string // STORAGE_BACKEND: minio|supabase
	Bucket        string // STORAGE_BUCKET
	PublicBaseURL string // STORAGE_PUBLIC_BASE_URL (optional)

	MinIOEndpoint  string // MINIO_ENDPOINT
	MinIOAccessKey string // MINIO_ACCESS_KEY
	MinIOSecretKey string // MINIO_SECRET_KEY
	MinIORegion    string // MINIO_REGION
	MinIOUseSSL    bool   // MINIO_USE_SSL

	SupabaseURL        string // SUPABASE_URL
	SupabaseServiceKey string // SUPABASE_SERVICE_KEY
}

// ModelConfig configures the vision/chat model client.
type ModelConfig struct {
	Provider   string        // MODEL_PROVIDER: openai|anthropic
	APIKey     string        // MODEL_API_KEY
	BaseURL    string        // MODEL_BASE_URL (optional gateway)
	Name       string        // MODEL_NAME
	Timeout    time.Duration // MODEL_TIMEOUT
	MaxTokens  int           // MODEL_MAX_TOKENS
	PromptFile string        // MODEL_PROMPT_FILE (optional YAML)
}

// AlertConfig configures the guardian webhook.
type AlertConfig struct {
	WebhookURL string        // ALERT_WEBHOOK_URL; empty disables alerts
	Timeout    time.Duration // ALERT_TIMEOUT
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string // AUTH_JWT_SECRET; empty enables the dev identity fallback
	JWTIssuer string // AUTH_JWT_ISSUER
	Required  bool   // AUTH_REQUIRED; defaults to true in release mode when JWTSecret is set
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // analysis waits on the model
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Backends
	DB      DBConfig
	Storage StorageConfig
	Model   ModelConfig
	Alert   AlertConfig
	Auth    AuthConfig

	// App
	UploadMaxBytes     int64         // UPLOAD_MAX_BYTES
	AnalysisStaleAfter time.Duration // ANALYSIS_STALE_AFTER; 0 disables the reconciler
	AssistantKBPath    string        // ASSISTANT_KB_PATH; empty uses the built-in tips

	// Assistant tip index
	AssistantKBMinRunes  int      // ASSISTANT_KB_MIN_RUNES; shorter tips are dropped
	AssistantKBMaxTips   int      // ASSISTANT_KB_MAX_TIPS; 0 keeps every tip
	AssistantKBStopwords []string // ASSISTANT_KB_STOPWORDS; empty keeps the built-in list

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// Load reads configuration from environment variables and applies defaults.
// A variable that is set but cannot be parsed is an error rather than a
// silent fallback, and every problem found is reported at once.
func Load() (Config, error) {
	e := &env{}
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.int("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.bool("LOG_PRETTY", false),
		SwaggerEnabled: e.bool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(e.str("DB_DRIVER", "sqlite")),
			Path:   e.str("DB_PATH", "app.db"),
			URL:    e.str("DATABASE_URL", ""),
		},
		Storage: StorageConfig{
			Backend:            strings.ToLower(e.str("STORAGE_BACKEND", "minio")),
			Bucket:             e.str("STORAGE_BUCKET", "screenshots"),
			PublicBaseURL:      e.str("STORAGE_PUBLIC_BASE_URL", ""),
			MinIOEndpoint:      e.str("MINIO_ENDPOINT", "localhost:9000"),
			MinIOAccessKey:     e.str("MINIO_ACCESS_KEY", ""),
			MinIOSecretKey:     e.str("MINIO_SECRET_KEY", ""),
			MinIORegion:        e.str("MINIO_REGION", ""),
			MinIOUseSSL:        e.bool("MINIO_USE_SSL", false),
			SupabaseURL:        strings.TrimRight(e.str("SUPABASE_URL", ""), "/"),
			SupabaseServiceKey: e.str("SUPABASE_SERVICE_KEY", ""),
		},
		Model: ModelConfig{
			Provider:   strings.ToLower(e.str("MODEL_PROVIDER", "openai")),
			APIKey:     e.str("MODEL_API_KEY", ""),
			BaseURL:    e.str("MODEL_BASE_URL", ""),
			Name:       e.str("MODEL_NAME", ""),
			Timeout:    e.dur("MODEL_TIMEOUT", 60*time.Second),
			MaxTokens:  e.int("MODEL_MAX_TOKENS", 1024),
			PromptFile: e.str("MODEL_PROMPT_FILE", ""),
		},
		Alert: AlertConfig{
			WebhookURL: e.str("ALERT_WEBHOOK_URL", ""),
			Timeout:    e.dur("ALERT_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: e.str("AUTH_JWT_SECRET", ""),
			JWTIssuer: e.str("AUTH_JWT_ISSUER", ""),
		},

		UploadMaxBytes:     e.int64("UPLOAD_MAX_BYTES", 10<<20),
		AnalysisStaleAfter: e.dur("ANALYSIS_STALE_AFTER", 10*time.Minute),
		AssistantKBPath:    e.str("ASSISTANT_KB_PATH", ""),

		AssistantKBMinRunes:  e.int("ASSISTANT_KB_MIN_RUNES", 20),
		AssistantKBMaxTips:   e.int("ASSISTANT_KB_MAX_TIPS", 0),
		AssistantKBStopwords: splitCSV(e.str("ASSISTANT_KB_STOPWORDS", "")),

		RateRPS:   e.float("RATE_RPS", 5.0),
		RateBurst: e.int("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.bool("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.bool("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "safe-student-backend"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
			Headers:     e.pairs("OTEL_EXPORTER_OTLP_HEADERS"),
		},
	}
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	// With a secret configured, release mode rejects anonymous callers
	// unless AUTH_REQUIRED is set explicitly.
	cfg.Auth.Required = e.bool("AUTH_REQUIRED", cfg.Auth.JWTSecret != "" && cfg.GinMode == "release")

	if err := errors.Join(e.errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	errs = append(errs, c.DB.validate(), c.Storage.validate(), c.Model.validate())

	check(c.Alert.Timeout > 0, "ALERT_TIMEOUT must be > 0")
	check(!c.Auth.Required || strings.TrimSpace(c.Auth.JWTSecret) != "", "AUTH_REQUIRED needs AUTH_JWT_SECRET")
	check(c.UploadMaxBytes > 0, "UPLOAD_MAX_BYTES must be > 0")
	check(c.AnalysisStaleAfter >= 0, "ANALYSIS_STALE_AFTER must be >= 0")
	check(c.AnalysisStaleAfter == 0 || c.AnalysisStaleAfter > c.Model.Timeout,
		"ANALYSIS_STALE_AFTER must exceed MODEL_TIMEOUT (or be 0 to disable the reconciler)")
	check(c.AssistantKBMinRunes >= 0, "ASSISTANT_KB_MIN_RUNES must be >= 0")
	check(c.AssistantKBMaxTips >= 0, "ASSISTANT_KB_MAX_TIPS must be >= 0")
	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

func (d DBConfig) validate() error {
	switch d.Driver {
	case "sqlite":
		if strings.TrimSpace(d.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(d.URL) == "" {
			return errors.New("DATABASE_URL is required for DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", d.Driver)
	}
	return nil
}

func (s StorageConfig) validate() error {
	if strings.TrimSpace(s.Bucket) == "" {
		return errors.New("STORAGE_BUCKET must not be empty")
	}
	switch s.Backend {
	case "minio":
		if strings.TrimSpace(s.MinIOEndpoint) == "" {
			return errors.New("MINIO_ENDPOINT must not be empty")
		}
	case "supabase":
		if s.SupabaseURL == "" || strings.TrimSpace(s.SupabaseServiceKey) == "" {
			return errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for STORAGE_BACKEND=supabase")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be minio or supabase, got %q", s.Backend)
	}
	return nil
}

func (m ModelConfig) validate() error {
	var errs []error
	switch m.Provider {
	case "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("MODEL_PROVIDER must be openai or anthropic, got %q", m.Provider))
	}
	if m.Timeout <= 0 {
		errs = append(errs, errors.New("MODEL_TIMEOUT must be > 0"))
	}
	if m.MaxTokens <= 0 {
		errs = append(errs, errors.New("MODEL_MAX_TOKENS must be > 0"))
	}
	return errors.Join(errs...)
}

// env reads typed values from the process environment. Empty variables take
// the default; malformed ones are recorded in errs and also take the default.
type env struct {
	errs []error
}

func (e *env) lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *env) fail(k, v, kind string) {
	e.errs = append(e.errs, fmt.Errorf("%s: %q is not a valid %s", k, v, kind))
}

func (e *env) str(k, def string) string {
	if v, ok := e.lookup(k); ok {
		return v
	}
	return def
}

func (e *env) float(k string, def float64) float64 {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		e.fail(k, v, "number")
		return def
	}
	return f
}

func (e *env) int(k string, def int) int {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.fail(k, v, "integer")
		return def
	}
	return i
}

func (e *env) int64(k string, def int64) int64 {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		e.fail(k, v, "integer")
		return def
	}
	return i
}

func (e *env) bool(k string, def bool) bool {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	switch {
	case sysutil.IsTruthy(v):
		return true
	case sysutil.IsFalsy(v):
		return false
	}
	e.fail(k, v, "boolean")
	return def
}

func (e *env) dur(k string, def time.Duration) time.Duration {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		e.fail(k, v, "duration")
		return def
	}
	return d
}

// pairs parses "k1=v1,k2=v2". Keys and values are trimmed; an entry without
// '=' or with an empty key is an error.
func (e *env) pairs(k string) map[string]string {
	v, ok := e.lookup(k)
	if !ok {
		return nil
	}
	out := map[string]string{}
	for _, item := range splitCSV(v) {
		key, val, found := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			e.fail(k, item, "key=value pair")
			continue
		}
		out[key] = strings.TrimSpace(val)
	}
	return out
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones, keeping
// the root as "/".
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
