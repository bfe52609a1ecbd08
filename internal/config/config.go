package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Supabase    SupabaseConfig
	Persistence PersistenceConfig
	STT         STTConfig
	Coach       CoachConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Worker      WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type SupabaseConfig struct {
	URL        string
	ServiceKey string
}

type PersistenceConfig struct {
	Backend          string // "postgres" or "supabase"
	SessionRecorder  string // "direct" or "queue"
	LanguageCacheTTL time.Duration
}

type STTConfig struct {
	Backend       string // "openai" or "local"
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	LocalBaseURL  string // default: "http://localhost:8178"
}

type CoachConfig struct {
	Provider         string // "openai", "anthropic" or "" to disable
	FallbackProvider string
	Model            string
	OpenAIKey        string
	AnthropicKey     string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type WorkerConfig struct {
	Concurrency int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cacheTTL, err := getEnvDuration("LANGUAGE_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid LANGUAGE_CACHE_TTL: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		},
		Supabase: SupabaseConfig{
			URL:        getEnv("SUPABASE_URL", ""),
			ServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		},
		Persistence: PersistenceConfig{
			Backend:          getEnv("PERSISTENCE_BACKEND", "postgres"),
			SessionRecorder:  getEnv("SESSION_RECORDER", "direct"),
			LanguageCacheTTL: cacheTTL,
		},
		STT: STTConfig{
			Backend:       getEnv("STT_BACKEND", "openai"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("STT_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("STT_OPENAI_MODEL", ""),
			LocalBaseURL:  getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178"),
		},
		Coach: CoachConfig{
			Provider:         getEnv("COACH_PROVIDER", ""),
			FallbackProvider: getEnv("COACH_FALLBACK_PROVIDER", ""),
			Model:            getEnv("COACH_MODEL", ""),
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedHeaders: getEnvList("CORS_ALLOWED_HEADERS", []string{"authorization", "x-client-info", "apikey", "content-type"}),
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Worker: WorkerConfig{
			Concurrency: concurrency,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks settings the API server cannot start without. The
// transcription credential is deliberately not required here: a missing key
// is reported per request as a configuration error.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("missing required env vars: SUPABASE_JWT_SECRET")
	}
	if err := c.ValidatePersistence(); err != nil {
		return err
	}
	switch c.STT.Backend {
	case "openai", "local":
	default:
		return fmt.Errorf("unknown STT_BACKEND %q", c.STT.Backend)
	}
	return nil
}

// ValidatePersistence checks the storage settings shared by the API server
// and the worker.
func (c *Config) ValidatePersistence() error {
	var missing []string
	switch c.Persistence.Backend {
	case "postgres":
		if c.Database.URL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case "supabase":
		if c.Supabase.URL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.Supabase.ServiceKey == "" {
			missing = append(missing, "SUPABASE_SERVICE_KEY")
		}
	default:
		return fmt.Errorf("unknown PERSISTENCE_BACKEND %q", c.Persistence.Backend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	switch c.Persistence.SessionRecorder {
	case "direct", "queue":
	default:
		return fmt.Errorf("unknown SESSION_RECORDER %q", c.Persistence.SessionRecorder)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
