package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers for lecture audio.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	AWS           AWSConfig
	Storage       StorageConfig
	Transcription TranscriptionConfig
	Summarization SummarizationConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int // 0 disables; transcription requests can run for minutes
	CORSAllowedOrigins string
	MaxUploadMB        int
	StaticDir          string // client bundle served at /; empty disables
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Empty Addr runs without Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds AWS credentials and the audio bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	Endpoint             string
	AudioBucket          string
	PresignExpireMinutes int
}

// StorageConfig selects where uploaded audio lives.
type StorageConfig struct {
	Driver    string // local | s3
	UploadDir string
	TempDir   string
}

// TranscriptionConfig describes the external speech-to-text process. The
// audio path is appended after Args.
type TranscriptionConfig struct {
	Command string
	Args    []string
}

// SummarizationConfig holds the OpenAI-compatible chat completion settings.
type SummarizationConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Enabled reports whether a summarization API key is configured.
func (c SummarizationConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Validate checks values that would otherwise fail later at first use.
func (c *Config) Validate() error {
	var problems []string
	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.UploadDir == "" {
			problems = append(problems, "UPLOAD_DIR is required for local storage")
		}
	case StorageS3:
		if c.AWS.AudioBucket == "" {
			problems = append(problems, "AWS_S3_AUDIO_BUCKET is required for s3 storage")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	if c.Transcription.Command == "" {
		problems = append(problems, "TRANSCRIBE_COMMAND is required")
	}
	if c.Summarization.MaxTokens <= 0 {
		problems = append(problems, "SUMMARY_MAX_TOKENS must be positive")
	}
	if c.Server.MaxUploadMB <= 0 {
		problems = append(problems, "MAX_UPLOAD_MB must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "3000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 60),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 0),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 200),
			StaticDir:          os.Getenv("STATIC_DIR"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "lecturenotes"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 0),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey:      os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Endpoint:             os.Getenv("AWS_S3_ENDPOINT"),
			AudioBucket:          os.Getenv("AWS_S3_AUDIO_BUCKET"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Storage: StorageConfig{
			Driver:    strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
			UploadDir: getEnv("UPLOAD_DIR", "public/uploads"),
			TempDir:   os.Getenv("TEMP_DIR"),
		},
		Transcription: TranscriptionConfig{
			Command: getEnv("TRANSCRIBE_COMMAND", "python"),
			Args:    splitTrim(getEnv("TRANSCRIBE_ARGS", "transcription_service.py"), ","),
		},
		Summarization: SummarizationConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			APIKey:      os.Getenv("LLM_API_KEY"),
			Model:       getEnv("SUMMARY_MODEL", "llama3-8b-8192"),
			MaxTokens:   getEnvInt("SUMMARY_MAX_TOKENS", 4096),
			Temperature: getEnvFloat32("SUMMARY_TEMPERATURE", 0.7),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
