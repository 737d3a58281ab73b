package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

type AppConfig struct {
	Env                Environment
	LogLevel           string
	ServerPort         string
	RawBodyLog         bool
	HttpTimeoutSeconds int
}

type VisionConfig struct {
	URL       string
	Token     string
	Model     string
	MaxTokens int
}

type EmbeddingConfig struct {
	Host         string
	Model        string
	CacheEnabled bool
	CacheSize    int
}

type IndexConfig struct {
	Host   string
	APIKey string
}

type SourceConfig struct {
	MaxImageMB int
}

type BucketConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Name      string
}

type PipelineConfig struct {
	TopK          int
	MaxConcurrent int
}

type Config struct {
	App       AppConfig
	Vision    VisionConfig
	Embedding EmbeddingConfig
	Index     IndexConfig
	Source    SourceConfig
	Bucket    BucketConfig
	Pipeline  PipelineConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	appEnv := getEnv("APP_ENV", "development")
	env := parseEnvironment(appEnv)

	logLevel := getLogLevel(env)

	return &Config{
		App: AppConfig{
			Env:                env,
			LogLevel:           logLevel,
			ServerPort:         getEnv("APP_SERVER_PORT", "8080"),
			RawBodyLog:         getEnvBool("APP_RAW_BODY_LOG", false),
			HttpTimeoutSeconds: getEnvInt("APP_HTTP_TIMEOUT_SECONDS", 30),
		},
		Vision: VisionConfig{
			URL:       getEnv("VISION_URL", "https://api.openai.com/v1"),
			Token:     getEnv("VISION_TOKEN", ""),
			Model:     getEnv("VISION_MODEL", "gpt-4o"),
			MaxTokens: getEnvInt("VISION_MAX_TOKENS", 300),
		},
		Embedding: EmbeddingConfig{
			Host:         getEnv("EMBEDDING_HOST", "http://localhost:11434"),
			Model:        getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			CacheEnabled: getEnvBool("EMBEDDING_CACHE", false),
			CacheSize:    getEnvInt("EMBEDDING_CACHE_SIZE", 256),
		},
		Index: IndexConfig{
			Host:   getEnv("INDEX_HOST", ""),
			APIKey: getEnv("INDEX_API_KEY", ""),
		},
		Source: SourceConfig{
			MaxImageMB: getEnvInt("SOURCE_MAX_IMAGE_MB", 20),
		},
		Bucket: BucketConfig{
			Endpoint:  getEnv("BUCKET_ENDPOINT", ""),
			AccessKey: getEnv("BUCKET_ACCESS_KEY", ""),
			SecretKey: getEnv("BUCKET_SECRET_KEY", ""),
			UseSSL:    getEnvBool("BUCKET_USE_SSL", true),
			Name:      getEnv("BUCKET_NAME", ""),
		},
		Pipeline: PipelineConfig{
			TopK:          getEnvInt("PIPELINE_TOP_K", 5),
			MaxConcurrent: getEnvInt("PIPELINE_MAX_CONCURRENT", defaultMaxConcurrent()),
		},
	}, nil
}

func (c *Config) Validate() error {
	if c.Vision.Token == "" {
		return fmt.Errorf("VISION_TOKEN is required")
	}
	if c.Index.Host == "" || c.Index.APIKey == "" {
		return fmt.Errorf("INDEX_HOST and INDEX_API_KEY are required")
	}
	if c.Pipeline.TopK < 1 {
		return fmt.Errorf("PIPELINE_TOP_K must be at least 1")
	}
	if c.Source.MaxImageMB < 1 {
		return fmt.Errorf("SOURCE_MAX_IMAGE_MB must be at least 1")
	}
	if c.Bucket.Enabled() && (c.Bucket.AccessKey == "" || c.Bucket.SecretKey == "" || c.Bucket.Name == "") {
		return fmt.Errorf("BUCKET_ACCESS_KEY, BUCKET_SECRET_KEY and BUCKET_NAME are required when BUCKET_ENDPOINT is set")
	}
	return nil
}

// Enabled reports whether a bucket backend was configured at all.
func (b BucketConfig) Enabled() bool {
	return b.Endpoint != ""
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))

	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func defaultMaxConcurrent() int {
	// pipeline stages are network bound, not CPU bound
	return min(runtime.NumCPU()*2, 8)
}

func getLogLevel(env Environment) string {
	if env == Production {
		return getEnv("APP_LOG_LEVEL", "info")
	}

	return getEnv("APP_LOG_LEVEL", "debug")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}

