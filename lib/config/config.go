package config

import (
	"os"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"
)

type Config struct {
	// Target resolution. LoadRepo, when set, is the full
	// host/namespace/repository and overrides QuayHost/QuayOrg/RepoPrefix.
	LoadRepo   string
	QuayHost   string
	QuayOrg    string
	RepoPrefix string

	// Inclusive tag range cycled round-robin by the workers.
	TagStart int
	TagEnd   int

	// Load shape. TargetHits is the global operation count (0 = unbounded),
	// Concurrency the worker count, Rate the inter-iteration delay in seconds.
	TargetHits  int64
	Concurrency int
	Rate        float64

	// Engine forces a specific container engine binary. Empty means
	// auto-detect (podman preferred, then docker).
	Engine string

	// Synthetic image shape used by push-load builds and the seeder.
	LayerCount int
	LayerSize  datasize.ByteSize
	SeedCount  int

	// Insecure allows plain-HTTP or self-signed registries for the
	// in-process registry operations (preflight, seed).
	Insecure bool

	ProfilePath string
	StatusAddr  string
	LogLevel    string
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	cfg := &Config{
		LoadRepo:    getEnv("LOAD_REPO", ""),
		QuayHost:    getEnv("QUAY_HOST", "quay.io"),
		QuayOrg:     getEnv("QUAY_ORG", "test"),
		RepoPrefix:  getEnv("PULL_REPO_PREFIX", "load"),
		TagStart:    getEnvInt("START", 1),
		TagEnd:      getEnvInt("END", 1),
		TargetHits:  getEnvInt64("TARGET_HIT_SIZE", 0),
		Concurrency: getEnvInt("CONCURRENCY", 1),
		Rate:        getEnvFloat("RATE", 0),
		Engine:      getEnv("CONTAINER_ENGINE", ""),
		LayerCount:  getEnvInt("LAYER_COUNT", 4),
		LayerSize:   getEnvSize("LAYER_SIZE", 1*datasize.MB),
		SeedCount:   getEnvInt("SEED_COUNT", 0),
		Insecure:    getEnvBool("INSECURE", false),
		ProfilePath: getEnv("LOAD_PROFILE", ""),
		StatusAddr:  getEnv("STATUS_ADDR", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Delay returns the inter-iteration delay as a duration.
func (c *Config) Delay() time.Duration {
	if c.Rate <= 0 {
		return 0
	}
	return time.Duration(c.Rate * float64(time.Second))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvSize(key string, defaultValue datasize.ByteSize) datasize.ByteSize {
	if value := os.Getenv(key); value != "" {
		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(value)); err == nil {
			return size
		}
	}
	return defaultValue
}
