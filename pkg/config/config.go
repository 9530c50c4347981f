package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PARABLE_SERVER_PORT.
const EnvPrefix = "PARABLE"

const defaultConfigFile = "./config/settings.yaml"

var (
	once       sync.Once
	initErr    error
	configFile = defaultConfigFile
)

// SetConfigFile overrides the settings file location. It must be called before Init.
func SetConfigFile(path string) {
	if path != "" {
		configFile = path
	}
}

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		initErr = Load()
	})
	return initErr
}

// Load reads .env, defaults, the settings file and environment overrides into
// the global viper instance and validates the result.
func Load() error {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	path := filepath.Clean(configFile)
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	switch viper.GetString("database.driver") {
	case "sqlite":
		if viper.GetString("database.path") == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "mysql", "postgres":
		if viper.GetString("database.dsn") == "" {
			return fmt.Errorf("database.dsn is required for %s", viper.GetString("database.driver"))
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", viper.GetString("database.driver"))
	}

	switch viper.GetString("storage.backend") {
	case "local":
	case "minio":
		if viper.GetString("storage.minio.endpoint") == "" || viper.GetString("storage.minio.bucket") == "" {
			return fmt.Errorf("storage.minio.endpoint and storage.minio.bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %q", viper.GetString("storage.backend"))
	}

	switch viper.GetString("generation.provider") {
	case "stub":
	case "gemini":
		if viper.GetString("generation.api_key") == "" && isProduction() {
			return fmt.Errorf("generation.api_key is required in production")
		}
	default:
		return fmt.Errorf("unsupported generation provider: %q", viper.GetString("generation.provider"))
	}

	switch viper.GetString("locks.backend") {
	case "memory":
	case "redis":
		if viper.GetString("locks.redis_addr") == "" {
			return fmt.Errorf("locks.redis_addr is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unsupported lock backend: %q", viper.GetString("locks.backend"))
	}

	// Auto-correct invalid worker settings
	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 2)
	}
	if viper.GetInt("generation.image_concurrency") <= 0 {
		viper.Set("generation.image_concurrency", 1)
	}

	return nil
}

func isProduction() bool {
	env := viper.GetString("environment")
	return env == "production" || env == "prod"
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Assembly.MaxDuration < 0 {
		return fmt.Errorf("assembly.max_duration must not be negative")
	}
	if c.Processing.Workers <= 0 {
		c.Processing.Workers = 2
	}
	if c.Generation.ImageConcurrency <= 0 {
		c.Generation.ImageConcurrency = 1
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 60*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.shutdown_timeout", 15*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.max_upload_mb", 512)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	viper.SetDefault("server.rate_limit", 20.0)
	viper.SetDefault("server.rate_burst", 40)

	// Database defaults
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "./data/parables.db")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.max_idle_connections", 5)
	viper.SetDefault("database.connection_max_lifetime", 30*time.Minute)
	viper.SetDefault("database.verbose", false)

	// Storage defaults
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.root", "./data/assets")
	viper.SetDefault("storage.temp_dir", "./data/tmp")
	viper.SetDefault("storage.public_base_url", "/assets")
	viper.SetDefault("storage.minio.endpoint", "")
	viper.SetDefault("storage.minio.access_key", "")
	viper.SetDefault("storage.minio.secret_key", "")
	viper.SetDefault("storage.minio.bucket", "parables")
	viper.SetDefault("storage.minio.region", "us-east-1")
	viper.SetDefault("storage.minio.use_ssl", false)
	viper.SetDefault("storage.minio.public_url", "")
	viper.SetDefault("storage.minio.presign_expiry", 24*time.Hour)

	// Generation defaults
	viper.SetDefault("generation.provider", "stub")
	viper.SetDefault("generation.api_key", "")
	viper.SetDefault("generation.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("generation.text_model", "gemini-2.0-flash")
	viper.SetDefault("generation.image_model", "gemini-2.0-flash-exp")
	viper.SetDefault("generation.http_timeout", 2*time.Minute)
	viper.SetDefault("generation.step_timeout", 3*time.Minute)
	viper.SetDefault("generation.image_timeout", 2*time.Minute)
	viper.SetDefault("generation.image_concurrency", 2)

	// Assembly defaults
	viper.SetDefault("assembly.ffmpeg_path", "ffmpeg")
	viper.SetDefault("assembly.ffprobe_path", "ffprobe")
	viper.SetDefault("assembly.timeout", 10*time.Minute)
	viper.SetDefault("assembly.metadata_timeout", 30*time.Second)
	viper.SetDefault("assembly.max_duration", 60*time.Second)
	viper.SetDefault("assembly.fps", 30)
	viper.SetDefault("assembly.width", 1080)
	viper.SetDefault("assembly.height", 1920)
	viper.SetDefault("assembly.music_enabled", true)

	// Processing defaults
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.poll_interval", 2*time.Second)
	viper.SetDefault("processing.job_retention", 7*24*time.Hour)
	viper.SetDefault("processing.cleanup_period", 1*time.Hour)

	// Lock defaults
	viper.SetDefault("locks.backend", "memory")
	viper.SetDefault("locks.redis_addr", "")
	viper.SetDefault("locks.redis_password", "")
	viper.SetDefault("locks.redis_db", 0)
	viper.SetDefault("locks.ttl", 45*time.Minute)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.json", false)
}
