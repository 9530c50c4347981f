package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Generation  GenerationConfig `mapstructure:"generation"`
	Assembly    AssemblyConfig   `mapstructure:"assembly"`
	Processing  ProcessingConfig `mapstructure:"processing"`
	Locks       LocksConfig      `mapstructure:"locks"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Driver                string        `mapstructure:"driver"`
	Path                  string        `mapstructure:"path"`
	DSN                   string        `mapstructure:"dsn"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	Verbose               bool          `mapstructure:"verbose"`
}

// StorageConfig selects and configures the asset store
type StorageConfig struct {
	Backend       string      `mapstructure:"backend"`
	Root          string      `mapstructure:"root"`
	TempDir       string      `mapstructure:"temp_dir"`
	PublicBaseURL string      `mapstructure:"public_base_url"`
	MinIO         MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig contains object storage credentials
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PublicURL     string        `mapstructure:"public_url"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// GenerationConfig configures the text and image generation backends
type GenerationConfig struct {
	Provider         string        `mapstructure:"provider"`
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	TextModel        string        `mapstructure:"text_model"`
	ImageModel       string        `mapstructure:"image_model"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
	StepTimeout      time.Duration `mapstructure:"step_timeout"`
	ImageTimeout     time.Duration `mapstructure:"image_timeout"`
	ImageConcurrency int           `mapstructure:"image_concurrency"`
}

// AssemblyConfig configures final video rendering
type AssemblyConfig struct {
	FFmpegPath      string        `mapstructure:"ffmpeg_path"`
	FFprobePath     string        `mapstructure:"ffprobe_path"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"`
	MaxDuration     time.Duration `mapstructure:"max_duration"`
	FPS             int           `mapstructure:"fps"`
	Width           int           `mapstructure:"width"`
	Height          int           `mapstructure:"height"`
	MusicEnabled    bool          `mapstructure:"music_enabled"`
}

// ProcessingConfig contains background worker settings
type ProcessingConfig struct {
	Workers       int           `mapstructure:"workers"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	JobRetention  time.Duration `mapstructure:"job_retention"`
	CleanupPeriod time.Duration `mapstructure:"cleanup_period"`
}

// LocksConfig selects the per-track lock backend
type LocksConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}
