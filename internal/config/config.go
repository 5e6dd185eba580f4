package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"optscan/internal/dataprocessing"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Ingestion IngestionConfig `yaml:"ingestion" envconfig:"INGESTION"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MergeTimeout    time.Duration `yaml:"merge_timeout" envconfig:"MERGE_TIMEOUT" default:"30m"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// IngestionConfig parameterizes the bhav-copy merge pipeline.
type IngestionConfig struct {
	// SourceDir holds the dated fo* archives and folders. Empty means the
	// source directory under the resolved data dir.
	SourceDir string `yaml:"source_dir" envconfig:"SOURCE_DIR"`
	// MergedFile is the merged table location. Empty means the default file
	// under the resolved reports dir.
	MergedFile string `yaml:"merged_file" envconfig:"MERGED_FILE"`

	// StaleAfter bounds the merged table's age before a serving process
	// rebuilds it on demand.
	StaleAfter   time.Duration `yaml:"stale_after" envconfig:"STALE_AFTER" default:"24h"`
	StrikeFilter string        `yaml:"strike_filter" envconfig:"STRIKE_FILTER" default:"none"`
	MinColumns   int           `yaml:"min_columns" envconfig:"MIN_COLUMNS" default:"14"`
	CloseFloor   float64       `yaml:"close_floor" envconfig:"CLOSE_FLOOR" default:"0.05"`
}

// WebSocketConfig contains WebSocket configuration.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and config file.
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("OPTSCAN", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs merges file config into env config; env values win where set.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Ingestion.SourceDir == "" {
		envConfig.Ingestion.SourceDir = fileConfig.Ingestion.SourceDir
	}
	if envConfig.Ingestion.MergedFile == "" {
		envConfig.Ingestion.MergedFile = fileConfig.Ingestion.MergedFile
	}
	if envConfig.Ingestion.StrikeFilter == "" {
		envConfig.Ingestion.StrikeFilter = fileConfig.Ingestion.StrikeFilter
	}
	if envConfig.Ingestion.StaleAfter == 0 {
		envConfig.Ingestion.StaleAfter = fileConfig.Ingestion.StaleAfter
	}
	return envConfig
}

// resolvePaths fills the ingestion paths from the standard layout when they
// were not configured explicitly, and creates the directories.
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("get paths: %w", err)
	}

	if c.Ingestion.SourceDir == "" {
		c.Ingestion.SourceDir = paths.SourceDir
	}
	if c.Ingestion.MergedFile == "" {
		c.Ingestion.MergedFile = paths.MergedCSV
	}

	return paths.EnsureDirectories()
}

// PipelineConfig converts the ingestion section into pipeline parameters.
func (c *Config) PipelineConfig() dataprocessing.PipelineConfig {
	pc := dataprocessing.DefaultPipelineConfig(c.Ingestion.SourceDir, c.Ingestion.MergedFile)
	pc.MinColumns = c.Ingestion.MinColumns
	pc.CloseFloor = c.Ingestion.CloseFloor
	pc.StrikeFilter = dataprocessing.StrikeFilterMode(c.Ingestion.StrikeFilter)
	return pc
}

// validate validates the configuration.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}
	if !dataprocessing.StrikeFilterMode(c.Ingestion.StrikeFilter).Valid() {
		return fmt.Errorf("invalid strike filter mode: %q", c.Ingestion.StrikeFilter)
	}
	if c.Ingestion.MinColumns <= 0 {
		return fmt.Errorf("minimum column count must be positive")
	}
	if c.Ingestion.StaleAfter <= 0 {
		return fmt.Errorf("stale-after duration must be positive")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// findConfigFile returns the path to the config file, or empty when only
// environment variables apply.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			MergeTimeout:    30 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Ingestion: IngestionConfig{
			StaleAfter:   24 * time.Hour,
			StrikeFilter: string(dataprocessing.FilterNone),
			MinColumns:   14,
			CloseFloor:   0.05,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
