package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"cmxcli/internal/risk"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Risk      RiskConfig      `yaml:"risk" envconfig:"RISK"`
	Schedule  ScheduleConfig  `yaml:"schedule" envconfig:"SCHEDULE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ImportDir  string `yaml:"import_dir" envconfig:"IMPORT_DIR" default:"imports"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
	WebDir     string `yaml:"web_dir" envconfig:"WEB_DIR" default:"web"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// RiskConfig contains the scoring engine parameters. Defaults match the
// published methodology; overriding them changes every reported score.
type RiskConfig struct {
	Weights    WeightsConfig    `yaml:"weights" envconfig:"WEIGHTS"`
	Thresholds ThresholdsConfig `yaml:"thresholds" envconfig:"THRESHOLDS"`
}

// WeightsConfig contains the per-factor aggregation weights
type WeightsConfig struct {
	Coverage         float64 `yaml:"coverage" envconfig:"COVERAGE" default:"0.25"`
	PaperPhysical    float64 `yaml:"paper_physical" envconfig:"PAPER_PHYSICAL" default:"0.25"`
	InventoryTrend   float64 `yaml:"inventory_trend" envconfig:"INVENTORY_TREND" default:"0.20"`
	DeliveryVelocity float64 `yaml:"delivery_velocity" envconfig:"DELIVERY_VELOCITY" default:"0.15"`
	MarketActivity   float64 `yaml:"market_activity" envconfig:"MARKET_ACTIVITY" default:"0.15"`
}

// ThresholdsConfig contains the level classification boundaries
type ThresholdsConfig struct {
	Low      int `yaml:"low" envconfig:"LOW" default:"25"`
	Moderate int `yaml:"moderate" envconfig:"MODERATE" default:"50"`
	High     int `yaml:"high" envconfig:"HIGH" default:"75"`
}

// ScheduleConfig contains the background refresh schedule
type ScheduleConfig struct {
	// RefreshSpec is a cron expression; default is weekday evenings after
	// exchange reports publish.
	RefreshSpec   string `yaml:"refresh_spec" envconfig:"REFRESH_SPEC" default:"0 18 * * 1-5"`
	ImportOnStart bool   `yaml:"import_on_start" envconfig:"IMPORT_ON_START" default:"true"`
}

// EngineConfig converts the configured parameters into an engine configuration
func (r RiskConfig) EngineConfig() risk.Config {
	return risk.Config{
		Weights: risk.Weights{
			Coverage:         r.Weights.Coverage,
			PaperPhysical:    r.Weights.PaperPhysical,
			InventoryTrend:   r.Weights.InventoryTrend,
			DeliveryVelocity: r.Weights.DeliveryVelocity,
			MarketActivity:   r.Weights.MarketActivity,
		},
		Thresholds: risk.LevelThresholds{
			Low:      r.Thresholds.Low,
			Moderate: r.Thresholds.Moderate,
			High:     r.Thresholds.High,
		},
	}
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CMX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
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

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Paths.DataDir == "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if envConfig.Paths.ImportDir == "" {
		envConfig.Paths.ImportDir = fileConfig.Paths.ImportDir
	}
	if envConfig.Paths.ReportsDir == "" {
		envConfig.Paths.ReportsDir = fileConfig.Paths.ReportsDir
	}
	if envConfig.Schedule.RefreshSpec == "" {
		envConfig.Schedule.RefreshSpec = fileConfig.Schedule.RefreshSpec
	}
	if fileConfig.Risk.Weights != (WeightsConfig{}) && envConfig.Risk.Weights == defaultWeights() {
		envConfig.Risk.Weights = fileConfig.Risk.Weights
	}
	if fileConfig.Risk.Thresholds != (ThresholdsConfig{}) && envConfig.Risk.Thresholds == defaultThresholds() {
		envConfig.Risk.Thresholds = fileConfig.Risk.Thresholds
	}

	return envConfig
}

func defaultWeights() WeightsConfig {
	return WeightsConfig{
		Coverage:         0.25,
		PaperPhysical:    0.25,
		InventoryTrend:   0.20,
		DeliveryVelocity: 0.15,
		MarketActivity:   0.15,
	}
}

func defaultThresholds() ThresholdsConfig {
	return ThresholdsConfig{Low: 25, Moderate: 50, High: 75}
}

// EnsureDirectories creates the configured directories if missing
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ImportDir, c.Paths.ReportsDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	return resolvePath(c.Paths.DataDir)
}

// GetImportDir returns the resolved import directory path
func (c *Config) GetImportDir() string {
	return resolvePath(c.Paths.ImportDir)
}

// GetReportsDir returns the resolved reports directory path
func (c *Config) GetReportsDir() string {
	return resolvePath(c.Paths.ReportsDir)
}

// GetWebDir returns the resolved web directory path
func (c *Config) GetWebDir() string {
	return resolvePath(c.Paths.WebDir)
}

func resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// validate validates the configuration
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

	if !c.Risk.EngineConfig().Weights.IsValid() {
		return fmt.Errorf("risk weights must sum to 1.0, got %.4f", c.Risk.EngineConfig().Weights.Sum())
	}
	if !c.Risk.EngineConfig().Thresholds.IsValid() {
		return fmt.Errorf("risk thresholds must be strictly increasing: %+v", c.Risk.Thresholds)
	}

	if c.Logging.Format != "json" {
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

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
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

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
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
		Paths: PathsConfig{
			DataDir:    "data",
			ImportDir:  "imports",
			ReportsDir: "reports",
			WebDir:     "web",
			LogsDir:    "logs",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Risk: RiskConfig{
			Weights:    defaultWeights(),
			Thresholds: defaultThresholds(),
		},
		Schedule: ScheduleConfig{
			RefreshSpec:   "0 18 * * 1-5",
			ImportOnStart: true,
		},
	}
}
