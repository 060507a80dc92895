package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Registry RegistryConfig `mapstructure:"registry"`
	Stream   StreamConfig   `mapstructure:"stream"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production test"`
	PluginID    string `mapstructure:"plugin_id" validate:"required"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host            string        `mapstructure:"host"`
	MountPath       string        `mapstructure:"mount_path" validate:"startswith=/"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig locates the persisted documents.
// Relative file names are resolved against ConfigPath.
type StorageConfig struct {
	ConfigPath   string `mapstructure:"config_path" validate:"required"`
	GaugesFile   string `mapstructure:"gauges_file" validate:"required"`
	DefaultsFile string `mapstructure:"defaults_file" validate:"required"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format" validate:"oneof=json console"`
	Output   string `mapstructure:"output" validate:"oneof=stdout stderr file"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	BodyLimit          string        `mapstructure:"body_limit"`
}

// JWTConfig holds bearer token configuration for mutation routes
type JWTConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Secret    string        `mapstructure:"secret"`
	Issuer    string        `mapstructure:"issuer"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RegistryConfig holds path/metadata registry configuration
type RegistryConfig struct {
	SeedFile string `mapstructure:"seed_file"`
	Watch    bool   `mapstructure:"watch"`
}

// StreamConfig holds delta stream configuration
type StreamConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	QueueSize int  `mapstructure:"queue_size" validate:"min=1"`
}

// Load loads configuration from .env, an optional config file and the environment.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	if configFile == "" {
		configFile = v.GetString("config_file")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "WilhelmSK")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.plugin_id", "wilhelmsk-plugin")

	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.mount_path", "/plugins/wilhelmsk-plugin")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Storage defaults
	v.SetDefault("storage.config_path", ".signalk")
	v.SetDefault("storage.gauges_file", "plugin-config-data/wilhelmsk-data.json")
	v.SetDefault("storage.defaults_file", "settings/defaults.json")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")
	v.SetDefault("security.body_limit", "1M")

	// JWT defaults
	v.SetDefault("jwt.enabled", false)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "wilhelmsk")
	v.SetDefault("jwt.expires_in", "720h")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Registry defaults
	v.SetDefault("registry.seed_file", "")
	v.SetDefault("registry.watch", true)

	// Stream defaults
	v.SetDefault("stream.enabled", true)
	v.SetDefault("stream.queue_size", 64)
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("config_file", "WSK_CONFIG")

	// App
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.version", "APP_VERSION")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("app.plugin_id", "WSK_PLUGIN_ID")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.mount_path", "SERVER_MOUNT_PATH")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	v.BindEnv("server.request_timeout", "SERVER_REQUEST_TIMEOUT")
	v.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Storage
	v.BindEnv("storage.config_path", "SIGNALK_NODE_CONFIG_DIR")
	v.BindEnv("storage.gauges_file", "WSK_GAUGES_FILE")
	v.BindEnv("storage.defaults_file", "WSK_DEFAULTS_FILE")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")
	v.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	v.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")
	v.BindEnv("security.body_limit", "BODY_LIMIT")

	// JWT
	v.BindEnv("jwt.enabled", "JWT_ENABLED")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.issuer", "JWT_ISSUER")
	v.BindEnv("jwt.expires_in", "JWT_EXPIRES_IN")

	// Metrics
	v.BindEnv("metrics.enabled", "ENABLE_METRICS")
	v.BindEnv("metrics.path", "METRICS_PATH")

	// Registry
	v.BindEnv("registry.seed_file", "WSK_REGISTRY_SEED")
	v.BindEnv("registry.watch", "WSK_REGISTRY_WATCH")

	// Stream
	v.BindEnv("stream.enabled", "WSK_STREAM_ENABLED")
	v.BindEnv("stream.queue_size", "WSK_STREAM_QUEUE_SIZE")
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if cfg.JWT.Enabled && len(cfg.JWT.Secret) < 16 {
		return fmt.Errorf("JWT secret must be at least 16 characters when jwt is enabled")
	}

	if cfg.Logger.Output == "file" && cfg.Logger.Filename == "" {
		return fmt.Errorf("logger filename is required when output is file")
	}

	if strings.HasSuffix(cfg.Server.MountPath, "/") && cfg.Server.MountPath != "/" {
		return fmt.Errorf("server mount path must not end with a slash")
	}

	return nil
}

// GaugesPath returns the absolute location of the gauge document
func (cfg *StorageConfig) GaugesPath() string {
	return cfg.resolve(cfg.GaugesFile)
}

// DefaultsPath returns the absolute location of the defaults document
func (cfg *StorageConfig) DefaultsPath() string {
	return cfg.resolve(cfg.DefaultsFile)
}

func (cfg *StorageConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(cfg.ConfigPath, name)
}

// Addr returns the listen address
func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
