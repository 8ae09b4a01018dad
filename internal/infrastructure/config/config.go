// Package config provides configuration management for the application.
// It follows the 12-Factor App methodology by loading configuration
// from environment variables and supporting external configuration files.
//
// 12-Factor App Compliance:
//   - III. Config: Store config in the environment
//   - Configuration is loaded from environment variables (prefix DESK_)
//   - An optional config.yaml only overrides the built-in defaults
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. DESK_SERVER_PORT.
const EnvPrefix = "DESK"

// Config holds all application configuration.
// All fields are populated from environment variables or config files.
type Config struct {
	// App contains application-level configuration
	App AppConfig `mapstructure:"app"`

	// Server contains HTTP server configuration
	Server ServerConfig `mapstructure:"server"`

	// Log contains logger configuration
	Log LogConfig `mapstructure:"log"`

	// Geometry tunes panel derivation
	Geometry GeometryConfig `mapstructure:"geometry"`

	// Desk describes the virtual desk and where new monitors appear
	Desk DeskConfig `mapstructure:"desk"`

	// Render configures the label texture and layout drawing
	Render RenderConfig `mapstructure:"render"`

	// RateLimit configures the per-client request limiter
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// AppConfig contains application-level configuration.
type AppConfig struct {
	// Name of the application
	Name string `mapstructure:"name"`

	// Environment the application is running in (e.g., development, staging, production)
	Environment string `mapstructure:"environment"`

	// Version of the application
	Version string `mapstructure:"version"`

	// Debug mode flag
	Debug bool `mapstructure:"debug"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address
	Host string `mapstructure:"host"`

	// Port is the server port
	Port int `mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request, including the body
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// RequestTimeout bounds the handling of a single request
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// ShutdownTimeout is the maximum duration for graceful server shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxRequestSize is the maximum allowed request body size
	MaxRequestSize int64 `mapstructure:"max_request_size"`

	// CORSAllowedOrigins is a list of allowed origins for CORS
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger configuration.
type LogConfig struct {
	// Level is the minimum level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Format is json or console
	Format string `mapstructure:"format"`
}

// GeometryConfig tunes panel derivation. Lengths are scene units.
type GeometryConfig struct {
	// UnitScale converts one inch of diagonal into scene units
	UnitScale float64 `mapstructure:"unit_scale"`

	// BodyThickness is the depth of the housing behind the screen
	BodyThickness float64 `mapstructure:"body_thickness"`

	// ScreenGap separates a flat screen from its housing
	ScreenGap float64 `mapstructure:"screen_gap"`
}

// DeskConfig describes the desk surface and monitor spawning.
type DeskConfig struct {
	// TopHeight is the Y of the desk surface
	TopHeight float64 `mapstructure:"top_height"`

	// StandClearance is the gap between desk and the bottom edge of a panel
	StandClearance float64 `mapstructure:"stand_clearance"`

	// SpawnDistance is how far in front of the viewer new monitors appear
	SpawnDistance float64 `mapstructure:"spawn_distance"`

	// SpawnSpacing separates consecutive spawned monitors sideways
	SpawnSpacing float64 `mapstructure:"spawn_spacing"`

	// Width, Depth and Front size the desk in the layout drawing
	Width float64 `mapstructure:"width"`
	Depth float64 `mapstructure:"depth"`
	Front float64 `mapstructure:"front"`

	// MaxMonitors caps the number of monitors on the desk; 0 means unlimited
	MaxMonitors int `mapstructure:"max_monitors"`
}

// RenderConfig configures the image adapters.
type RenderConfig struct {
	// LabelWidth is the label texture width in pixels
	LabelWidth int `mapstructure:"label_width"`

	// LabelFontSize is the monitor name size in points
	LabelFontSize float64 `mapstructure:"label_font_size"`

	// LayoutScale converts scene units to SVG pixels
	LayoutScale float64 `mapstructure:"layout_scale"`
}

// RateLimitConfig configures the token bucket limiter.
type RateLimitConfig struct {
	// Enabled toggles the limiter
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained rate per client
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// Burst is the bucket size
	Burst int `mapstructure:"burst"`
}

// Load loads the configuration from environment variables and config files.
// It follows this precedence (highest to lowest):
//  1. Environment variables
//  2. Config file (if found)
//  3. Default values
//
// Returns:
//   - *Config: The loaded configuration
//   - error: Any error encountered during loading
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches
// ".", "./configs" and "/etc/desk-planner" for config.yaml.
//
// Parameters:
//   - path: config file to read, or "" to search
//
// Returns:
//   - *Config: The loaded configuration
//   - error: Any error encountered during loading or validation
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/desk-planner")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine when searching; an explicit path must exist.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind env vars: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every setting the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Geometry.UnitScale <= 0 {
		errs = append(errs, errors.New("geometry.unit_scale must be positive"))
	}
	if c.Geometry.BodyThickness <= 0 {
		errs = append(errs, errors.New("geometry.body_thickness must be positive"))
	}
	if c.Geometry.ScreenGap < 0 {
		errs = append(errs, errors.New("geometry.screen_gap must not be negative"))
	}
	if c.Desk.MaxMonitors < 0 {
		errs = append(errs, errors.New("desk.max_monitors must not be negative"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate_limit needs a positive rate and burst"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "desk-planner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_request_size", 1<<20) // 1MB
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Geometry defaults (millimetres)
	v.SetDefault("geometry.unit_scale", 25.4)
	v.SetDefault("geometry.body_thickness", 15.0)
	v.SetDefault("geometry.screen_gap", 1.0)

	// Desk defaults
	v.SetDefault("desk.top_height", 750.0)
	v.SetDefault("desk.stand_clearance", 100.0)
	v.SetDefault("desk.spawn_distance", 700.0)
	v.SetDefault("desk.spawn_spacing", 650.0)
	v.SetDefault("desk.width", 1600.0)
	v.SetDefault("desk.depth", 800.0)
	v.SetDefault("desk.front", -250.0)
	v.SetDefault("desk.max_monitors", 16)

	// Render defaults
	v.SetDefault("render.label_width", 1024)
	v.SetDefault("render.label_font_size", 72.0)
	v.SetDefault("render.layout_scale", 0.4)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
}

// bindEnvVars binds environment variables that do not follow the prefix rule.
func bindEnvVars(v *viper.Viper) error {
	return errors.Join(
		v.BindEnv("app.environment", EnvPrefix+"_ENVIRONMENT", EnvPrefix+"_APP_ENVIRONMENT"),
		v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"), // Common convention
	)
}
