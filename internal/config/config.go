// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/floatgeo/api/schemas"
)

// EnvPrefix is the prefix of every environment override (FLOATGEO_TRACKER_INTERVAL).
const EnvPrefix = "FLOATGEO"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Geometry() GeometryConfig
	Tracker() TrackerConfig
	Store() StoreConfig
	Snapshot() SnapshotConfig

	// Setters for values that CLI flags override.
	SetBrowserHeadless(bool)
	SetGeometryStrategy(string)
	SetTrackerInterval(time.Duration)
	SetSnapshotDir(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	GeometryCfg GeometryConfig `mapstructure:"geometry" yaml:"geometry"`
	TrackerCfg  TrackerConfig  `mapstructure:"tracker" yaml:"tracker"`
	StoreCfg    StoreConfig    `mapstructure:"store" yaml:"store"`
	SnapshotCfg SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Geometry() GeometryConfig { return c.GeometryCfg }
func (c *Config) Tracker() TrackerConfig   { return c.TrackerCfg }
func (c *Config) Store() StoreConfig       { return c.StoreCfg }
func (c *Config) Snapshot() SnapshotConfig { return c.SnapshotCfg }

// --- Setters ---

func (c *Config) SetBrowserHeadless(b bool)          { c.BrowserCfg.Headless = b }
func (c *Config) SetGeometryStrategy(s string)       { c.GeometryCfg.Strategy = s }
func (c *Config) SetTrackerInterval(d time.Duration) { c.TrackerCfg.Interval = d }
func (c *Config) SetSnapshotDir(dir string)          { c.SnapshotCfg.Dir = dir }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless Chromium used by capture.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	DeviceScaleFactor float64        `mapstructure:"device_scale_factor" yaml:"device_scale_factor"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// SettleWait is how long capture waits after load for late layout.
	SettleWait time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
}

// ViewportSize returns the configured viewport, defaulting missing axes.
func (b BrowserConfig) ViewportSize() (width, height int) {
	width, height = b.Viewport["width"], b.Viewport["height"]
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 800
	}
	return width, height
}

// GeometryConfig configures rect resolution.
type GeometryConfig struct {
	// Strategy is the default positioning strategy: "absolute" or "fixed".
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
}

// DefaultStrategy parses Strategy.
func (g GeometryConfig) DefaultStrategy() (schemas.Strategy, error) {
	return schemas.ParseStrategy(g.Strategy)
}

// TrackerConfig tunes the update tracker used by watch.
type TrackerConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	// Rate is the maximum number of recomputations per second.
	Rate       float64 `mapstructure:"rate" yaml:"rate"`
	Burst      int     `mapstructure:"burst" yaml:"burst"`
	BufferSize int     `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// StoreConfig configures the Postgres snapshot archive.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// SnapshotConfig controls where captured snapshots are written.
type SnapshotConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Compress bool   `mapstructure:"compress" yaml:"compress"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "floatgeo")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.viewport", map[string]int{"width": 1280, "height": 800})
	v.SetDefault("browser.device_scale_factor", 1.0)
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.settle_wait", "500ms")

	// -- Geometry --
	v.SetDefault("geometry.strategy", string(schemas.StrategyAbsolute))

	// -- Tracker --
	v.SetDefault("tracker.interval", "1s")
	v.SetDefault("tracker.rate", 4.0)
	v.SetDefault("tracker.burst", 1)
	v.SetDefault("tracker.buffer_size", 8)

	// -- Store --
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.dsn", "")

	// -- Snapshot --
	v.SetDefault("snapshot.dir", "~/.floatgeo/snapshots")
	v.SetDefault("snapshot.compress", true)
}

// BindEnv wires the FLOATGEO_ environment overrides into v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The archive also honors the conventional libpq variable.
	_ = v.BindEnv("store.dsn", EnvPrefix+"_STORE_DSN", "DATABASE_URL")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	BindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	dir, err := homedir.Expand(cfg.SnapshotCfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand snapshot.dir: %w", err)
	}
	cfg.SnapshotCfg.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if _, err := c.GeometryCfg.DefaultStrategy(); err != nil {
		return fmt.Errorf("geometry.strategy: %w", err)
	}
	if c.BrowserCfg.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.BrowserCfg.SettleWait < 0 {
		return fmt.Errorf("browser.settle_wait must not be negative")
	}
	if c.BrowserCfg.DeviceScaleFactor < 0 {
		return fmt.Errorf("browser.device_scale_factor must not be negative")
	}
	if err := c.TrackerCfg.Validate(); err != nil {
		return fmt.Errorf("tracker configuration invalid: %w", err)
	}
	if c.StoreCfg.Enabled && c.StoreCfg.DSN == "" {
		return fmt.Errorf("store.dsn is required when store.enabled is true")
	}
	return nil
}

// Validate checks the TrackerConfig settings.
func (t *TrackerConfig) Validate() error {
	if t.Interval <= 0 {
		return fmt.Errorf("interval must be a positive duration")
	}
	if t.Rate <= 0 {
		return fmt.Errorf("rate must be greater than 0")
	}
	if t.Burst < 1 {
		return fmt.Errorf("burst must be at least 1")
	}
	if t.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be at least 1")
	}
	return nil
}
