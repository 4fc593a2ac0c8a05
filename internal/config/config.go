package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config represents the complete panel configuration
type Config struct {
	Env       string          `yaml:"env"`       // development, production
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error
	Timezone  string          `yaml:"timezone"`  // IANA name used for ETA, e.g. America/Los_Angeles
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Feed      FeedConfig      `yaml:"feed"`
	Display   DisplayConfig   `yaml:"display"`
	Assets    AssetsConfig    `yaml:"assets"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	HTTP      HTTPConfig      `yaml:"http"`
	Redis     RedisConfig     `yaml:"redis"`
}

// MQTTConfig contains broker settings
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"` // documents arrive on <prefix>/nearest
}

// FeedConfig points at a JSON document to replay instead of, or as well as, MQTT
type FeedConfig struct {
	Path string `yaml:"path"`
}

// DisplayConfig describes the panel
type DisplayConfig struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	Rotation int `yaml:"rotation"` // 0-3, quarter turns applied by the panel driver
}

// AssetSlot bounds one asset kind
type AssetSlot struct {
	MaxBytes  int `yaml:"max_bytes"`
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
}

// AssetsConfig contains asset fetching and caching settings
type AssetsConfig struct {
	Dir         string    `yaml:"dir"` // empty disables persistence
	Logo        AssetSlot `yaml:"logo"`
	Photo       AssetSlot `yaml:"photo"`
	TimeoutS    int       `yaml:"timeout_s"`
	InsecureTLS bool      `yaml:"insecure_tls"`
	CacheTTLS   int       `yaml:"cache_ttl_s"`
	FetchRateHz float64   `yaml:"fetch_rate_hz"`
	FetchBurst  int       `yaml:"fetch_burst"`
}

// SchedulerConfig contains redraw cadence
type SchedulerConfig struct {
	HeartbeatMS int `yaml:"heartbeat_ms"`
}

// HTTPConfig contains the status server settings
type HTTPConfig struct {
	Addr        string  `yaml:"addr"` // empty disables the server
	FrameRateHz float64 `yaml:"frame_rate_hz"`
	FrameBurst  int     `yaml:"frame_burst"`
}

// RedisConfig enables the shared asset blob cache
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Env:      "development",
		LogLevel: "info",
		Timezone: "America/Los_Angeles",
		MQTT: MQTTConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    1883,
			Prefix:  "airtracker",
		},
		Display: DisplayConfig{Width: 320, Height: 240, Rotation: 1},
		Assets: AssetsConfig{
			Dir:         "data/assets",
			Logo:        AssetSlot{MaxBytes: 180 * 1024, MaxWidth: 64, MaxHeight: 64},
			Photo:       AssetSlot{MaxBytes: 220 * 1024, MaxWidth: 80, MaxHeight: 64},
			TimeoutS:    10,
			CacheTTLS:   3600,
			FetchRateHz: 2,
			FetchBurst:  2,
		},
		Scheduler: SchedulerConfig{HeartbeatMS: 1000},
		HTTP:      HTTPConfig{Addr: ":8080", FrameRateHz: 2, FrameBurst: 4},
		Redis:     RedisConfig{Host: "localhost", Port: 6379},
	}
}

// Load reads an optional YAML file over the defaults, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("APP_ENV", &c.Env)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("AIRTRACKER_TZ", &c.Timezone)
	setString("MQTT_HOST", &c.MQTT.Host)
	setString("MQTT_USER", &c.MQTT.Username)
	setString("MQTT_PASS", &c.MQTT.Password)
	setString("MQTT_PREFIX", &c.MQTT.Prefix)
	setString("FEED_PATH", &c.Feed.Path)
	setString("HTTP_ADDR", &c.HTTP.Addr)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	if v, ok := os.LookupEnv("REDIS_HOST"); ok && v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}

	return errors.Join(
		setInt("MQTT_PORT", &c.MQTT.Port),
		setInt("REDIS_PORT", &c.Redis.Port),
	)
}

// Validate checks the configuration for values the panel cannot run with
func Validate(c *Config) error {
	var errs []error

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if !c.MQTT.Enabled && c.Feed.Path == "" {
		errs = append(errs, errors.New("no telemetry source: enable mqtt or set feed.path"))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Host == "" {
			errs = append(errs, errors.New("mqtt.host is required"))
		}
		if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
			errs = append(errs, fmt.Errorf("mqtt.port %d out of range", c.MQTT.Port))
		}
		if c.MQTT.Prefix == "" {
			errs = append(errs, errors.New("mqtt.prefix is required"))
		}
	}
	if c.Display.Width < 320 || c.Display.Height < 240 {
		errs = append(errs, fmt.Errorf("display %dx%d is smaller than the 320x240 layout", c.Display.Width, c.Display.Height))
	}
	if c.Display.Rotation < 0 || c.Display.Rotation > 3 {
		errs = append(errs, fmt.Errorf("display.rotation %d not in 0-3", c.Display.Rotation))
	}
	for name, slot := range map[string]AssetSlot{"logo": c.Assets.Logo, "photo": c.Assets.Photo} {
		if slot.MaxBytes <= 0 || slot.MaxWidth <= 0 || slot.MaxHeight <= 0 {
			errs = append(errs, fmt.Errorf("assets.%s bounds must be positive", name))
		}
	}
	if c.Assets.TimeoutS <= 0 {
		errs = append(errs, errors.New("assets.timeout_s must be positive"))
	}
	if c.Scheduler.HeartbeatMS <= 0 {
		errs = append(errs, errors.New("scheduler.heartbeat_ms must be positive"))
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		errs = append(errs, errors.New("redis.host is required when redis is enabled"))
	}

	return errors.Join(errs...)
}

// Location resolves Timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.Scheduler.HeartbeatMS) * time.Millisecond
}

func (c *Config) AssetTimeout() time.Duration {
	return time.Duration(c.Assets.TimeoutS) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Assets.CacheTTLS) * time.Second
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + strconv.Itoa(r.Port)
}
