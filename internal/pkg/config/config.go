package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Elevation ElevationConfig `mapstructure:"elevation"`
	Peaks     PeaksConfig     `mapstructure:"peaks"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Camera    CameraConfig    `mapstructure:"camera"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// ElevationConfig configures the Open-Elevation client and the batcher.
type ElevationConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	MaxPoints int    `mapstructure:"max_points"`
	DelayMS   int    `mapstructure:"delay_ms"`
	TimeoutS  int    `mapstructure:"timeout"`
}

func (e ElevationConfig) Delay() time.Duration {
	return time.Duration(e.DelayMS) * time.Millisecond
}

func (e ElevationConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutS) * time.Second
}

// PeaksConfig selects where peaks come from. Source is "overpass" or "postgres".
type PeaksConfig struct {
	Source      string  `mapstructure:"source"`
	OverpassURL string  `mapstructure:"overpass_url"`
	Radius      float64 `mapstructure:"radius"`
	MaxRadius   float64 `mapstructure:"max_radius"`
	CacheTTL    int     `mapstructure:"cache_ttl"`
	TimeoutS    int     `mapstructure:"timeout"`
}

func (p PeaksConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutS) * time.Second
}

type EngineConfig struct {
	Strategy       string  `mapstructure:"strategy"`
	EyeHeight      float64 `mapstructure:"eye_height"`
	SegmentLength  float64 `mapstructure:"segment_length"`
	RingBudget     int     `mapstructure:"ring_budget"`
	MaxRingBudget  int     `mapstructure:"max_ring_budget"`
	StopOnDarkRing bool    `mapstructure:"stop_on_dark_ring"`
}

type CameraConfig struct {
	FOV              float64 `mapstructure:"fov"`
	VerticalFOV      float64 `mapstructure:"vertical_fov"`
	OverlapThreshold float64 `mapstructure:"overlap_threshold"`
	Width            float64 `mapstructure:"width"`
	Height           float64 `mapstructure:"height"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "peakview")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "peakview")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "peakview-viewshed")
	v.SetDefault("elevation.base_url", "https://api.open-elevation.com/api/v1")
	v.SetDefault("elevation.max_points", 15000)
	v.SetDefault("elevation.delay_ms", 1000)
	v.SetDefault("elevation.timeout", 60)
	v.SetDefault("peaks.source", "overpass")
	v.SetDefault("peaks.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("peaks.radius", 7000)
	v.SetDefault("peaks.max_radius", 50000)
	v.SetDefault("peaks.cache_ttl", 3600)
	v.SetDefault("peaks.timeout", 30)
	v.SetDefault("engine.strategy", "sightline")
	v.SetDefault("engine.eye_height", 1.6)
	v.SetDefault("engine.segment_length", 500)
	v.SetDefault("engine.ring_budget", 2000)
	v.SetDefault("engine.max_ring_budget", 20000)
	v.SetDefault("engine.stop_on_dark_ring", true)
	v.SetDefault("camera.fov", 60)
	v.SetDefault("camera.vertical_fov", 45)
	v.SetDefault("camera.overlap_threshold", 5)
	v.SetDefault("camera.width", 1)
	v.SetDefault("camera.height", 1)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PEAKVIEW_ELEVATION_MAX_POINTS → elevation.max_points
	v.SetEnvPrefix("PEAKVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Peaks.Source {
	case "overpass":
		if c.Peaks.OverpassURL == "" {
			errs = append(errs, "peaks.overpass_url is required for the overpass source")
		}
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("peaks.source must be overpass or postgres, got %q", c.Peaks.Source))
	}
	if c.Peaks.Radius <= 0 {
		errs = append(errs, "peaks.radius must be positive")
	}
	if c.Peaks.MaxRadius < c.Peaks.Radius {
		errs = append(errs, "peaks.max_radius must be at least peaks.radius")
	}

	if c.Elevation.BaseURL == "" {
		errs = append(errs, "elevation.base_url is required")
	}
	if c.Elevation.MaxPoints <= 0 {
		errs = append(errs, "elevation.max_points must be positive")
	}
	if c.Elevation.DelayMS < 0 {
		errs = append(errs, "elevation.delay_ms must not be negative")
	}

	switch c.Engine.Strategy {
	case "sightline", "rings":
	default:
		errs = append(errs, fmt.Sprintf("engine.strategy must be sightline or rings, got %q", c.Engine.Strategy))
	}
	if c.Engine.EyeHeight < 0 {
		errs = append(errs, "engine.eye_height must not be negative")
	}
	if c.Engine.SegmentLength <= 0 {
		errs = append(errs, "engine.segment_length must be positive")
	}
	if c.Engine.RingBudget <= 0 {
		errs = append(errs, "engine.ring_budget must be positive")
	}
	if c.Engine.MaxRingBudget < c.Engine.RingBudget {
		errs = append(errs, "engine.max_ring_budget must be at least engine.ring_budget")
	}

	if c.Camera.FOV <= 0 || c.Camera.FOV > 360 {
		errs = append(errs, fmt.Sprintf("camera.fov must be in (0, 360], got %g", c.Camera.FOV))
	}
	if c.Camera.VerticalFOV <= 0 || c.Camera.VerticalFOV >= 180 {
		errs = append(errs, fmt.Sprintf("camera.vertical_fov must be in (0, 180), got %g", c.Camera.VerticalFOV))
	}
	if c.Camera.OverlapThreshold < 0 {
		errs = append(errs, "camera.overlap_threshold must not be negative")
	}

	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required when temporal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
