// Package config loads application configuration and sets up logging.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ngmaloney/marine-navigator/internal/database"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Overpass   OverpassConfig   `yaml:"overpass" mapstructure:"overpass"`
	Nominatim  NominatimConfig  `yaml:"nominatim" mapstructure:"nominatim"`
	UserAgent  string           `yaml:"user_agent" mapstructure:"user_agent"`
	Vessel     VesselConfig     `yaml:"vessel" mapstructure:"vessel"`
	Navigation NavigationConfig `yaml:"navigation" mapstructure:"navigation"`
	Hazards    HazardsConfig    `yaml:"hazards" mapstructure:"hazards"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig configures local persistence.
type DataConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// OverpassConfig configures the OpenStreetMap feature service.
type OverpassConfig struct {
	URL               string  `yaml:"url" mapstructure:"url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// Timeout returns the request timeout as a duration.
func (c OverpassConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// NominatimConfig configures place-name lookup.
type NominatimConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// VesselConfig describes the user's boat.
type VesselConfig struct {
	DraftMeters        float64 `yaml:"draft_meters" mapstructure:"draft_meters"`
	SafetyMarginMeters float64 `yaml:"safety_margin_meters" mapstructure:"safety_margin_meters"`
	AverageSpeedKnots  float64 `yaml:"average_speed_knots" mapstructure:"average_speed_knots"`
}

// NavigationConfig holds the navigation alert thresholds.
type NavigationConfig struct {
	ArrivalThresholdNM     float64 `yaml:"arrival_threshold_nm" mapstructure:"arrival_threshold_nm"`
	ApproachThresholdNM    float64 `yaml:"approach_threshold_nm" mapstructure:"approach_threshold_nm"`
	CourseDeviationDegrees float64 `yaml:"course_deviation_degrees" mapstructure:"course_deviation_degrees"`
	LowSpeedKnots          float64 `yaml:"low_speed_knots" mapstructure:"low_speed_knots"`
	AlertLogSize           int     `yaml:"alert_log_size" mapstructure:"alert_log_size"`
}

// HazardsConfig configures the hazard snapshot cache.
type HazardsConfig struct {
	CacheMaxAgeHours int    `yaml:"cache_max_age_hours" mapstructure:"cache_max_age_hours"`
	PruneSchedule    string `yaml:"prune_schedule" mapstructure:"prune_schedule"`
}

// CacheMaxAge returns the snapshot age limit as a duration.
func (c HazardsConfig) CacheMaxAge() time.Duration {
	return time.Duration(c.CacheMaxAgeHours) * time.Hour
}

// LogConfig configures logging. An empty File logs to stderr.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.marine-navigator")

	v.SetEnvPrefix("MARINE_NAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.db_path", database.DBPath())
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 30)
	v.SetDefault("overpass.requests_per_second", 1)
	v.SetDefault("nominatim.url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("user_agent", "MarineNavigator/1.0 (github.com/ngmaloney/marine-navigator)")
	v.SetDefault("vessel.draft_meters", 2.0)
	v.SetDefault("vessel.safety_margin_meters", 500)
	v.SetDefault("vessel.average_speed_knots", 5)
	v.SetDefault("navigation.arrival_threshold_nm", 0.1)
	v.SetDefault("navigation.approach_threshold_nm", 0.5)
	v.SetDefault("navigation.course_deviation_degrees", 45)
	v.SetDefault("navigation.low_speed_knots", 0.5)
	v.SetDefault("navigation.alert_log_size", 5)
	v.SetDefault("hazards.cache_max_age_hours", 168)
	v.SetDefault("hazards.prune_schedule", "@every 6h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger. With a log file configured
// output goes to a rotating file instead of stderr.
func InitLogger(cfg LogConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// NewLogger builds a logger from cfg without installing it.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.File == "" {
		logger, err := zapCfg.Build()
		if err != nil {
			return nil, eris.Wrap(err, "config: build logger")
		}
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, eris.Wrap(err, "config: create log directory")
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    16, // MB
		MaxBackups: 3,
		MaxAge:     14,
	})

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(zapCfg.EncoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(zapCfg.EncoderConfig)
	}
	return zap.New(zapcore.NewCore(encoder, sink, zapCfg.Level), zap.AddCaller()), nil
}
