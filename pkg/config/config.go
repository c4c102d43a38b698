// Package config loads harness settings from an optional YAML
// file and HARNESS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"digital.vasic.harness/pkg/report"
	"digital.vasic.harness/pkg/runner"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HARNESS"

// Config holds the harness configuration.
type Config struct {
	Timeout    time.Duration `mapstructure:"timeout"     validate:"gt=0"`
	IndentSize int           `mapstructure:"indent_size" validate:"gte=0,lte=8"`
	Color      bool          `mapstructure:"color"`
	Format     string        `mapstructure:"format"      validate:"oneof=text json yaml"`
	Verbose    bool          `mapstructure:"verbose"`
	Log        LogConfig     `mapstructure:"log"`
	Metrics    bool          `mapstructure:"metrics"`
	Monitor    MonitorConfig `mapstructure:"monitor"`
	Report     ReportConfig  `mapstructure:"report"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	Format string `mapstructure:"format" validate:"oneof=console json"`
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Dir    string `mapstructure:"dir"`
}

// MonitorConfig holds the live monitor configuration. An empty
// address disables the monitor.
type MonitorConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// ReportConfig holds the on-disk report configuration. Empty
// paths disable the corresponding output.
type ReportConfig struct {
	Dir     string `mapstructure:"dir"`
	History string `mapstructure:"history"`
	HTML    string `mapstructure:"html"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Timeout:    runner.DefaultTimeout,
		IndentSize: report.DefaultIndentSize,
		Color:      true,
		Format:     "text",
		Log: LogConfig{
			Format: "console",
			Level:  "info",
		},
	}
}

func setDefaults(vip *viper.Viper) {
	d := Default()
	vip.SetDefault("timeout", d.Timeout)
	vip.SetDefault("indent_size", d.IndentSize)
	vip.SetDefault("color", d.Color)
	vip.SetDefault("format", d.Format)
	vip.SetDefault("verbose", d.Verbose)
	vip.SetDefault("log.format", d.Log.Format)
	vip.SetDefault("log.level", d.Log.Level)
	vip.SetDefault("log.dir", d.Log.Dir)
	vip.SetDefault("metrics", d.Metrics)
	vip.SetDefault("monitor.addr", d.Monitor.Addr)
	vip.SetDefault("report.dir", d.Report.Dir)
	vip.SetDefault("report.history", d.Report.History)
	vip.SetDefault("report.html", d.Report.HTML)
}

// Load loads the configuration from a file and environment
// variables, then validates it. With an empty path, harness.yaml
// is looked up in the working directory and may be absent.
func Load(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("harness")
		vip.AddConfigPath(".")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(EnvPrefix)
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(vip)

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnvFile exports the variables of a dotenv file so that
// HARNESS_* entries in it reach Load. Variables already set in
// the environment keep their value.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Validate checks cfg against its struct constraints.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
