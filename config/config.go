// Package config resolves run settings from flags, SEIZURES_* environment
// variables and an optional seizures.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/logfmt"
	"github.com/apex/log/handlers/text"
	"github.com/spf13/viper"

	"github.com/spektr-org/seizures/dataset"
	"github.com/spektr-org/seizures/render"
)

// Keys, shared by flags, environment and config file.
const (
	KeyData      = "data"
	KeyTable     = "table"
	KeySheet     = "sheet"
	KeyReport    = "report"
	KeySections  = "sections"
	KeyOut       = "out"
	KeyFormats   = "formats"
	KeyParallel  = "parallel"
	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
)

// EnvPrefix prefixes every environment variable: SEIZURES_DATA, SEIZURES_LOG_LEVEL, ...
const EnvPrefix = "SEIZURES"

// Log formats.
var logFormats = []string{"cli", "json", "logfmt", "text"}

// Config is the resolved run configuration.
type Config struct {
	Data      string   `mapstructure:"data"`
	Table     string   `mapstructure:"table"`
	Sheet     string   `mapstructure:"sheet"`
	Report    string   `mapstructure:"report"`
	Sections  []string `mapstructure:"sections"`
	Out       string   `mapstructure:"out"`
	Formats   []string `mapstructure:"formats"`
	Parallel  bool     `mapstructure:"parallel"`
	LogLevel  string   `mapstructure:"log_level"`
	LogFormat string   `mapstructure:"log_format"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyData, "")
	v.SetDefault(KeyTable, dataset.DefaultTable)
	v.SetDefault(KeySheet, "")
	v.SetDefault(KeyReport, "")
	v.SetDefault(KeySections, []string{})
	v.SetDefault(KeyOut, "out")
	v.SetDefault(KeyFormats, []string{render.FormatCSV, render.FormatXLSX, render.FormatHTML})
	v.SetDefault(KeyParallel, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "cli")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, or seizures.yaml from the working directory when path is
// empty (a missing default file is not an error), and returns the validated
// configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("seizures")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes formats and checks the logging settings.
func (c *Config) Validate() error {
	formats, err := render.ParseFormats(c.Formats)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Formats = formats

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	c.LogFormat = strings.ToLower(c.LogFormat)
	for _, f := range logFormats {
		if f == c.LogFormat {
			return nil
		}
	}
	return fmt.Errorf("config: unknown log format %q (want one of %s)", c.LogFormat, strings.Join(logFormats, ", "))
}

// DataOptions returns the loader options.
func (c *Config) DataOptions() dataset.Options {
	return dataset.Options{Table: c.Table, Sheet: c.Sheet}
}

// SetupLogging installs the package-level apex/log handler writing to w.
func (c *Config) SetupLogging(w io.Writer) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}

	switch c.LogFormat {
	case "json":
		log.SetHandler(json.New(w))
	case "logfmt":
		log.SetHandler(logfmt.New(w))
	case "text":
		log.SetHandler(text.New(w))
	default:
		log.SetHandler(cli.New(w))
	}
	log.SetLevel(level)
	return nil
}
