package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/aqireport/internal/dataset"
	"github.com/KaramelBytes/aqireport/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix  = "AQIREPORT"
	appDirName = ".aqireport"

	// DefaultOutputPath is the report written when no output is configured.
	DefaultOutputPath = "Delhi_AQI_Analysis_Report.pdf"
)

// Global configuration structure.
type Global struct {
	InputPath       string `mapstructure:"input_path" yaml:"input_path"`
	OutputPath      string `mapstructure:"output_path" yaml:"output_path"`
	TimestampColumn string `mapstructure:"timestamp_column" yaml:"timestamp_column"`
	Delimiter       string `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet           string `mapstructure:"sheet" yaml:"sheet"`
	NarrativeFile   string `mapstructure:"narrative_file" yaml:"narrative_file"`
	Author          string `mapstructure:"author" yaml:"author"`

	// Side outputs
	ChartsDir   string `mapstructure:"charts_dir" yaml:"charts_dir"`
	RunsDir     string `mapstructure:"runs_dir" yaml:"runs_dir"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns ~/.aqireport.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, appDirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.aqireport/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// loadDotEnv loads the first .env found in the working directory or ~/.aqireport.
// Variables already set in the environment win.
func loadDotEnv(appDir string) {
	for _, path := range []string{".env", filepath.Join(appDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (including .env) > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	loadDotEnv(dir)

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// Defaults; every key needs one so AutomaticEnv can see it on Unmarshal.
	v.SetDefault("input_path", "")
	v.SetDefault("output_path", DefaultOutputPath)
	v.SetDefault("timestamp_column", dataset.DefaultTimestampColumn)
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet", "")
	v.SetDefault("narrative_file", "")
	v.SetDefault("author", "aqireport")
	v.SetDefault("charts_dir", "")
	v.SetDefault("runs_dir", filepath.Join(dir, "runs"))
	v.SetDefault("metrics_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// LoadOptions converts the input settings into dataset load options.
func (c *Global) LoadOptions() (dataset.LoadOptions, error) {
	opt := dataset.DefaultLoadOptions()
	if c.TimestampColumn != "" {
		opt.TimestampColumn = c.TimestampColumn
	}
	opt.Sheet = c.Sheet
	d, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	return opt, nil
}

// ParseDelimiter accepts "", ",", ";", "|", "tab" or a literal tab. Empty
// selects by file extension.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %q (use ',', ';', '|' or 'tab')", s)
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Global, v string) error{
	"input_path":       func(c *Global, v string) error { c.InputPath = v; return nil },
	"output_path":      func(c *Global, v string) error { c.OutputPath = v; return nil },
	"timestamp_column": func(c *Global, v string) error { c.TimestampColumn = v; return nil },
	"sheet":            func(c *Global, v string) error { c.Sheet = v; return nil },
	"narrative_file":   func(c *Global, v string) error { c.NarrativeFile = v; return nil },
	"author":           func(c *Global, v string) error { c.Author = v; return nil },
	"charts_dir":       func(c *Global, v string) error { c.ChartsDir = v; return nil },
	"runs_dir":         func(c *Global, v string) error { c.RunsDir = v; return nil },
	"metrics_file":     func(c *Global, v string) error { c.MetricsFile = v; return nil },
	"delimiter": func(c *Global, v string) error {
		if _, err := ParseDelimiter(v); err != nil {
			return err
		}
		c.Delimiter = v
		return nil
	},
	"log_level": func(c *Global, v string) error {
		if _, err := logger.ParseLevel(v); err != nil {
			return err
		}
		c.LogLevel = strings.ToLower(v)
		return nil
	},
	"log_format": func(c *Global, v string) error {
		switch strings.ToLower(v) {
		case "text", "json":
			c.LogFormat = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("invalid log_format: %s (use text or json)", v)
	},
}

// Set assigns one key after validating its value.
func (c *Global) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	return set(c, value)
}

// Get returns the value of key as text.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "input_path":
		return c.InputPath, nil
	case "output_path":
		return c.OutputPath, nil
	case "timestamp_column":
		return c.TimestampColumn, nil
	case "delimiter":
		return c.Delimiter, nil
	case "sheet":
		return c.Sheet, nil
	case "narrative_file":
		return c.NarrativeFile, nil
	case "author":
		return c.Author, nil
	case "charts_dir":
		return c.ChartsDir, nil
	case "runs_dir":
		return c.RunsDir, nil
	case "metrics_file":
		return c.MetricsFile, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}
