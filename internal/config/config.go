package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. SURVEYLENS_ALPHA.
const EnvPrefix = "SURVEYLENS"

// Global configuration structure.
type Global struct {
	// Hypothesis testing
	Alpha               float64 `mapstructure:"alpha" yaml:"alpha"`
	DepressionThreshold float64 `mapstructure:"depression_threshold" yaml:"depression_threshold"`

	// Loading and describing
	SampleRows int `mapstructure:"sample_rows" yaml:"sample_rows"`
	MaxRows    int `mapstructure:"max_rows" yaml:"max_rows"`
	TopValues  int `mapstructure:"top_values" yaml:"top_values"`

	// Charts
	PlotDir      string  `mapstructure:"plot_dir" yaml:"plot_dir"`
	PlotWidthCm  float64 `mapstructure:"plot_width_cm" yaml:"plot_width_cm"`
	PlotHeightCm float64 `mapstructure:"plot_height_cm" yaml:"plot_height_cm"`

	StudiesDir string `mapstructure:"studies_dir" yaml:"studies_dir"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"alpha", "depression_threshold",
	"sample_rows", "max_rows", "top_values",
	"plot_dir", "plot_width_cm", "plot_height_cm",
	"studies_dir", "log_level",
}

// Dir returns ~/.surveylens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".surveylens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveylens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
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

// Default returns the built-in settings. StudiesDir is left empty and
// resolved by Load.
func Default() *Global {
	return &Global{
		Alpha:               0.05,
		DepressionThreshold: 3,
		SampleRows:          5,
		MaxRows:             100000,
		TopValues:           8,
		PlotDir:             "plots",
		PlotWidthCm:         16,
		PlotHeightCm:        10,
		LogLevel:            "info",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("alpha", d.Alpha)
	v.SetDefault("depression_threshold", d.DepressionThreshold)
	v.SetDefault("sample_rows", d.SampleRows)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("top_values", d.TopValues)
	v.SetDefault("plot_dir", d.PlotDir)
	v.SetDefault("plot_width_cm", d.PlotWidthCm)
	v.SetDefault("plot_height_cm", d.PlotHeightCm)
	v.SetDefault("studies_dir", d.StudiesDir)
	v.SetDefault("log_level", d.LogLevel)
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (including a local .env) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// A .env in the working directory feeds SURVEYLENS_* variables; it never
	// overrides variables already present in the environment.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(cfgFile != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.StudiesDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.StudiesDir = filepath.Join(dir, "studies")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the analysis cannot run with.
func (c *Global) Validate() error {
	if !(c.Alpha > 0 && c.Alpha < 1) {
		return fmt.Errorf("alpha must be in (0,1), got %v", c.Alpha)
	}
	if err := ValidateThreshold(c.DepressionThreshold); err != nil {
		return err
	}
	if c.SampleRows < 0 {
		return fmt.Errorf("sample_rows must be >= 0, got %d", c.SampleRows)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must be >= 0, got %d", c.MaxRows)
	}
	if c.TopValues < 0 {
		return fmt.Errorf("top_values must be >= 0, got %d", c.TopValues)
	}
	if c.PlotWidthCm <= 0 || c.PlotHeightCm <= 0 {
		return fmt.Errorf("plot size must be positive, got %vx%v cm", c.PlotWidthCm, c.PlotHeightCm)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug|info|warn|error, got %q", c.LogLevel)
	}
	return nil
}

// ValidateThreshold rejects a depression threshold that would flag every
// respondent. Scores run from 1 to 5.
func ValidateThreshold(v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("depression_threshold must be a positive number, got %v", v)
	}
	return nil
}

// Set parses val into the named key and validates the result.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	parseFloat := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float for %s: %v", key, val)
		}
		return f, nil
	}
	parseInt := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "alpha":
		c.Alpha, err = parseFloat()
	case "depression_threshold":
		c.DepressionThreshold, err = parseFloat()
	case "sample_rows":
		c.SampleRows, err = parseInt()
	case "max_rows":
		c.MaxRows, err = parseInt()
	case "top_values":
		c.TopValues, err = parseInt()
	case "plot_dir":
		c.PlotDir = val
	case "plot_width_cm":
		c.PlotWidthCm, err = parseFloat()
	case "plot_height_cm":
		c.PlotHeightCm, err = parseFloat()
	case "studies_dir":
		c.StudiesDir = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(Keys, ", "))
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

// Value formats the named key for display.
func (c *Global) Value(key string) string {
	switch key {
	case "alpha":
		return strconv.FormatFloat(c.Alpha, 'g', -1, 64)
	case "depression_threshold":
		return strconv.FormatFloat(c.DepressionThreshold, 'g', -1, 64)
	case "sample_rows":
		return strconv.Itoa(c.SampleRows)
	case "max_rows":
		return strconv.Itoa(c.MaxRows)
	case "top_values":
		return strconv.Itoa(c.TopValues)
	case "plot_dir":
		return c.PlotDir
	case "plot_width_cm":
		return strconv.FormatFloat(c.PlotWidthCm, 'g', -1, 64)
	case "plot_height_cm":
		return strconv.FormatFloat(c.PlotHeightCm, 'g', -1, 64)
	case "studies_dir":
		return c.StudiesDir
	case "log_level":
		return c.LogLevel
	}
	return ""
}
