package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every error returned from Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	// Crawler configuration
	Crawler CrawlerConfig `mapstructure:"crawler"`

	// Report output configuration
	Output OutputConfig `mapstructure:"output"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	MaxThreads       int           `mapstructure:"max_threads"`
	Timeout          time.Duration `mapstructure:"timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
	Verbose          bool          `mapstructure:"verbose"`
	ExtractTitles    bool          `mapstructure:"extract_titles"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

// OutputConfig controls how the crawl report is written
type OutputConfig struct {
	Format      string `mapstructure:"format"` // "json", "yaml", "markdown", "html"
	Path        string `mapstructure:"path"`   // empty means stdout
	AuditRobots bool   `mapstructure:"audit_robots"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type string `mapstructure:"type"` // "none" or "sqlite"
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "json" or "console"
	OutputPath string `mapstructure:"output_path"`
}

var (
	outputFormats = []string{"json", "yaml", "markdown", "html"}
	storageTypes  = []string{"none", "sqlite"}
	logFormats    = []string{"json", "console"}
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"threads":      "crawler.max_threads",
	"timeout":      "crawler.timeout",
	"user-agent":   "crawler.user_agent",
	"verbose":      "crawler.verbose",
	"titles":       "crawler.extract_titles",
	"format":       "output.format",
	"output":       "output.path",
	"audit-robots": "output.audit_robots",
	"store":        "storage.path",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
}

// Load reads configuration from defaults, an optional YAML file, the
// environment (SITEGRAPH_ prefix) and finally the given flags, in
// increasing order of precedence. flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("sitegraph")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.sitegraph")
	}

	setDefaults(v)
	bindEnvVars(v)
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error, we'll use defaults and env
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.normalize()

	// a store path alone selects the sqlite backend
	if config.Storage.Path != "" && config.Storage.Type == "none" {
		config.Storage.Type = "sqlite"
	}

	return &config, nil
}

// normalize lowercases the enumerated settings so that later exact
// comparisons agree with Validate.
func (c *Config) normalize() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Storage.Type = strings.ToLower(strings.TrimSpace(c.Storage.Type))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Crawler defaults
	v.SetDefault("crawler.max_threads", 8)
	v.SetDefault("crawler.timeout", "30s")
	v.SetDefault("crawler.user_agent", "SiteGraph/1.0")
	v.SetDefault("crawler.max_body_bytes", 10<<20)
	v.SetDefault("crawler.verbose", false)
	v.SetDefault("crawler.extract_titles", true)
	v.SetDefault("crawler.progress_interval", "2s")

	// Output defaults
	v.SetDefault("output.format", "json")
	v.SetDefault("output.path", "")
	v.SetDefault("output.audit_robots", false)

	// Storage defaults
	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stderr")
}

// bindEnvVars binds environment variables
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("SITEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Crawler.MaxThreads < 1 {
		return fmt.Errorf("%w: crawler.max_threads must be at least 1, got %d", ErrInvalidConfig, c.Crawler.MaxThreads)
	}
	if c.Crawler.Timeout <= 0 {
		return fmt.Errorf("%w: crawler.timeout must be positive", ErrInvalidConfig)
	}
	if c.Crawler.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: crawler.max_body_bytes must be positive", ErrInvalidConfig)
	}
	if !oneOf(c.Output.Format, outputFormats) {
		return fmt.Errorf("%w: output.format %q is not one of %s", ErrInvalidConfig, c.Output.Format, strings.Join(outputFormats, ", "))
	}
	if !oneOf(c.Storage.Type, storageTypes) {
		return fmt.Errorf("%w: storage.type %q is not one of %s", ErrInvalidConfig, c.Storage.Type, strings.Join(storageTypes, ", "))
	}
	if strings.EqualFold(c.Storage.Type, "sqlite") && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required for sqlite", ErrInvalidConfig)
	}
	if !oneOf(c.Logging.Format, logFormats) {
		return fmt.Errorf("%w: logging.format %q is not one of %s", ErrInvalidConfig, c.Logging.Format, strings.Join(logFormats, ", "))
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}
