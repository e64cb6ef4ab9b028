// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"smarttax/receipt-ocr/internal/models"
)

// Dictionary source kinds.
const (
	SourceFile      = "file"
	SourceFirestore = "firestore"
	SourceNone      = "none"
)

// LogConfig controls the logrus adapter.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ExtractionConfig tunes the heuristic extractor and fuzzy matching.
type ExtractionConfig struct {
	FuzzyThreshold    int     `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	HeaderLines       int     `mapstructure:"header_lines" yaml:"header_lines"`
	MerchantScanLines int     `mapstructure:"merchant_scan_lines" yaml:"merchant_scan_lines"`
	MaxItemPrice      float64 `mapstructure:"max_item_price" yaml:"max_item_price"`
	PreferDateLabel   bool    `mapstructure:"prefer_date_label" yaml:"prefer_date_label"`
	DefaultCategory   string  `mapstructure:"default_category" yaml:"default_category"`
}

// DictionaryConfig locates the correction dictionary sources.
type DictionaryConfig struct {
	CacheFile string `mapstructure:"cache_file" yaml:"cache_file"`
	Source    string `mapstructure:"source" yaml:"source"`
	Directory string `mapstructure:"directory" yaml:"directory"`
	UserID    string `mapstructure:"user_id" yaml:"user_id"`
}

// TemplatesConfig locates template overrides. An empty BundleFile means the
// embedded default bundle.
type TemplatesConfig struct {
	BundleFile string `mapstructure:"bundle_file" yaml:"bundle_file"`
	Directory  string `mapstructure:"directory" yaml:"directory"`
}

// FirestoreConfig holds the remote document store settings.
type FirestoreConfig struct {
	ProjectID       string `mapstructure:"project_id" yaml:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"-"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// FeedbackConfig locates the correction feedback log.
type FeedbackConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// WatchConfig controls refresh on file change.
type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// CSVConfig controls batch CSV output.
type CSVConfig struct {
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction"`
	Dictionary DictionaryConfig `mapstructure:"dictionary" yaml:"dictionary"`
	Templates  TemplatesConfig  `mapstructure:"templates" yaml:"templates"`
	Firestore  FirestoreConfig  `mapstructure:"firestore" yaml:"firestore"`
	Feedback   FeedbackConfig   `mapstructure:"feedback" yaml:"feedback"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
	CSV        CSVConfig        `mapstructure:"csv" yaml:"csv"`
}

// Debounce returns the watcher debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// FirestoreTimeout returns the per-call remote timeout.
func (c *Config) FirestoreTimeout() time.Duration {
	return time.Duration(c.Firestore.TimeoutSeconds) * time.Second
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
// configFile, when non-empty, replaces the search path lookup.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.receipt-ocr")
		v.AddConfigPath(".receipt-ocr")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("RECEIPT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configFile != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Google Cloud settings also come from their conventional variables
	if err := v.BindEnv("firestore.project_id", "RECEIPT_FIRESTORE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"); err != nil {
		fmt.Printf("Warning: failed to bind GOOGLE_CLOUD_PROJECT environment variable: %v\n", err)
	}
	if err := v.BindEnv("firestore.credentials_file", "RECEIPT_FIRESTORE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"); err != nil {
		fmt.Printf("Warning: failed to bind GOOGLE_APPLICATION_CREDENTIALS environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("extraction.fuzzy_threshold", 3)
	v.SetDefault("extraction.header_lines", 5)
	v.SetDefault("extraction.merchant_scan_lines", 5)
	v.SetDefault("extraction.max_item_price", 10000.0)
	v.SetDefault("extraction.prefer_date_label", true)
	v.SetDefault("extraction.default_category", models.DefaultCategory)

	v.SetDefault("dictionary.cache_file", "ocr_dictionary.db")
	v.SetDefault("dictionary.source", SourceFile)
	v.SetDefault("dictionary.directory", "dictionary")
	v.SetDefault("dictionary.user_id", "")

	v.SetDefault("templates.bundle_file", "")
	v.SetDefault("templates.directory", "templates")

	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.credentials_file", "")
	v.SetDefault("firestore.timeout_seconds", 10)

	v.SetDefault("feedback.file", "correction_suggestions.csv")

	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.debounce_ms", 500)

	v.SetDefault("csv.delimiter", ",")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if config.Extraction.FuzzyThreshold < 1 {
		return fmt.Errorf("extraction.fuzzy_threshold must be at least 1, got: %d", config.Extraction.FuzzyThreshold)
	}

	if config.Extraction.HeaderLines < 1 || config.Extraction.MerchantScanLines < 1 {
		return fmt.Errorf("extraction.header_lines and extraction.merchant_scan_lines must be at least 1")
	}

	if config.Extraction.MaxItemPrice <= 0 {
		return fmt.Errorf("extraction.max_item_price must be positive, got: %f", config.Extraction.MaxItemPrice)
	}

	if !models.IsKnownCategory(config.Extraction.DefaultCategory) {
		return fmt.Errorf("extraction.default_category must be one of %v, got: %s",
			models.AvailableCategories, config.Extraction.DefaultCategory)
	}

	switch config.Dictionary.Source {
	case SourceFile, SourceNone:
	case SourceFirestore:
		if config.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore.project_id (or GOOGLE_CLOUD_PROJECT) required when dictionary.source is firestore")
		}
	default:
		return fmt.Errorf("invalid dictionary.source: %s (must be 'file', 'firestore' or 'none')", config.Dictionary.Source)
	}

	if config.Watch.Enabled && config.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative, got: %d", config.Watch.DebounceMS)
	}

	return nil
}
