// Package container provides dependency injection for the receipt-ocr
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"

	"smarttax/receipt-ocr/internal/batch"
	"smarttax/receipt-ocr/internal/categorizer"
	"smarttax/receipt-ocr/internal/common"
	"smarttax/receipt-ocr/internal/config"
	"smarttax/receipt-ocr/internal/dictionary"
	"smarttax/receipt-ocr/internal/extractor"
	"smarttax/receipt-ocr/internal/loader"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/pipeline"
	"smarttax/receipt-ocr/internal/store"
	"smarttax/receipt-ocr/internal/templates"
	"smarttax/receipt-ocr/internal/watcher"
)

// Container holds all application dependencies and provides methods to access them.
// It is immutable after creation; dependencies are reached through getters.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	categorizer *categorizer.Categorizer
	dictionary  *dictionary.Dictionary
	templates   *templates.Store
	matcher     *templates.Matcher
	extractor   *extractor.FieldExtractor
	pipeline    *pipeline.Pipeline
	loader      *loader.Loader
	batch       *batch.Processor

	cache     *store.BoltCache
	firestore *store.FirestoreSource
	feedback  *store.FeedbackLog
}

// Option customizes NewContainer.
type Option func(*options)

type options struct {
	logger logging.Logger
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewContainer creates and wires all application dependencies. It does not
// load the dictionary or templates; call Refresh for that.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	c := &Container{logger: logger, config: cfg}

	c.categorizer = categorizer.New(logger, categorizer.WithFallback(cfg.Extraction.DefaultCategory))
	logger.Debug("Categorizer configured",
		logging.Field{Key: "strategies", Value: c.categorizer.StrategyNames()},
		logging.Field{Key: logging.FieldCategory, Value: cfg.Extraction.DefaultCategory})
	c.dictionary = dictionary.New(logger, dictionary.WithThreshold(cfg.Extraction.FuzzyThreshold))
	c.templates = templates.NewStore(logger)
	c.matcher = templates.NewMatcher(c.templates, cfg.Extraction.HeaderLines, logger)
	c.extractor = extractor.New(c.categorizer, logger,
		extractor.WithMerchantScanLines(cfg.Extraction.MerchantScanLines),
		extractor.WithMaxItemPrice(decimal.NewFromFloat(cfg.Extraction.MaxItemPrice)),
		extractor.WithDateLabelPriority(cfg.Extraction.PreferDateLabel))
	c.pipeline = pipeline.New(c.matcher, c.dictionary, c.extractor, logger)
	c.batch = batch.NewProcessor(c.pipeline, batch.DefaultWorkers, logger)

	loaderOpts := []loader.Option{loader.WithUserID(cfg.Dictionary.UserID)}

	if cfg.Dictionary.CacheFile != "" {
		cache, err := store.OpenBoltCache(cfg.Dictionary.CacheFile, logger)
		if err != nil {
			// Extraction still works from the remote documents alone.
			logger.WithError(err).Warn("Dictionary cache unavailable",
				logging.Field{Key: logging.FieldFile, Value: cfg.Dictionary.CacheFile})
		} else {
			c.cache = cache
			loaderOpts = append(loaderOpts, loader.WithCache(cache))
		}
	}

	if cfg.Templates.BundleFile != "" {
		bundle := cfg.Templates.BundleFile
		loaderOpts = append(loaderOpts, loader.WithDefaultTemplates(func() ([]models.TemplateRecord, error) {
			return templates.ReadBundleFile(bundle)
		}))
	}

	switch cfg.Dictionary.Source {
	case config.SourceFile:
		files := store.NewFileSource(cfg.Dictionary.Directory, cfg.Templates.Directory, logger)
		loaderOpts = append(loaderOpts, loader.WithDictionarySource(files), loader.WithTemplateSource(files))
	case config.SourceFirestore:
		client, err := store.NewFirestoreClient(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.firestore = store.NewFirestoreSource(client, cfg.FirestoreTimeout(), logger)
		loaderOpts = append(loaderOpts,
			loader.WithDictionarySource(c.firestore),
			loader.WithTemplateSource(c.firestore),
			loader.WithFeedbackSinks(c.firestore))
	}

	if cfg.Feedback.File != "" {
		c.feedback = store.NewFeedbackLog(cfg.Feedback.File, common.ParseDelimiter(cfg.CSV.Delimiter), logger)
		loaderOpts = append(loaderOpts, loader.WithFeedbackSinks(c.feedback))
	}

	c.loader = loader.New(c.dictionary, c.templates, logger, loaderOpts...)

	logger.Info("Container initialized successfully",
		logging.Field{Key: "dictionary_source", Value: cfg.Dictionary.Source},
		logging.Field{Key: "cache_enabled", Value: c.cache != nil})

	return c, nil
}

// Refresh loads the dictionary and templates from every configured source.
func (c *Container) Refresh(ctx context.Context) loader.Report {
	return c.loader.Refresh(ctx)
}

// NewWatcher returns a watcher that refreshes when the file-backed
// dictionary or template documents change.
func (c *Container) NewWatcher() *watcher.Watcher {
	dirs := []string{c.config.Dictionary.Directory, c.config.Templates.Directory}
	if c.config.Templates.BundleFile != "" {
		dirs = append(dirs, filepath.Dir(c.config.Templates.BundleFile))
	}
	return watcher.New(dirs, c.config.Debounce(), func(ctx context.Context) {
		if err := c.Refresh(ctx).Err(); err != nil {
			c.logger.WithError(err).Warn("Refresh after file change was incomplete")
		}
	}, c.logger)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetDictionary returns the correction dictionary.
func (c *Container) GetDictionary() *dictionary.Dictionary {
	return c.dictionary
}

// GetTemplateStore returns the template store.
func (c *Container) GetTemplateStore() *templates.Store {
	return c.templates
}

// GetPipeline returns the extraction pipeline.
func (c *Container) GetPipeline() *pipeline.Pipeline {
	return c.pipeline
}

// GetLoader returns the dictionary and template loader.
func (c *Container) GetLoader() *loader.Loader {
	return c.loader
}

// GetBatchProcessor returns the directory batch processor.
func (c *Container) GetBatchProcessor() *batch.Processor {
	return c.batch
}

// GetFeedbackLog returns the CSV feedback log, nil when disabled.
func (c *Container) GetFeedbackLog() *store.FeedbackLog {
	return c.feedback
}

// Close releases the dictionary cache and the Firestore client.
func (c *Container) Close() error {
	var errs []error
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dictionary cache: %w", err))
		}
	}
	if c.firestore != nil {
		if err := c.firestore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close firestore: %w", err))
		}
	}
	c.logger.Debug("Container closed")
	return errors.Join(errs...)
}
