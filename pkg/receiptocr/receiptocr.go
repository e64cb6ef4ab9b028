// Package receiptocr is the embeddable entry point of the receipt extraction
// engine. An Engine needs no files or network: dictionaries and templates
// are passed in as values, and the built-in template bundle is used unless
// replaced.
//
// Example:
//
//	engine, err := receiptocr.New(
//		receiptocr.WithDictionary(receiptocr.DictionaryDocument{
//			Merchants: map[string]string{"starbucks coffee": "Starbucks"},
//		}),
//	)
//	if err != nil {
//		return err
//	}
//	receipt, err := engine.Extract(ocrText)
package receiptocr

import (
	"fmt"

	"github.com/shopspring/decimal"

	"smarttax/receipt-ocr/internal/categorizer"
	"smarttax/receipt-ocr/internal/dictionary"
	"smarttax/receipt-ocr/internal/extractor"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/pipeline"
	"smarttax/receipt-ocr/internal/templates"
)

type (
	// Receipt is the structured result of an extraction.
	Receipt = models.ReceiptData
	// LineItem is one purchased product line.
	LineItem = models.LineItem
	// DictionaryDocument holds merchant and term corrections.
	DictionaryDocument = models.DictionaryDocument
	// TemplateRecord describes one merchant template.
	TemplateRecord = models.TemplateRecord
	// CorrectionRecord is the feedback record of an added correction.
	CorrectionRecord = models.CorrectionRecord
	// CorrectionKind selects the dictionary namespace of a correction.
	CorrectionKind = models.CorrectionKind
)

// Correction kinds.
const (
	CorrectionMerchant = models.CorrectionMerchant
	CorrectionTerm     = models.CorrectionTerm
)

// ErrInvalidInput is returned by Extract for input that is not text.
var ErrInvalidInput = pipeline.ErrInvalidInput

// Option configures an Engine.
type Option func(*settings)

type settings struct {
	logger          logging.Logger
	dictionary      DictionaryDocument
	templates       []TemplateRecord
	replaceDefaults bool
	threshold       int
	headerLines     int
	fallback        string
	maxItemPrice    decimal.Decimal
}

// WithLogger sets the logger. The default is the process-wide logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithDictionary loads the correction dictionary.
func WithDictionary(doc DictionaryDocument) Option {
	return func(s *settings) { s.dictionary = doc }
}

// WithTemplates adds templates that take precedence over the built-in ones
// with the same merchant.
func WithTemplates(records ...TemplateRecord) Option {
	return func(s *settings) { s.templates = append(s.templates, records...) }
}

// WithoutDefaultTemplates drops the built-in template bundle.
func WithoutDefaultTemplates() Option {
	return func(s *settings) { s.replaceDefaults = true }
}

// WithFuzzyThreshold sets the exclusive edit distance limit for merchant
// name correction.
func WithFuzzyThreshold(n int) Option {
	return func(s *settings) { s.threshold = n }
}

// WithHeaderLines sets how many leading lines identify a template merchant.
func WithHeaderLines(n int) Option {
	return func(s *settings) { s.headerLines = n }
}

// WithFallbackCategory sets the category of receipts no rule matches.
func WithFallbackCategory(category string) Option {
	return func(s *settings) { s.fallback = category }
}

// WithMaxItemPrice sets the largest amount accepted as a line item.
func WithMaxItemPrice(max decimal.Decimal) Option {
	return func(s *settings) { s.maxItemPrice = max }
}

// Engine extracts receipts. It is safe for concurrent use.
type Engine struct {
	dictionary *dictionary.Dictionary
	templates  *templates.Store
	pipeline   *pipeline.Pipeline
}

// New builds an Engine. It fails only when a template does not compile.
func New(opts ...Option) (*Engine, error) {
	s := settings{
		threshold:    dictionary.DefaultThreshold,
		headerLines:  templates.DefaultHeaderLines,
		fallback:     models.DefaultCategory,
		maxItemPrice: extractor.DefaultMaxItemPrice,
	}
	for _, opt := range opts {
		opt(&s)
	}
	logger := logging.OrDefault(s.logger)

	var defaults []TemplateRecord
	if !s.replaceDefaults {
		var err error
		if defaults, err = templates.DefaultRecords(); err != nil {
			return nil, fmt.Errorf("failed to load built-in templates: %w", err)
		}
	}
	for _, rec := range s.templates {
		if _, err := templates.Compile(rec); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		dictionary: dictionary.New(logger, dictionary.WithThreshold(s.threshold)),
		templates:  templates.NewStore(logger),
	}
	e.dictionary.Load(models.DictionaryDocument{}, s.dictionary, models.DictionaryDocument{})
	e.templates.Replace(defaults, s.templates)

	fields := extractor.New(categorizer.New(logger, categorizer.WithFallback(s.fallback)), logger,
		extractor.WithMaxItemPrice(s.maxItemPrice))
	e.pipeline = pipeline.New(templates.NewMatcher(e.templates, s.headerLines, logger), e.dictionary, fields, logger)
	return e, nil
}

// Extract turns raw OCR text into a receipt.
func (e *Engine) Extract(raw string) (Receipt, error) {
	return e.pipeline.Extract(raw)
}

// AddCorrection adds a correction that applies to every later Extract and
// returns the feedback record describing it.
func (e *Engine) AddCorrection(original, corrected string, kind CorrectionKind) (CorrectionRecord, error) {
	return e.dictionary.AddCorrection("", original, corrected, kind)
}

// Dictionary returns a copy of the active correction dictionary.
func (e *Engine) Dictionary() DictionaryDocument {
	return e.dictionary.Snapshot()
}

// Templates returns the merchant names of the active templates in match
// order.
func (e *Engine) Templates() []string {
	list := e.templates.Templates()
	names := make([]string, 0, len(list))
	for _, t := range list {
		names = append(names, t.MerchantName)
	}
	return names
}
