// Package categorizer assigns a tax relief category to an extracted receipt
// using ordered keyword strategies.
package categorizer

import (
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

// Categorizer runs its strategies in order and falls back to a default
// category when none decides.
type Categorizer struct {
	strategies []CategorizationStrategy
	fallback   string
	logger     logging.Logger
}

// Option customizes a Categorizer.
type Option func(*Categorizer)

// WithFallback sets the category returned when no strategy matches.
func WithFallback(category string) Option {
	return func(c *Categorizer) {
		if category != "" {
			c.fallback = category
		}
	}
}

// WithStrategies replaces the default strategy chain.
func WithStrategies(strategies ...CategorizationStrategy) Option {
	return func(c *Categorizer) {
		c.strategies = strategies
	}
}

// New creates a Categorizer with the merchant strategy followed by the item
// strategy.
func New(logger logging.Logger, opts ...Option) *Categorizer {
	c := &Categorizer{
		strategies: []CategorizationStrategy{
			NewMerchantKeywordStrategy(nil),
			NewItemKeywordStrategy(nil),
		},
		fallback: models.DefaultCategory,
		logger:   logging.OrDefault(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categorize returns the category for a receipt's merchant and items.
func (c *Categorizer) Categorize(merchantName string, items []models.LineItem) string {
	in := Input{MerchantName: merchantName, Items: items}
	for _, strategy := range c.strategies {
		if category, found := strategy.Categorize(in); found {
			c.logger.WithFields(
				logging.Field{Key: "strategy", Value: strategy.Name()},
				logging.Field{Key: logging.FieldMerchant, Value: merchantName},
				logging.Field{Key: logging.FieldCategory, Value: category},
			).Debug("Receipt categorized")
			return category
		}
	}
	return c.fallback
}

// StrategyNames lists the configured strategies in evaluation order.
func (c *Categorizer) StrategyNames() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}
