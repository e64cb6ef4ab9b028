package categorizer

import "smarttax/receipt-ocr/internal/models"

// Input is what a strategy sees of a receipt.
type Input struct {
	MerchantName string
	Items        []models.LineItem
}

// CategorizationStrategy defines one way of deriving a tax category.
// Strategies are tried in order; the first one that reports found wins.
type CategorizationStrategy interface {
	// Categorize returns the category and whether this strategy decided.
	Categorize(in Input) (category string, found bool)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}

// KeywordRule assigns Category when any keyword occurs in the inspected text.
type KeywordRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}
