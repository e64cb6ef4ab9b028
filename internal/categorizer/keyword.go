package categorizer

import (
	"strings"

	"smarttax/receipt-ocr/internal/textutils"
)

// MerchantKeywordStrategy matches the merchant name against keyword rules.
type MerchantKeywordStrategy struct {
	rules []KeywordRule
}

// NewMerchantKeywordStrategy creates the strategy. Nil rules select
// DefaultMerchantRules.
func NewMerchantKeywordStrategy(rules []KeywordRule) *MerchantKeywordStrategy {
	if rules == nil {
		rules = DefaultMerchantRules
	}
	return &MerchantKeywordStrategy{rules: normalizeRules(rules)}
}

// Name returns the name of this strategy for logging and debugging.
func (s *MerchantKeywordStrategy) Name() string {
	return "MerchantKeyword"
}

// Categorize checks the lowercased merchant name rule by rule.
func (s *MerchantKeywordStrategy) Categorize(in Input) (string, bool) {
	if strings.TrimSpace(in.MerchantName) == "" {
		return "", false
	}
	return matchRules(s.rules, textutils.Lower(in.MerchantName))
}

// ItemKeywordStrategy matches line item descriptions against keyword rules.
// Items are scanned in order and, for each item, rules in order.
type ItemKeywordStrategy struct {
	rules []KeywordRule
}

// NewItemKeywordStrategy creates the strategy. Nil rules select
// DefaultItemRules.
func NewItemKeywordStrategy(rules []KeywordRule) *ItemKeywordStrategy {
	if rules == nil {
		rules = DefaultItemRules
	}
	return &ItemKeywordStrategy{rules: normalizeRules(rules)}
}

// Name returns the name of this strategy for logging and debugging.
func (s *ItemKeywordStrategy) Name() string {
	return "ItemKeyword"
}

// Categorize returns the first rule matching the first matching item.
func (s *ItemKeywordStrategy) Categorize(in Input) (string, bool) {
	for _, item := range in.Items {
		if category, ok := matchRules(s.rules, textutils.Lower(item.Description)); ok {
			return category, true
		}
	}
	return "", false
}

func matchRules(rules []KeywordRule, text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule.Category, true
			}
		}
	}
	return "", false
}

// normalizeRules lowercases keywords once so matching is a plain substring
// check and drops blank keywords, which would match everything.
func normalizeRules(rules []KeywordRule) []KeywordRule {
	out := make([]KeywordRule, 0, len(rules))
	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = textutils.Lower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		out = append(out, KeywordRule{Category: r.Category, Keywords: keywords})
	}
	return out
}
