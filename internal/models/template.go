package models

import (
	"errors"
	"strings"
)

// TemplateRecord is the serialized form of a merchant receipt template as it
// appears in the bundled asset, YAML overrides and the remote collection.
type TemplateRecord struct {
	MerchantName  string `json:"merchantName" yaml:"merchantName" firestore:"merchantName"`
	HeaderPattern string `json:"headerPattern" yaml:"headerPattern" firestore:"headerPattern"`
	DatePattern   string `json:"datePattern" yaml:"datePattern" firestore:"datePattern"`
	TotalPattern  string `json:"totalPattern" yaml:"totalPattern" firestore:"totalPattern"`
	ItemPattern   string `json:"itemPattern" yaml:"itemPattern" firestore:"itemPattern"`
	Category      string `json:"category" yaml:"category" firestore:"category"`
	Priority      int    `json:"priority,omitempty" yaml:"priority,omitempty" firestore:"priority,omitempty"`
}

// TemplateBundle is the top-level shape of a template asset file.
type TemplateBundle struct {
	Templates []TemplateRecord `json:"templates" yaml:"templates"`
}

// Key returns the lowercased merchant name used to index the template.
func (t TemplateRecord) Key() string {
	return strings.ToLower(strings.TrimSpace(t.MerchantName))
}

// Validate checks the fields every template needs before compilation.
func (t TemplateRecord) Validate() error {
	var errs []error
	required := []struct{ name, value string }{
		{"merchantName", t.MerchantName},
		{"headerPattern", t.HeaderPattern},
		{"datePattern", t.DatePattern},
		{"totalPattern", t.TotalPattern},
		{"itemPattern", t.ItemPattern},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, errors.New(f.name+" is required"))
		}
	}
	return errors.Join(errs...)
}
