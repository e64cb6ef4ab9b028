// Package pipeline orchestrates receipt extraction: a merchant template is
// tried first, otherwise the text is dictionary-corrected and run through
// the generic field extractor. The merchant name is always normalized
// against the correction dictionary last.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/parsererror"
)

// ErrInvalidInput is returned for input that is not text.
var ErrInvalidInput = errors.New("invalid receipt input")

// State is a step of one extraction run.
type State string

const (
	StateIdle                State = "Idle"
	StateTemplateAttempted   State = "TemplateAttempted"
	StateDictionaryCorrected State = "DictionaryCorrected"
	StateGenericExtracted    State = "GenericExtracted"
	StateMerchantNormalized  State = "MerchantNormalized"
	StateDone                State = "Done"
)

// Method names the path that produced a result.
type Method string

const (
	MethodTemplate Method = "template"
	MethodGeneric  Method = "generic"
)

// TemplateMatcher applies a merchant template when one matches the text.
type TemplateMatcher interface {
	MatchReceipt(text string) (models.ReceiptData, bool)
}

// Corrector rewrites OCR text and merchant names from the correction
// dictionary.
type Corrector interface {
	ApplyCorrections(text string) string
	CorrectMerchantName(name string) string
}

// FieldExtractor derives receipt fields from free text.
type FieldExtractor interface {
	Extract(text string) models.ReceiptData
}

// Extraction is a result together with how it was produced.
type Extraction struct {
	Receipt       models.ReceiptData
	Method        Method
	CorrectedText string
	States        []State
}

// Pipeline runs one extraction per call. It holds no per-call state and is
// safe for concurrent use when its collaborators are.
type Pipeline struct {
	templates TemplateMatcher
	corrector Corrector
	extractor FieldExtractor
	logger    logging.Logger
}

// New creates a Pipeline. A nil templates matcher disables the template path
// and a nil corrector disables dictionary correction.
func New(templates TemplateMatcher, corrector Corrector, extractor FieldExtractor, logger logging.Logger) *Pipeline {
	return &Pipeline{
		templates: templates,
		corrector: corrector,
		extractor: extractor,
		logger:    logging.OrDefault(logger),
	}
}

// Extract turns raw OCR text into a receipt record.
func (p *Pipeline) Extract(raw string) (models.ReceiptData, error) {
	ex, err := p.ExtractDetailed(raw)
	if err != nil {
		return models.ReceiptData{}, err
	}
	return ex.Receipt, nil
}

// ExtractDetailed is Extract plus the method used and the visited states.
func (p *Pipeline) ExtractDetailed(raw string) (Extraction, error) {
	if err := validateInput(raw); err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	start := time.Now()
	ex := Extraction{States: []State{StateIdle, StateTemplateAttempted}}

	receipt, ok := p.matchTemplate(raw)
	if ok {
		ex.Method = MethodTemplate
		ex.CorrectedText = raw
	} else {
		ex.Method = MethodGeneric
		ex.CorrectedText = p.applyCorrections(raw)
		ex.States = append(ex.States, StateDictionaryCorrected)

		receipt = p.extractor.Extract(ex.CorrectedText)
		ex.States = append(ex.States, StateGenericExtracted)
	}

	receipt.RawText = raw
	if receipt.LineItems == nil {
		receipt.LineItems = []models.LineItem{}
	}
	if p.corrector != nil {
		receipt = receipt.WithMerchantName(p.corrector.CorrectMerchantName(receipt.MerchantName))
	}
	ex.States = append(ex.States, StateMerchantNormalized, StateDone)
	ex.Receipt = receipt

	p.logger.Debug("Receipt extracted",
		logging.Field{Key: logging.FieldMethod, Value: string(ex.Method)},
		logging.Field{Key: logging.FieldMerchant, Value: receipt.MerchantName},
		logging.Field{Key: logging.FieldCategory, Value: receipt.Category},
		logging.Field{Key: logging.FieldCount, Value: len(receipt.LineItems)},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})
	return ex, nil
}

func (p *Pipeline) matchTemplate(raw string) (models.ReceiptData, bool) {
	if p.templates == nil {
		return models.ReceiptData{}, false
	}
	return p.templates.MatchReceipt(raw)
}

func (p *Pipeline) applyCorrections(raw string) string {
	if p.corrector == nil {
		return raw
	}
	return p.corrector.ApplyCorrections(raw)
}

func validateInput(raw string) error {
	if !utf8.ValidString(raw) {
		offset := 0
		for offset < len(raw) {
			r, size := utf8.DecodeRuneInString(raw[offset:])
			if r == utf8.RuneError && size == 1 {
				break
			}
			offset += size
		}
		return &parsererror.InputError{Reason: "invalid UTF-8", Offset: offset}
	}
	if i := strings.IndexByte(raw, 0); i >= 0 {
		return &parsererror.InputError{Reason: "NUL byte", Offset: i}
	}
	return nil
}
