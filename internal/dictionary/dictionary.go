// Package dictionary holds the learned OCR correction tables: merchant name
// corrections and general term corrections.
//
// The tables live in an immutable snapshot. Readers grab the current snapshot
// under a read lock and work on it without further locking; Load and
// AddCorrection build a replacement off to the side and swap it in.
package dictionary

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"smarttax/receipt-ocr/internal/fuzzy"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/textutils"
)

// DefaultThreshold is the exclusive edit distance limit for merchant matches.
const DefaultThreshold = 3

// ErrInvalidCorrection is returned by AddCorrection for blank input or an
// unknown kind.
var ErrInvalidCorrection = errors.New("invalid correction")

// Dictionary is safe for concurrent use.
type Dictionary struct {
	writeMu   sync.Mutex // serializes Load and AddCorrection
	mu        sync.RWMutex
	snap      *snapshot
	threshold int
	clock     func() time.Time
	newID     func() string
	logger    logging.Logger
}

// Option customizes a Dictionary.
type Option func(*Dictionary)

// WithThreshold sets the exclusive edit distance limit used by
// CorrectMerchantName. Values below 1 are ignored.
func WithThreshold(n int) Option {
	return func(d *Dictionary) {
		if n >= 1 {
			d.threshold = n
		}
	}
}

// WithClock sets the time source stamped on correction records.
func WithClock(clock func() time.Time) Option {
	return func(d *Dictionary) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithIDGenerator sets the correction record ID source.
func WithIDGenerator(gen func() string) Option {
	return func(d *Dictionary) {
		if gen != nil {
			d.newID = gen
		}
	}
}

// New returns an empty dictionary.
func New(logger logging.Logger, opts ...Option) *Dictionary {
	d := &Dictionary{
		snap:      buildSnapshot(models.NewDictionaryDocument()),
		threshold: DefaultThreshold,
		clock:     time.Now,
		newID:     uuid.NewString,
		logger:    logging.OrDefault(logger),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type replacement struct {
	original  string
	pattern   *regexp.Regexp
	corrected string
}

type snapshot struct {
	doc           models.DictionaryDocument
	merchantRepl  []replacement
	termRepl      []replacement
	merchantIndex map[string]string
	merchantKeys  []string
}

func buildSnapshot(doc models.DictionaryDocument) *snapshot {
	s := &snapshot{
		doc:           doc,
		merchantRepl:  buildReplacements(doc.Merchants),
		termRepl:      buildReplacements(doc.Terms),
		merchantIndex: make(map[string]string, len(doc.Merchants)),
	}

	// Originals differing only in case collapse to one key; iterating in
	// sorted order makes the surviving correction deterministic.
	originals := make([]string, 0, len(doc.Merchants))
	for k := range doc.Merchants {
		originals = append(originals, k)
	}
	sort.Strings(originals)
	for _, original := range originals {
		s.merchantIndex[textutils.Lower(original)] = doc.Merchants[original]
	}
	s.merchantKeys = make([]string, 0, len(s.merchantIndex))
	for k := range s.merchantIndex {
		s.merchantKeys = append(s.merchantKeys, k)
	}
	sort.Strings(s.merchantKeys)
	return s
}

// buildReplacements orders corrections longest original first, then
// lexicographically, so a longer phrase is replaced before any shorter
// phrase it contains.
func buildReplacements(m map[string]string) []replacement {
	out := make([]replacement, 0, len(m))
	for original, corrected := range m {
		out = append(out, replacement{
			original:  original,
			pattern:   regexp.MustCompile("(?i)" + regexp.QuoteMeta(original)),
			corrected: corrected,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := len([]rune(out[i].original)), len([]rune(out[j].original))
		if li != lj {
			return li > lj
		}
		return out[i].original < out[j].original
	})
	return out
}

func (d *Dictionary) current() *snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

func (d *Dictionary) swap(next *snapshot) {
	d.mu.Lock()
	d.snap = next
	d.mu.Unlock()
}

// Load replaces the dictionary with the overlay of local, global and user,
// in that order, so user corrections win over global ones and global over
// the local cache. Blank entries are dropped.
func (d *Dictionary) Load(local, global, user models.DictionaryDocument) {
	merged := models.NewDictionaryDocument()
	dropped := 0
	for _, doc := range []models.DictionaryDocument{local, global, user} {
		clean, n := doc.Sanitized()
		dropped += n
		merged.Overlay(clean)
	}

	next := buildSnapshot(merged)

	d.writeMu.Lock()
	d.swap(next)
	d.writeMu.Unlock()

	d.logger.WithFields(
		logging.Field{Key: "merchants", Value: len(merged.Merchants)},
		logging.Field{Key: "terms", Value: len(merged.Terms)},
	).Info("Correction dictionary loaded")
	if dropped > 0 {
		d.logger.Warn("Dropped blank dictionary entries", logging.Field{Key: logging.FieldCount, Value: dropped})
	}
}

// ApplyCorrections rewrites every case-insensitive occurrence of each
// merchant original, then each term original, with its correction.
func (d *Dictionary) ApplyCorrections(text string) string {
	if text == "" {
		return text
	}
	s := d.current()
	for _, r := range s.merchantRepl {
		text = r.pattern.ReplaceAllLiteralString(text, r.corrected)
	}
	for _, r := range s.termRepl {
		text = r.pattern.ReplaceAllLiteralString(text, r.corrected)
	}
	return text
}

// CorrectMerchantName returns the correction of the merchant key nearest to
// name when the edit distance is below the threshold, otherwise name.
func (d *Dictionary) CorrectMerchantName(name string) string {
	if strings.TrimSpace(name) == "" {
		return name
	}
	s := d.current()
	m, ok := fuzzy.Within(textutils.Lower(name), s.merchantKeys, d.threshold)
	if !ok {
		return name
	}
	corrected := s.merchantIndex[m.Candidate]
	d.logger.WithFields(
		logging.Field{Key: logging.FieldMerchant, Value: name},
		logging.Field{Key: "corrected", Value: corrected},
		logging.Field{Key: logging.FieldDistance, Value: m.Distance},
	).Debug("Merchant name corrected")
	return corrected
}

// AddCorrection upserts one correction and returns the feedback record the
// caller should persist. The in-memory change is visible to the next read.
func (d *Dictionary) AddCorrection(userID, original, corrected string, kind models.CorrectionKind) (models.CorrectionRecord, error) {
	if strings.TrimSpace(original) == "" || strings.TrimSpace(corrected) == "" {
		return models.CorrectionRecord{}, fmt.Errorf("%w: original and corrected text are required", ErrInvalidCorrection)
	}
	if kind != models.CorrectionMerchant && kind != models.CorrectionTerm {
		return models.CorrectionRecord{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidCorrection, kind)
	}

	d.writeMu.Lock()
	doc := d.current().doc.Clone()
	doc.Set(kind, original, corrected)
	d.swap(buildSnapshot(doc))
	d.writeMu.Unlock()

	record := models.CorrectionRecord{
		ID:            d.newID(),
		UserID:        userID,
		OriginalText:  original,
		CorrectedText: corrected,
		Kind:          kind,
		Timestamp:     d.clock().UTC(),
	}
	d.logger.WithFields(
		logging.Field{Key: logging.FieldKind, Value: kind},
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldCorrection, Value: record.ID},
	).Info("Correction added")
	return record, nil
}

// Snapshot returns a copy of the current correction tables.
func (d *Dictionary) Snapshot() models.DictionaryDocument {
	return d.current().doc.Clone()
}

// Len returns the number of merchant and term corrections.
func (d *Dictionary) Len() (merchants, terms int) {
	s := d.current()
	return len(s.doc.Merchants), len(s.doc.Terms)
}

// Threshold returns the configured merchant distance limit.
func (d *Dictionary) Threshold() int {
	return d.threshold
}
