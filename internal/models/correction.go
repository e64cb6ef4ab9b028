package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CorrectionKind selects the dictionary namespace of a correction.
type CorrectionKind string

const (
	// CorrectionMerchant corrects a misread merchant name.
	CorrectionMerchant CorrectionKind = "MERCHANT"
	// CorrectionTerm corrects any other misread word or phrase.
	CorrectionTerm CorrectionKind = "TERM"
)

// ParseCorrectionKind accepts "merchant" or "term" in any case.
func ParseCorrectionKind(s string) (CorrectionKind, error) {
	switch CorrectionKind(strings.ToUpper(strings.TrimSpace(s))) {
	case CorrectionMerchant:
		return CorrectionMerchant, nil
	case CorrectionTerm:
		return CorrectionTerm, nil
	default:
		return "", fmt.Errorf("unknown correction kind %q", s)
	}
}

// CorrectionRecord is the feedback record emitted for every user correction.
type CorrectionRecord struct {
	ID            string         `json:"id" firestore:"id"`
	UserID        string         `json:"userId" firestore:"userId"`
	OriginalText  string         `json:"originalText" firestore:"originalText"`
	CorrectedText string         `json:"correctedText" firestore:"correctedText"`
	Kind          CorrectionKind `json:"type" firestore:"type"`
	Timestamp     time.Time      `json:"timestamp" firestore:"timestamp"`
}

// CorrectionEntry is one original -> corrected mapping of a namespace.
type CorrectionEntry struct {
	Original  string
	Corrected string
	Kind      CorrectionKind
}

// DictionaryDocument is the typed schema of a correction dictionary document,
// shared by the local cache and the remote global/user documents.
type DictionaryDocument struct {
	Merchants map[string]string `json:"merchants" yaml:"merchants" firestore:"merchants"`
	Terms     map[string]string `json:"terms" yaml:"terms" firestore:"terms"`
}

// NewDictionaryDocument returns a document with initialized maps.
func NewDictionaryDocument() DictionaryDocument {
	return DictionaryDocument{
		Merchants: make(map[string]string),
		Terms:     make(map[string]string),
	}
}

// IsEmpty reports whether the document holds no corrections.
func (d DictionaryDocument) IsEmpty() bool {
	return len(d.Merchants) == 0 && len(d.Terms) == 0
}

// Len is the total number of corrections in both namespaces.
func (d DictionaryDocument) Len() int {
	return len(d.Merchants) + len(d.Terms)
}

// Clone returns a deep copy with initialized maps.
func (d DictionaryDocument) Clone() DictionaryDocument {
	out := NewDictionaryDocument()
	out.Overlay(d)
	return out
}

// Overlay copies every entry of other into d, replacing existing keys.
// d must have initialized maps.
func (d DictionaryDocument) Overlay(other DictionaryDocument) {
	for k, v := range other.Merchants {
		d.Merchants[k] = v
	}
	for k, v := range other.Terms {
		d.Terms[k] = v
	}
}

// Sanitized returns a copy without blank keys or blank corrections, plus the
// number of entries dropped.
func (d DictionaryDocument) Sanitized() (DictionaryDocument, int) {
	out := NewDictionaryDocument()
	dropped := 0
	keep := func(dst map[string]string, src map[string]string) {
		for k, v := range src {
			if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
				dropped++
				continue
			}
			dst[k] = v
		}
	}
	keep(out.Merchants, d.Merchants)
	keep(out.Terms, d.Terms)
	return out, dropped
}

// Set stores a correction in the namespace selected by kind.
// d must have initialized maps.
func (d DictionaryDocument) Set(kind CorrectionKind, original, corrected string) {
	switch kind {
	case CorrectionMerchant:
		d.Merchants[original] = corrected
	case CorrectionTerm:
		d.Terms[original] = corrected
	}
}

// Entries lists every correction, merchants before terms, each namespace
// sorted by original.
func (d DictionaryDocument) Entries() []CorrectionEntry {
	out := make([]CorrectionEntry, 0, d.Len())
	for _, ns := range []struct {
		kind CorrectionKind
		m    map[string]string
	}{{CorrectionMerchant, d.Merchants}, {CorrectionTerm, d.Terms}} {
		originals := make([]string, 0, len(ns.m))
		for k := range ns.m {
			originals = append(originals, k)
		}
		sort.Strings(originals)
		for _, o := range originals {
			out = append(out, CorrectionEntry{Original: o, Corrected: ns.m[o], Kind: ns.kind})
		}
	}
	return out
}
