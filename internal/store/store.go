// Package store provides the persistence behind the correction dictionary
// and the template store: a local bbolt cache, remote documents held in YAML
// files or Firestore, and the feedback log of user corrections.
package store

import (
	"context"
	"errors"

	"smarttax/receipt-ocr/internal/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Document names shared by every dictionary source.
const (
	GlobalDocument = "global"
)

// DictionaryCache is the fast local copy of the merged dictionary.
type DictionaryCache interface {
	Load() (models.DictionaryDocument, error)
	Save(doc models.DictionaryDocument) error
	Put(kind models.CorrectionKind, original, corrected string) error
	Close() error
}

// DictionarySource serves the shared global dictionary and per-user
// dictionaries.
type DictionarySource interface {
	Name() string
	LoadGlobal(ctx context.Context) (models.DictionaryDocument, error)
	LoadUser(ctx context.Context, userID string) (models.DictionaryDocument, error)
	// MergeUser upserts the entries of doc into the user's document.
	MergeUser(ctx context.Context, userID string, doc models.DictionaryDocument) error
}

// TemplateSource serves merchant templates that override the bundled ones.
type TemplateSource interface {
	Name() string
	LoadTemplates(ctx context.Context) ([]models.TemplateRecord, error)
}

// FeedbackSink receives one record per user correction.
type FeedbackSink interface {
	AppendFeedback(ctx context.Context, rec models.CorrectionRecord) error
}
