// Package loader fills the correction dictionary and the template store from
// their persistent sources and persists user corrections back to them.
// Every stage degrades independently: a failing source is logged and the
// remaining stages still run.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"smarttax/receipt-ocr/internal/dictionary"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/store"
	"smarttax/receipt-ocr/internal/templates"
)

// Report summarizes one Refresh.
type Report struct {
	CacheEntries     int
	GlobalEntries    int
	UserEntries      int
	Merchants        int
	Terms            int
	TemplatesLoaded  int
	TemplatesSkipped int
	Duration         time.Duration
	// Warnings holds the error of every stage that was skipped.
	Warnings []error
}

// Err joins the stage warnings, or returns nil when every stage succeeded.
func (r Report) Err() error {
	return errors.Join(r.Warnings...)
}

// Loader wires the in-memory dictionary and template store to their sources.
// Nil sources are skipped.
type Loader struct {
	dict           *dictionary.Dictionary
	templates      *templates.Store
	cache          store.DictionaryCache
	dictSource     store.DictionarySource
	templateSource store.TemplateSource
	feedback       []store.FeedbackSink
	defaults       func() ([]models.TemplateRecord, error)
	userID         string
	logger         logging.Logger

	refreshMu sync.Mutex
}

// Option customizes a Loader.
type Option func(*Loader)

// WithCache sets the local dictionary cache.
func WithCache(cache store.DictionaryCache) Option {
	return func(l *Loader) { l.cache = cache }
}

// WithDictionarySource sets the remote dictionary source.
func WithDictionarySource(src store.DictionarySource) Option {
	return func(l *Loader) { l.dictSource = src }
}

// WithTemplateSource sets the source of template overrides.
func WithTemplateSource(src store.TemplateSource) Option {
	return func(l *Loader) { l.templateSource = src }
}

// WithDefaultTemplates replaces the embedded template bundle as the base
// layer under the overrides.
func WithDefaultTemplates(defaults func() ([]models.TemplateRecord, error)) Option {
	return func(l *Loader) {
		if defaults != nil {
			l.defaults = defaults
		}
	}
}

// WithFeedbackSinks adds sinks that receive every correction record.
func WithFeedbackSinks(sinks ...store.FeedbackSink) Option {
	return func(l *Loader) {
		for _, s := range sinks {
			if s != nil {
				l.feedback = append(l.feedback, s)
			}
		}
	}
}

// WithUserID sets the user whose personal dictionary is loaded on top of
// the global one.
func WithUserID(userID string) Option {
	return func(l *Loader) { l.userID = userID }
}

// New creates a Loader for dict and tpl.
func New(dict *dictionary.Dictionary, tpl *templates.Store, logger logging.Logger, opts ...Option) *Loader {
	l := &Loader{
		dict:      dict,
		templates: tpl,
		defaults:  templates.DefaultRecords,
		logger:    logging.OrDefault(logger),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// UserID returns the configured user.
func (l *Loader) UserID() string {
	return l.userID
}

// Refresh reloads the dictionary (local cache, then remote global, then
// remote user) and the templates (defaults, then overrides). The
// merged dictionary is written back to the local cache when a remote
// document was read. Concurrent refreshes are serialized.
func (l *Loader) Refresh(ctx context.Context) Report {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	start := time.Now()
	var r Report
	l.refreshDictionary(ctx, &r)
	l.refreshTemplates(ctx, &r)
	r.Duration = time.Since(start)

	l.logger.Info("Refreshed dictionary and templates",
		logging.Field{Key: "merchants", Value: r.Merchants},
		logging.Field{Key: "terms", Value: r.Terms},
		logging.Field{Key: "templates", Value: r.TemplatesLoaded},
		logging.Field{Key: "warnings", Value: len(r.Warnings)},
		logging.Field{Key: logging.FieldDuration, Value: r.Duration.Milliseconds()})
	return r
}

func (l *Loader) refreshDictionary(ctx context.Context, r *Report) {
	if l.dict == nil {
		return
	}

	local := models.NewDictionaryDocument()
	if l.cache != nil {
		doc, err := l.cache.Load()
		if err != nil {
			l.warn(r, "local cache", err)
		} else {
			local = doc
			r.CacheEntries = doc.Len()
		}
	}

	global := models.NewDictionaryDocument()
	user := models.NewDictionaryDocument()
	remoteRead := false
	if l.dictSource != nil {
		if doc, ok := l.loadRemote(ctx, r, "global", l.dictSource.LoadGlobal); ok {
			global = doc
			r.GlobalEntries = doc.Len()
			remoteRead = true
		}
		if l.userID != "" {
			loadUser := func(ctx context.Context) (models.DictionaryDocument, error) {
				return l.dictSource.LoadUser(ctx, l.userID)
			}
			if doc, ok := l.loadRemote(ctx, r, "user", loadUser); ok {
				user = doc
				r.UserEntries = doc.Len()
				remoteRead = true
			}
		}
	}

	l.dict.Load(local, global, user)
	r.Merchants, r.Terms = l.dict.Len()

	if l.cache != nil && remoteRead {
		if err := l.cache.Save(l.dict.Snapshot()); err != nil {
			l.warn(r, "cache write", err)
		}
	}
}

func (l *Loader) loadRemote(ctx context.Context, r *Report, stage string,
	load func(context.Context) (models.DictionaryDocument, error)) (models.DictionaryDocument, bool) {
	doc, err := load(ctx)
	switch {
	case err == nil:
		return doc, true
	case errors.Is(err, store.ErrNotFound):
		l.logger.Debug("Dictionary document not found",
			logging.Field{Key: logging.FieldDocument, Value: stage},
			logging.Field{Key: logging.FieldSource, Value: l.dictSource.Name()})
		return doc, false
	default:
		l.warn(r, stage+" dictionary", err)
		return doc, false
	}
}

func (l *Loader) refreshTemplates(ctx context.Context, r *Report) {
	if l.templates == nil {
		return
	}

	defaults, err := l.defaults()
	if err != nil {
		l.warn(r, "default templates", err)
	}

	var overrides []models.TemplateRecord
	if l.templateSource != nil {
		overrides, err = l.templateSource.LoadTemplates(ctx)
		if err != nil {
			l.warn(r, "template overrides", err)
			overrides = nil
		}
	}

	r.TemplatesLoaded, r.TemplatesSkipped = l.templates.Replace(defaults, overrides)
}

func (l *Loader) warn(r *Report, stage string, err error) {
	err = fmt.Errorf("%s: %w", stage, err)
	r.Warnings = append(r.Warnings, err)
	l.logger.WithError(err).Warn("Skipping failed load stage",
		logging.Field{Key: logging.FieldOperation, Value: stage})
}

// RecordCorrection applies a user correction in memory and persists it: the
// local cache entry, a merge into the user's remote document and one
// feedback record per sink. An empty userID selects the configured user.
// Persistence failures are logged and returned joined; the in-memory
// correction stays applied.
func (l *Loader) RecordCorrection(ctx context.Context, userID, original, corrected string, kind models.CorrectionKind) (models.CorrectionRecord, error) {
	if userID == "" {
		userID = l.userID
	}
	rec, err := l.dict.AddCorrection(userID, original, corrected, kind)
	if err != nil {
		return rec, err
	}

	var errs []error
	fail := func(stage string, err error) {
		err = fmt.Errorf("%s: %w", stage, err)
		errs = append(errs, err)
		l.logger.WithError(err).Warn("Failed to persist correction",
			logging.Field{Key: logging.FieldCorrection, Value: rec.ID})
	}

	if l.cache != nil {
		if err := l.cache.Put(kind, original, corrected); err != nil {
			fail("cache", err)
		}
	}
	if l.dictSource != nil && userID != "" {
		doc := models.NewDictionaryDocument()
		doc.Set(kind, original, corrected)
		if err := l.dictSource.MergeUser(ctx, userID, doc); err != nil {
			fail("user dictionary", err)
		}
	}
	for _, sink := range l.feedback {
		if err := sink.AppendFeedback(ctx, rec); err != nil {
			fail("feedback", err)
		}
	}

	l.logger.Debug("Persisted correction",
		logging.Field{Key: logging.FieldCorrection, Value: rec.ID},
		logging.Field{Key: "failures", Value: len(errs)})
	return rec, errors.Join(errs...)
}
