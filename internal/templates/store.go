package templates

import (
	"sort"
	"sync"

	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

// Store holds the compiled template set. The set is replaced as a whole so
// matching never observes a partially loaded state.
type Store struct {
	mu        sync.RWMutex
	templates []*Template
	byKey     map[string]*Template
	logger    logging.Logger
}

// NewStore returns an empty store.
func NewStore(logger logging.Logger) *Store {
	return &Store{
		byKey:  make(map[string]*Template),
		logger: logging.OrDefault(logger),
	}
}

// Replace compiles defaults followed by overrides and swaps in the result.
// An override replaces the default with the same lowercased merchant name and
// keeps its position. Records that fail validation or compilation are logged
// and skipped, leaving any earlier valid template for that merchant in place.
//
// The resulting order is priority descending, then load order.
func (s *Store) Replace(defaults, overrides []models.TemplateRecord) (loaded, skipped int) {
	byKey := make(map[string]*Template)
	var ordered []*Template

	add := func(rec models.TemplateRecord, source string) {
		t, err := Compile(rec)
		if err != nil {
			skipped++
			s.logger.WithError(err).Warn("Skipping invalid template",
				logging.Field{Key: logging.FieldTemplate, Value: rec.MerchantName},
				logging.Field{Key: logging.FieldSource, Value: source})
			return
		}
		if prev, ok := byKey[t.Key]; ok {
			t.order = prev.order
			ordered[prev.order] = t
		} else {
			t.order = len(ordered)
			ordered = append(ordered, t)
		}
		byKey[t.Key] = t
	}
	for _, rec := range defaults {
		add(rec, "defaults")
	}
	for _, rec := range overrides {
		add(rec, "overrides")
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	s.mu.Lock()
	s.templates = ordered
	s.byKey = byKey
	s.mu.Unlock()

	s.logger.Info("Receipt templates loaded",
		logging.Field{Key: logging.FieldCount, Value: len(ordered)},
		logging.Field{Key: "skipped", Value: skipped})
	return len(ordered), skipped
}

// Templates returns the compiled set in matching order.
func (s *Store) Templates() []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Template, len(s.templates))
	copy(out, s.templates)
	return out
}

// Get returns the template for a lowercased merchant key.
func (s *Store) Get(key string) (*Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byKey[key]
	return t, ok
}

// Len returns the number of loaded templates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}
