package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/parsererror"
)

// Firestore collections.
const (
	DictionaryCollection = "ocrDictionary"
	TemplateCollection   = "receiptTemplates"
	FeedbackCollection   = "correctionSuggestions"

	firestoreSourceName = "firestore"
)

// DefaultFirestoreTimeout bounds every Firestore call.
const DefaultFirestoreTimeout = 10 * time.Second

// NewFirestoreClient connects to projectID. A non-empty credentialsFile
// selects a service account key instead of application default credentials.
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating firestore client: %w", err)
	}
	return client, nil
}

// FirestoreSource serves dictionaries, templates and feedback from
// Firestore:
//
//	ocrDictionary/global            {merchants, terms}
//	ocrDictionary/<userID>          {merchants, terms}
//	receiptTemplates/<id>           template record
//	correctionSuggestions/<id>      feedback record
type FirestoreSource struct {
	client  *firestore.Client
	timeout time.Duration
	logger  logging.Logger
}

// NewFirestoreSource wraps an existing client. A non-positive timeout
// selects DefaultFirestoreTimeout.
func NewFirestoreSource(client *firestore.Client, timeout time.Duration, logger logging.Logger) *FirestoreSource {
	if timeout <= 0 {
		timeout = DefaultFirestoreTimeout
	}
	return &FirestoreSource{client: client, timeout: timeout, logger: logging.OrDefault(logger)}
}

// Name identifies the source in logs.
func (s *FirestoreSource) Name() string {
	return firestoreSourceName
}

// LoadGlobal reads ocrDictionary/global.
func (s *FirestoreSource) LoadGlobal(ctx context.Context) (models.DictionaryDocument, error) {
	return s.readDictionary(ctx, GlobalDocument)
}

// LoadUser reads ocrDictionary/<userID>.
func (s *FirestoreSource) LoadUser(ctx context.Context, userID string) (models.DictionaryDocument, error) {
	if err := validateUserID(userID); err != nil {
		return models.NewDictionaryDocument(), err
	}
	return s.readDictionary(ctx, userID)
}

func (s *FirestoreSource) readDictionary(ctx context.Context, docID string) (models.DictionaryDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	name := DictionaryCollection + "/" + docID
	snap, err := s.client.Collection(DictionaryCollection).Doc(docID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return models.NewDictionaryDocument(), fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return models.NewDictionaryDocument(), &parsererror.DocumentError{Source: firestoreSourceName, Document: name, Reason: "fetch failed", Err: err}
	}

	var doc models.DictionaryDocument
	if err := snap.DataTo(&doc); err != nil {
		return models.NewDictionaryDocument(), &parsererror.DocumentError{Source: firestoreSourceName, Document: name, Reason: "decode failed", Err: err}
	}
	return doc.Clone(), nil
}

// MergeUser merges doc into ocrDictionary/<userID> without touching
// entries it does not name.
func (s *FirestoreSource) MergeUser(ctx context.Context, userID string, doc models.DictionaryDocument) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	data := mergeData(doc)
	if len(data) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.Collection(DictionaryCollection).Doc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("error merging user dictionary %s: %w", userID, err)
	}
	return nil
}

// mergeData converts doc to the nested map form MergeAll requires. Empty
// namespaces are left out so they do not overwrite existing maps.
func mergeData(doc models.DictionaryDocument) map[string]interface{} {
	data := make(map[string]interface{})
	add := func(field string, entries map[string]string) {
		if len(entries) == 0 {
			return
		}
		m := make(map[string]interface{}, len(entries))
		for k, v := range entries {
			m[k] = v
		}
		data[field] = m
	}
	add("merchants", doc.Merchants)
	add("terms", doc.Terms)
	return data
}

// LoadTemplates reads every document of receiptTemplates in document ID
// order. Documents that fail to decode are logged and skipped.
func (s *FirestoreSource) LoadTemplates(ctx context.Context) ([]models.TemplateRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs, err := s.client.Collection(TemplateCollection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, &parsererror.DocumentError{Source: firestoreSourceName, Document: TemplateCollection, Reason: "query failed", Err: err}
	}

	records := make([]models.TemplateRecord, 0, len(docs))
	for _, doc := range docs {
		var rec models.TemplateRecord
		if err := doc.DataTo(&rec); err != nil {
			s.logger.WithError(err).Warn("Skipping undecodable template document",
				logging.Field{Key: logging.FieldDocument, Value: doc.Ref.ID})
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// AppendFeedback stores rec as correctionSuggestions/<rec.ID>.
func (s *FirestoreSource) AppendFeedback(ctx context.Context, rec models.CorrectionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ref := s.client.Collection(FeedbackCollection).NewDoc()
	if rec.ID != "" {
		ref = s.client.Collection(FeedbackCollection).Doc(rec.ID)
	}
	if _, err := ref.Set(ctx, rec); err != nil {
		return fmt.Errorf("error storing correction feedback: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *FirestoreSource) Close() error {
	return s.client.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
