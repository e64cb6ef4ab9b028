package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"smarttax/receipt-ocr/internal/common"
	"smarttax/receipt-ocr/internal/fileutils"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

// feedbackRow is the CSV form of a CorrectionRecord.
type feedbackRow struct {
	ID            string `csv:"ID"`
	UserID        string `csv:"UserID"`
	OriginalText  string `csv:"OriginalText"`
	CorrectedText string `csv:"CorrectedText"`
	Kind          string `csv:"Type"`
	Timestamp     string `csv:"Timestamp"`
}

func toFeedbackRow(rec models.CorrectionRecord) feedbackRow {
	return feedbackRow{
		ID:            rec.ID,
		UserID:        rec.UserID,
		OriginalText:  rec.OriginalText,
		CorrectedText: rec.CorrectedText,
		Kind:          string(rec.Kind),
		Timestamp:     rec.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func (r feedbackRow) record() (models.CorrectionRecord, error) {
	rec := models.CorrectionRecord{
		ID:            r.ID,
		UserID:        r.UserID,
		OriginalText:  r.OriginalText,
		CorrectedText: r.CorrectedText,
		Kind:          models.CorrectionKind(r.Kind),
	}
	if r.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			return rec, fmt.Errorf("feedback %s: bad timestamp %q: %w", r.ID, r.Timestamp, err)
		}
		rec.Timestamp = ts
	}
	return rec, nil
}

// FeedbackLog appends correction records to a CSV file, writing the header
// when the file is new.
type FeedbackLog struct {
	path      string
	delimiter rune
	mu        sync.Mutex
	logger    logging.Logger
}

// NewFeedbackLog creates a feedback log at path.
func NewFeedbackLog(path string, delimiter rune, logger logging.Logger) *FeedbackLog {
	return &FeedbackLog{path: path, delimiter: delimiter, logger: logging.OrDefault(logger)}
}

// Path returns the log file location.
func (l *FeedbackLog) Path() string {
	return l.path
}

// AppendFeedback writes rec as one CSV row.
func (l *FeedbackLog) AppendFeedback(_ context.Context, rec models.CorrectionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, empty, err := fileutils.OpenAppend(l.path, models.PermissionConfigFile)
	if err != nil {
		return fmt.Errorf("error opening feedback log: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			l.logger.WithError(err).Warn("Failed to close feedback log")
		}
	}()

	if err := common.WriteCSV(file, []feedbackRow{toFeedbackRow(rec)}, l.delimiter, empty); err != nil {
		return fmt.Errorf("error appending feedback: %w", err)
	}

	l.logger.Debug("Appended correction feedback",
		logging.Field{Key: logging.FieldCorrection, Value: rec.ID},
		logging.Field{Key: logging.FieldOutputFile, Value: l.path})
	return nil
}

// Records reads back every record in the log. A missing log is empty.
func (l *FeedbackLog) Records() ([]models.CorrectionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return nil, nil
	}
	rows, err := common.ReadCSVFile[feedbackRow](l.path, l.delimiter, l.logger)
	if err != nil {
		return nil, err
	}
	records := make([]models.CorrectionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
