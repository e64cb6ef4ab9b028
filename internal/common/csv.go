// Package common provides the CSV plumbing shared by the batch command and
// the feedback log.
package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"smarttax/receipt-ocr/internal/logging"
)

// DefaultDelimiter is used when no delimiter is configured.
const DefaultDelimiter = ','

// ReadCSVFile reads CSV data into a slice of structs using gocsv.
// TCSVRow is the struct type that maps to the CSV columns.
func ReadCSVFile[TCSVRow any](filePath string, delimiter rune, logger logging.Logger) ([]TCSVRow, error) {
	logger = logging.OrDefault(logger)
	logger.Debug("Reading CSV file", logging.Field{Key: logging.FieldFile, Value: filePath})

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	rows, err := ReadCSV[TCSVRow](file, delimiter)
	if err != nil {
		return nil, err
	}

	logger.Debug("Read CSV data", logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return rows, nil
}

// ReadCSV decodes rows from r.
func ReadCSV[TCSVRow any](r io.Reader, delimiter rune) ([]TCSVRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = orDefault(delimiter)
	reader.FieldsPerRecord = -1

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// WriteCSV encodes rows to w, with a header line unless withHeader is false.
func WriteCSV[TCSVRow any](w io.Writer, rows []TCSVRow, delimiter rune, withHeader bool) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = orDefault(delimiter)
	safe := gocsv.NewSafeCSVWriter(csvWriter)

	var err error
	if withHeader {
		err = gocsv.MarshalCSV(rows, safe)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(rows, safe)
	}
	if err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// ParseDelimiter returns the first rune of s, or DefaultDelimiter.
func ParseDelimiter(s string) rune {
	for _, r := range s {
		return r
	}
	return DefaultDelimiter
}

func orDefault(delimiter rune) rune {
	if delimiter == 0 {
		return DefaultDelimiter
	}
	return delimiter
}
