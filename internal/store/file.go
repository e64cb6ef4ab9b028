package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"smarttax/receipt-ocr/internal/fileutils"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/parsererror"
	"smarttax/receipt-ocr/internal/templates"
)

const fileSourceName = "file"

// FileSource serves dictionary documents from YAML files and template
// overrides from a directory of YAML or JSON bundles:
//
//	<dictDir>/global.yaml
//	<dictDir>/users/<userID>.yaml
//	<templateDir>/*.yaml|*.yml|*.json
type FileSource struct {
	DictionaryDir string
	TemplateDir   string
	logger        logging.Logger
}

// NewFileSource creates a file-backed dictionary and template source.
// Either directory may be empty to disable that half.
func NewFileSource(dictionaryDir, templateDir string, logger logging.Logger) *FileSource {
	return &FileSource{
		DictionaryDir: dictionaryDir,
		TemplateDir:   templateDir,
		logger:        logging.OrDefault(logger),
	}
}

// Name identifies the source in logs.
func (s *FileSource) Name() string {
	return fileSourceName
}

// GlobalPath is the location of the global dictionary document.
func (s *FileSource) GlobalPath() string {
	return filepath.Join(s.DictionaryDir, GlobalDocument+".yaml")
}

// UserPath is the location of a user's dictionary document.
func (s *FileSource) UserPath(userID string) string {
	return filepath.Join(s.DictionaryDir, "users", userID+".yaml")
}

// LoadGlobal reads the global dictionary document.
func (s *FileSource) LoadGlobal(_ context.Context) (models.DictionaryDocument, error) {
	return s.readDocument(s.GlobalPath())
}

// LoadUser reads a user's dictionary document.
func (s *FileSource) LoadUser(_ context.Context, userID string) (models.DictionaryDocument, error) {
	if err := validateUserID(userID); err != nil {
		return models.NewDictionaryDocument(), err
	}
	return s.readDocument(s.UserPath(userID))
}

// MergeUser upserts doc into the user's document, creating it when missing.
func (s *FileSource) MergeUser(ctx context.Context, userID string, doc models.DictionaryDocument) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	current, err := s.LoadUser(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	merged := current.Clone()
	merged.Overlay(doc)

	data, err := yaml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("error encoding user dictionary: %w", err)
	}
	path := s.UserPath(userID)
	if err := fileutils.WriteFile(path, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error saving user dictionary: %w", err)
	}

	s.logger.Debug("Merged user dictionary",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: doc.Len()})
	return nil
}

func (s *FileSource) readDocument(path string) (models.DictionaryDocument, error) {
	if s.DictionaryDir == "" {
		return models.NewDictionaryDocument(), ErrNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewDictionaryDocument(), fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return models.NewDictionaryDocument(), &parsererror.DocumentError{Source: fileSourceName, Document: path, Reason: "read failed", Err: err}
	}

	doc := models.NewDictionaryDocument()
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.NewDictionaryDocument(), &parsererror.DocumentError{Source: fileSourceName, Document: path, Reason: "invalid YAML", Err: err}
	}
	// An empty file or a document without one of the keys leaves nil maps.
	return doc.Clone(), nil
}

// LoadTemplates reads every bundle in the template directory in file name
// order. Files that fail to decode are logged and skipped.
func (s *FileSource) LoadTemplates(_ context.Context) ([]models.TemplateRecord, error) {
	if s.TemplateDir == "" || !fileutils.DirectoryExists(s.TemplateDir) {
		return nil, nil
	}

	files, err := fileutils.ListFilesWithExtension(s.TemplateDir, ".yaml", ".yml", ".json")
	if err != nil {
		return nil, fmt.Errorf("error listing templates: %w", err)
	}

	var records []models.TemplateRecord
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			s.logger.WithError(err).Warn("Skipping unreadable template file",
				logging.Field{Key: logging.FieldFile, Value: file})
			continue
		}
		bundle, err := templates.DecodeBundle(data, templates.FormatForPath(file))
		if err != nil {
			s.logger.WithError(err).Warn("Skipping invalid template file",
				logging.Field{Key: logging.FieldFile, Value: file})
			continue
		}
		records = append(records, bundle.Templates...)
	}

	s.logger.Debug("Loaded template files",
		logging.Field{Key: logging.FieldCount, Value: len(records)},
		logging.Field{Key: logging.FieldSource, Value: s.TemplateDir})
	return records, nil
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return nil
}
