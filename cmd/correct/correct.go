// Package correct handles recording OCR corrections
package correct

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"smarttax/receipt-ocr/cmd/root"
	"smarttax/receipt-ocr/internal/dictionary"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

var kind string

// Cmd represents the correct command
var Cmd = &cobra.Command{
	Use:   "correct <original> <corrected>",
	Short: "Record a correction in the OCR dictionary",
	Long: `Record a correction of a misread merchant name or term.

The correction applies immediately to the local dictionary cache, is merged
into the user's dictionary document when a user is set (--user or
dictionary.user_id) and is appended to the feedback log.

Example:
  receipt-ocr correct "STARBUCKS COFEE" "Starbucks" --kind merchant --user alice
  receipt-ocr correct T0TAL TOTAL --kind term`,
	Args: cobra.ExactArgs(2),
	RunE: correctFunc,
}

func init() {
	Cmd.Flags().StringVarP(&kind, "kind", "k", "merchant", "Correction kind (merchant or term)")
}

func correctFunc(cmd *cobra.Command, args []string) error {
	correctionKind, err := models.ParseCorrectionKind(kind)
	if err != nil {
		return err
	}

	appContainer := root.GetContainer()
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}
	if err := root.LoadResources(cmd.Context()); err != nil {
		return err
	}

	rec, err := appContainer.GetLoader().RecordCorrection(cmd.Context(), "", args[0], args[1], correctionKind)
	if errors.Is(err, dictionary.ErrInvalidCorrection) {
		return err
	}
	if err != nil {
		// The correction is active for this process; only persistence failed.
		root.Log.WithError(err).Warn("Correction not fully persisted")
	}

	root.Log.Info("Correction recorded",
		logging.Field{Key: logging.FieldCorrection, Value: rec.ID},
		logging.Field{Key: logging.FieldKind, Value: string(rec.Kind)},
		logging.Field{Key: logging.FieldUserID, Value: rec.UserID})
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s -> %s\n", rec.ID, rec.OriginalText, rec.CorrectedText)
	return err
}
