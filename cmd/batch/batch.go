// Package batch handles batch processing of receipt files
package batch

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"smarttax/receipt-ocr/cmd/root"
	"smarttax/receipt-ocr/internal/batch"
	"smarttax/receipt-ocr/internal/common"
	"smarttax/receipt-ocr/internal/fileutils"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

var workers int

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch <input-dir>",
	Short: "Batch process receipt files from a directory",
	Long: `Batch process receipt files from an input directory into one CSV file.

Every .txt file in the input directory is extracted independently; a file
that fails is logged and skipped. The CSV is written to the --output
directory, named after the date range of the receipts.

Example:
  receipt-ocr batch scans/ -o reports/`,
	Args: cobra.ExactArgs(1),
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().IntVarP(&workers, "workers", "w", batch.DefaultWorkers, "Number of files extracted concurrently")
}

func batchFunc(cmd *cobra.Command, args []string) error {
	inputDir := args[0]
	outputDir := root.SharedFlags.Output
	if outputDir == "" {
		outputDir = "."
	}

	logger := root.GetLogger()
	logger.Info("Batch command called",
		logging.Field{Key: logging.FieldSource, Value: inputDir},
		logging.Field{Key: "output_dir", Value: outputDir})

	if !fileutils.DirectoryExists(inputDir) {
		return fmt.Errorf("input directory %s does not exist", inputDir)
	}
	if err := fileutils.EnsureDirectoryExists(outputDir); err != nil {
		return err
	}

	appContainer := root.GetContainer()
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}
	if err := root.LoadResources(cmd.Context()); err != nil {
		return err
	}

	processor := appContainer.GetBatchProcessor()
	if workers != batch.DefaultWorkers {
		processor = batch.NewProcessor(appContainer.GetPipeline(), workers, logger)
	}

	report, err := processor.ProcessDirectory(cmd.Context(), inputDir)
	if err != nil {
		return fmt.Errorf("error during batch extraction: %w", err)
	}
	report.Stats.LogSummary(logger, inputDir)

	if report.Stats.Extracted == 0 {
		logger.Warn("No receipts extracted, no output written")
		return nil
	}

	outputPath := filepath.Join(outputDir, batch.GenerateOutputFilename(report.DateRange))
	delimiter := common.ParseDelimiter(appContainer.GetConfig().CSV.Delimiter)
	if err := writeReport(report.Rows(), outputPath, delimiter); err != nil {
		return err
	}

	logger.Info("Created receipt report",
		logging.Field{Key: logging.FieldOutputFile, Value: outputPath},
		logging.Field{Key: logging.FieldCount, Value: report.Stats.Extracted})
	_, err = fmt.Fprintln(cmd.OutOrStdout(), outputPath)
	return err
}

// writeReport writes rows as CSV to outputPath atomically.
func writeReport(rows []models.ReceiptRow, outputPath string, delimiter rune) error {
	var buf bytes.Buffer
	if err := common.WriteCSV(&buf, rows, delimiter, true); err != nil {
		return err
	}
	if err := fileutils.WriteFile(outputPath, buf.Bytes(), models.PermissionReportFile); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
