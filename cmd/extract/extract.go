// Package extract handles single receipt extraction
package extract

import (
	"fmt"

	"github.com/spf13/cobra"

	"smarttax/receipt-ocr/cmd/common"
	"smarttax/receipt-ocr/cmd/root"
	csvutil "smarttax/receipt-ocr/internal/common"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/pipeline"
)

var (
	format   string
	detailed bool
)

// Cmd represents the extract command
var Cmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract structured data from one receipt",
	Long: `Extract structured data from the OCR text of one receipt.

The text is read from the given file, or from stdin when no file (or "-")
is given. The result is written to stdout unless --output is set.

Example:
  receipt-ocr extract scan.txt --format yaml
  cat scan.txt | receipt-ocr extract --detailed`,
	Args: cobra.MaximumNArgs(1),
	RunE: extractFunc,
}

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", common.FormatJSON, "Output format (json, yaml, csv or text)")
	Cmd.Flags().BoolVar(&detailed, "detailed", false, "Include the extraction method, visited states and corrected text")
}

// detailedResult is the --detailed output shape.
type detailedResult struct {
	Receipt       models.ReceiptData `json:"receipt" yaml:"receipt"`
	ItemsTotal    string             `json:"itemsTotal" yaml:"itemsTotal"`
	Method        string             `json:"method" yaml:"method"`
	States        []string           `json:"states" yaml:"states"`
	CorrectedText string             `json:"correctedText" yaml:"correctedText"`
}

func newDetailedResult(ex pipeline.Extraction) detailedResult {
	states := make([]string, 0, len(ex.States))
	for _, s := range ex.States {
		states = append(states, string(s))
	}
	return detailedResult{
		Receipt:       ex.Receipt,
		ItemsTotal:    ex.Receipt.ItemsTotal().StringFixed(2),
		Method:        string(ex.Method),
		States:        states,
		CorrectedText: ex.CorrectedText,
	}
}

func extractFunc(cmd *cobra.Command, args []string) error {
	outFormat, err := common.ParseFormat(format)
	if err != nil {
		return err
	}
	if detailed && (outFormat == common.FormatCSV || outFormat == common.FormatText) {
		return fmt.Errorf("--detailed is not available with %s output", outFormat)
	}

	source := ""
	if len(args) == 1 {
		source = args[0]
	}
	raw, err := common.ReadInput(source, cmd.InOrStdin())
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

	ex, err := appContainer.GetPipeline().ExtractDetailed(raw)
	if err != nil {
		return fmt.Errorf("failed to extract receipt: %w", err)
	}

	root.Log.Info("Receipt extracted",
		logging.Field{Key: logging.FieldInputFile, Value: source},
		logging.Field{Key: logging.FieldMethod, Value: string(ex.Method)},
		logging.Field{Key: logging.FieldMerchant, Value: ex.Receipt.MerchantName})

	var v interface{} = ex.Receipt
	if detailed {
		v = newDetailedResult(ex)
	}
	delimiter := csvutil.ParseDelimiter(appContainer.GetConfig().CSV.Delimiter)
	data, err := common.Encode(v, outFormat, source, delimiter)
	if err != nil {
		return err
	}
	return common.WriteOutput(root.SharedFlags.Output, data, cmd.OutOrStdout())
}
