// Package templates handles merchant template inspection commands
package templates

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"smarttax/receipt-ocr/cmd/root"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/templates"
)

// Cmd represents the templates command
var Cmd = &cobra.Command{
	Use:   "templates",
	Short: "List and validate merchant templates",
	Long: `List the merchant templates in effect or validate a template bundle file.

Example:
  receipt-ocr templates list
  receipt-ocr templates validate my_templates.yaml`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the loaded merchant templates in match order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appContainer := root.GetContainer()
		if appContainer == nil {
			return fmt.Errorf("container not initialized")
		}
		if err := root.LoadResources(cmd.Context()); err != nil {
			return err
		}
		return printTemplates(cmd.OutOrStdout(), appContainer.GetTemplateStore().Templates())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <bundle-file>",
	Short: "Check that every template of a JSON or YAML bundle compiles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := templates.ReadBundleFile(args[0])
		if err != nil {
			return err
		}
		return validateRecords(cmd.OutOrStdout(), records)
	},
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(validateCmd)
}

func printTemplates(w io.Writer, list []*templates.Template) error {
	if _, err := fmt.Fprintf(w, "%-20s %-24s %-30s %s\n", "KEY", "MERCHANT", "CATEGORY", "PRIORITY"); err != nil {
		return err
	}
	for _, t := range list {
		if _, err := fmt.Fprintf(w, "%-20s %-24s %-30s %d\n", t.Key, t.MerchantName, t.Category, t.Priority); err != nil {
			return err
		}
	}
	return nil
}

// validateRecords compiles each record, reporting one line per template,
// and returns the joined compile errors.
func validateRecords(w io.Writer, records []models.TemplateRecord) error {
	var errs []error
	for i, rec := range records {
		status := "ok"
		if _, err := templates.Compile(rec); err != nil {
			errs = append(errs, fmt.Errorf("template %d: %w", i+1, err))
			status = err.Error()
		}
		if _, err := fmt.Fprintf(w, "%3d %-24s %s\n", i+1, rec.MerchantName, status); err != nil {
			return err
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d templates invalid: %w", len(errs), len(records), errors.Join(errs...))
	}
	return nil
}
