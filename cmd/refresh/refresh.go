// Package refresh handles reloading the dictionary and templates
package refresh

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"smarttax/receipt-ocr/cmd/root"
	"smarttax/receipt-ocr/internal/loader"
)

var watch bool

// Cmd represents the refresh command
var Cmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the correction dictionary and merchant templates",
	Long: `Reload the correction dictionary and merchant templates from every
configured source and rewrite the local dictionary cache.

With --watch the command keeps running and reloads whenever a dictionary or
template file changes, until interrupted.

Example:
  receipt-ocr refresh
  receipt-ocr refresh --watch`,
	Args: cobra.NoArgs,
	RunE: refreshFunc,
}

func init() {
	Cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and reload on file changes")
}

func refreshFunc(cmd *cobra.Command, args []string) error {
	appContainer := root.GetContainer()
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report := appContainer.Refresh(ctx)
	if err := printReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	for _, w := range report.Warnings {
		root.Log.WithError(w).Warn("Resource load stage failed")
	}

	if !watch && !appContainer.GetConfig().Watch.Enabled {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	root.Log.Info("Watching for dictionary and template changes")
	return appContainer.NewWatcher().Run(ctx)
}

func printReport(w io.Writer, r loader.Report) error {
	_, err := fmt.Fprintf(w,
		"dictionary: %d merchants, %d terms (cache %d, global %d, user %d)\ntemplates: %d loaded, %d skipped\nwarnings: %d\nduration: %s\n",
		r.Merchants, r.Terms, r.CacheEntries, r.GlobalEntries, r.UserEntries,
		r.TemplatesLoaded, r.TemplatesSkipped, len(r.Warnings), r.Duration)
	return err
}
