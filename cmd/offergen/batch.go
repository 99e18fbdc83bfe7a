package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/app"
	"github.com/joseph-ayodele/offer-generator/internal/ingest"
	"github.com/joseph-ayodele/offer-generator/internal/pipeline"
)

var (
	batchAccessories []string
	batchSkipHidden  bool
	batchExport      string
	watchInitialScan bool
	watchDebounce    time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Generate an offer for every .txt, .md and .eml file under a directory",
	Long: `Walk a directory and generate one offer per inbox file, one file at a
time. Files with identical content are generated once.

Examples:
  offergen batch ./inbox
  offergen batch ./inbox --accessory led --export offers.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ing := ingest.NewIngestor(a.Processor, batchAccessories, recordHook(a), a.Logger)
		results, stats, err := ing.IngestDirectory(cmd.Context(), args[0], batchSkipHidden)
		if err != nil {
			return reportError(a, err)
		}

		out := cmd.OutOrStdout()
		if strings.EqualFold(outputFormat, "json") {
			if err := printJSON(out, map[string]any{"results": results, "stats": stats}); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				printFileResult(cmd, r)
			}
			fmt.Fprintf(out, "Batch complete: matched %d, generated %d, duplicates %d, failed %d\n",
				stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)
		}

		if batchExport != "" {
			if err := writeExport(cmd.Context(), a, batchExport, "", ""); err != nil {
				return reportError(a, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "History exported to %s\n", batchExport)
		}
		if stats.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", stats.Failed, stats.Matched)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Watch inbox directories and generate offers for new files",
	Long: `Watch directories recursively and generate an offer whenever a .txt,
.md or .eml file is created or written. Files are processed one at a time.
Stop with Ctrl+C.

Examples:
  offergen watch ./inbox
  offergen watch ./inbox ./mail --initial-scan --debounce 2s`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ing := ingest.NewIngestor(a.Processor, batchAccessories, recordHook(a), a.Logger)
		fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s\n", strings.Join(args, ", "))
		return ing.Watch(cmd.Context(), ingest.WatchConfig{
			Roots:       args,
			InitialScan: watchInitialScan,
			SkipHidden:  batchSkipHidden,
			Debounce:    watchDebounce,
		}, func(r ingest.FileResult, err error) {
			if err != nil {
				r.Err = err.Error()
			}
			printFileResult(cmd, r)
		})
	},
}

func recordHook(a *app.App) ingest.ResultHook {
	return func(ctx context.Context, _ string, res *pipeline.Result, err error) {
		a.Record(ctx, res, err, constants.OfferStatusGenerated)
	}
}

func printFileResult(cmd *cobra.Command, r ingest.FileResult) {
	name := filepath.Base(r.Path)
	switch {
	case r.Err != "":
		fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s [%s]: %s\n", name, r.Code, r.Err)
	case r.Deduplicated:
		fmt.Fprintf(cmd.OutOrStdout(), "SKIP %s (duplicate content)\n", name)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "OK   %s -> %s (%.2f) %s\n", name, r.OfferNumber, r.NetTotal, r.DocumentPath)
	}
}

func writeExport(ctx context.Context, a *app.App, path, from, to string) error {
	b, err := a.Service.Export(ctx, from, to)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func init() {
	for _, c := range []*cobra.Command{batchCmd, watchCmd} {
		c.Flags().StringSliceVar(&batchAccessories, "accessory", nil, "accessory applied to every offer (repeatable)")
		c.Flags().BoolVar(&batchSkipHidden, "skip-hidden", true, "skip dot files and directories")
	}
	batchCmd.Flags().StringVar(&batchExport, "export", "", "write the offer history workbook here afterwards")
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "also process files already present")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", time.Second, "wait for writes to settle")
}
