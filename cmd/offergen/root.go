package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/app"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/document"
	"github.com/joseph-ayodele/offer-generator/internal/pipeline"
)

var (
	envFile      string
	dbURL        string
	logLevel     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "offergen",
	Short: "Generate refrigerated van conversion offers from free-form text",
	Long: `offergen turns a free-form client request into a priced PDF offer.

The text is sent to the completion endpoint, the extracted vehicle is checked
against the catalog database, prices are summed and a PDF quote is written.

Configuration comes from the environment (or a .env file): OPENAI_API_KEY,
DB_URL, OUTPUT_DIR, LOGO_PATH, OFFER_PHOTOS, CURRENCY and friends.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "catalog database (overrides DB_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(generateCmd, rebuildCmd, batchCmd, watchCmd, catalogCmd, exportCmd)
}

// openApp loads configuration and wires the application for one command.
func openApp(cmd *cobra.Command) (*app.App, error) {
	common.LoadDotEnv(nil, envFile)
	cfg := common.LoadConfig()
	if dbURL != "" {
		cfg.Database.DSN = dbURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err := common.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return app.New(cmd.Context(), cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult writes a generation result in the selected format.
func printResult(w io.Writer, res *pipeline.Result) error {
	if strings.EqualFold(outputFormat, "json") {
		return printJSON(w, map[string]any{
			"request_id":    res.RequestID,
			"offer":         res.Offer,
			"summary":       res.Summary,
			"warnings":      res.Warnings,
			"document_path": res.DocumentPath,
		})
	}
	fmt.Fprintf(w, "Offer %s (%s)\n", res.Offer.OfferNumber, res.Offer.OfferDate)
	for _, l := range res.Summary.Lines {
		fmt.Fprintf(w, "  %-28s %s\n", l.Label, document.FormatMoney(l.Amount, res.Summary.Currency))
	}
	fmt.Fprintf(w, "  %-28s %s\n", "Net total", document.FormatMoney(res.Summary.NetTotal, res.Summary.Currency))
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if res.DocumentPath != "" {
		fmt.Fprintf(w, "Document: %s\n", res.DocumentPath)
	}
	return nil
}

// reportError prints the code and detail of a pipeline failure to stderr.
func reportError(a *app.App, err error) error {
	code := common.ErrorCode(err)
	a.Logger.Debug("offergen.failed", zap.String("code", code), zap.Error(err))
	if code != "" {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", code, err)
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Detail != "" {
		fmt.Fprintf(os.Stderr, "detail: %s\n", appErr.Detail)
	}
	return err
}
