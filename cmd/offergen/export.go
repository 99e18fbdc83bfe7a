package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exportFrom string
	exportTo   string
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored offers to an XLSX workbook",
	Long: `Export the offer history. With only --from the window ends today; with
neither flag every stored offer is exported.

Examples:
  offergen export --out offers.xlsx
  offergen export --from 2026-10-01 --to 2026-10-31 --out october.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := writeExport(cmd.Context(), a, exportOut, exportFrom, exportTo); err != nil {
			return reportError(a, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "from date YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "to date YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportOut, "out", "offers.xlsx", "output XLSX file")
}
