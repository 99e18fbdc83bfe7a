package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/offer-generator/internal/catalog"
	"github.com/joseph-ayodele/offer-generator/internal/document"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the vehicle and refrigeration unit catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.yaml>",
	Short: "Replace the catalog with a price list workbook or YAML fixture",
	Long: `Replace the catalog with the contents of a file. Workbooks may use the
shop's Polish headers ("Marka", "Kubatura (m³)", "Cena cennikowa (PLN)", ...)
or the English ones written by "catalog dump". Nothing is written if the file
fails validation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Admin.ImportFile(cmd.Context(), args[0])
		if err != nil {
			return reportError(a, err)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
		return printCounts(cmd, "Imported "+res.Source, res.Counts)
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the catalog with the built-in demo data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Admin.Seed(cmd.Context())
		if err != nil {
			return reportError(a, err)
		}
		return printCounts(cmd, "Seeded demo catalog", res.Counts)
	},
}

var catalogListCmd = &cobra.Command{
	Use:       "list [vehicles|units|heating|kits]",
	Short:     "Print catalog entries",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"vehicles", "units", "heating", "kits"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.Catalog.Snapshot(cmd.Context())
		if err != nil {
			return reportError(a, err)
		}
		which := "vehicles"
		if len(args) == 1 {
			which = args[0]
		}
		if strings.EqualFold(outputFormat, "json") {
			switch which {
			case "units":
				return printJSON(cmd.OutOrStdout(), snap.Units)
			case "heating":
				return printJSON(cmd.OutOrStdout(), snap.HeatingOptions)
			case "kits":
				return printJSON(cmd.OutOrStdout(), snap.HeaterKits)
			}
			return printJSON(cmd.OutOrStdout(), snap.Vehicles)
		}

		cur := a.Config.Pricing.Currency
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		switch which {
		case "vehicles":
			fmt.Fprintln(tw, "BRAND\tMODEL\tVOLUME\tCONVERSION\tPLYWOOD\tWHEEL ARCHES")
			for _, v := range snap.Vehicles {
				fmt.Fprintf(tw, "%s\t%s\t%g\t%s\t%s\t%s\n", v.Brand, v.Model, v.CargoVolume,
					document.FormatMoney(v.ConversionPrice, cur), document.FormatMoney(v.PlywoodPrice, cur), document.FormatMoney(v.WheelArchPrice, cur))
			}
		case "units":
			fmt.Fprintln(tw, "MODEL\tLINE\tREFRIGERANT\tLIST PRICE")
			for _, u := range snap.Units {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Model, u.ProductLine, u.Refrigerant, document.FormatMoney(u.ListPrice, cur))
			}
		case "heating":
			fmt.Fprintln(tw, "UNIT\tOPTION\tPRICE")
			for _, h := range snap.HeatingOptions {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", h.UnitModel, h.OptionModel, document.FormatMoney(h.Price, cur))
			}
		case "kits":
			fmt.Fprintln(tw, "HEATERS\tOPTION\tPRICE")
			for _, k := range snap.HeaterKits {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Heaters, k.OptionModel, document.FormatMoney(k.Price, cur))
			}
		default:
			return fmt.Errorf("unknown list %q", which)
		}
		return tw.Flush()
	},
}

var catalogDumpCmd = &cobra.Command{
	Use:   "dump <out.xlsx|out.yaml>",
	Short: "Write the current catalog to a workbook or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.Catalog.Snapshot(cmd.Context())
		if err != nil {
			return reportError(a, err)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if strings.HasSuffix(strings.ToLower(args[0]), ".xlsx") {
			err = catalog.WriteXLSX(f, snap)
		} else {
			err = catalog.WriteYAML(f, snap)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return reportError(a, err)
		}
		return printCounts(cmd, "Wrote "+args[0], snap.Counts())
	},
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) error {
	if strings.EqualFold(outputFormat, "json") {
		return printJSON(cmd.OutOrStdout(), map[string]any{"message": title, "counts": counts})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d vehicles, %d units, %d heating options, %d heater kits\n",
		title, counts["vehicles"], counts["refrigeration_units"], counts["heating_options"], counts["heater_kits"])
	return nil
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd, catalogSeedCmd, catalogListCmd, catalogDumpCmd)
}
