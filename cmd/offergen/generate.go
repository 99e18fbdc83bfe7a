package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
	"github.com/joseph-ayodele/offer-generator/internal/pipeline"
)

var (
	genText        string
	genFile        string
	genAccessories []string
	genPhotos      []string
	genNoPhotos    bool
	genLogo        string
	genOut         string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one offer PDF from text",
	Long: `Generate one offer from free-form text.

Examples:
  offergen generate --text "Fiat Ducato 13m3, Zanotti Z200, chłodnia Poznań"
  offergen generate --file request.txt --accessory led --accessory side_door
  cat mail.txt | offergen generate --file - --out offer.pdf --no-photos`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd.InOrStdin())
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		req := pipeline.Request{
			Text:        text,
			Accessories: genAccessories,
			LogoPath:    genLogo,
			OutputPath:  genOut,
		}
		if cmd.Flags().Changed("photo") {
			req.Photos = genPhotos
		}
		if genNoPhotos {
			req.Photos = []string{}
		}
		res, err := a.Processor.Generate(cmd.Context(), req)
		a.Record(cmd.Context(), res, err, constants.OfferStatusGenerated)
		if err != nil {
			if res != nil && len(res.Warnings) > 0 {
				for _, w := range res.Warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
				}
			}
			return reportError(a, err)
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

var (
	rebuildID    string
	rebuildOffer string
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-price and re-render an edited or stored offer",
	Long: `Rebuild skips the completion call and the catalog cross-reference, so
prices edited in the offer JSON are kept.

Examples:
  offergen rebuild --offer edited.json --accessory meat_rails
  offergen rebuild --id 6c0e8d1e-3c55-4f57-9b1b-2a0d0e6d5a11`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (rebuildID == "") == (rebuildOffer == "") {
			return errors.New("exactly one of --id or --offer is required")
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var offer *entity.Offer
		accessories := genAccessories
		if rebuildOffer != "" {
			b, err := os.ReadFile(rebuildOffer)
			if err != nil {
				return err
			}
			offer = &entity.Offer{}
			if err := json.Unmarshal(b, offer); err != nil {
				return common.NewAppError(common.CodeInvalidJSON, "offer file is not valid JSON", err)
			}
		} else {
			rec, err := a.Service.GetOffer(cmd.Context(), rebuildID)
			if err != nil {
				return reportError(a, err)
			}
			offer = rec.Offer
			if !cmd.Flags().Changed("accessory") {
				accessories = rec.Accessories
			}
		}

		req := pipeline.RebuildRequest{Offer: offer, Accessories: accessories, LogoPath: genLogo, OutputPath: genOut}
		if genNoPhotos {
			req.Photos = []string{}
		}
		res, err := a.Processor.Rebuild(cmd.Context(), req)
		a.Record(cmd.Context(), res, err, constants.OfferStatusRebuilt)
		if err != nil {
			return reportError(a, err)
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

func readText(stdin io.Reader) (string, error) {
	switch {
	case genText != "" && genFile != "":
		return "", errors.New("use either --text or --file, not both")
	case genText != "":
		return genText, nil
	case genFile == "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	case genFile != "":
		b, err := os.ReadFile(genFile)
		return string(b), err
	}
	return "", errors.New("--text or --file is required")
}

func init() {
	generateCmd.Flags().StringVar(&genText, "text", "", "offer request text")
	generateCmd.Flags().StringVar(&genFile, "file", "", "read the request text from a file (- for stdin)")
	generateCmd.Flags().StringSliceVar(&genPhotos, "photo", nil, "photo for the right-hand column (repeatable; default OFFER_PHOTOS)")

	for _, c := range []*cobra.Command{generateCmd, rebuildCmd} {
		c.Flags().StringSliceVar(&genAccessories, "accessory", nil, "accessory key or name (repeatable): "+strings.Join(constants.AccessoriesAsStringSlice(), ", "))
		_ = c.RegisterFlagCompletionFunc("accessory", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return constants.AccessoriesAsStringSlice(), cobra.ShellCompDirectiveNoFileComp
		})
		c.Flags().BoolVar(&genNoPhotos, "no-photos", false, "render without photos")
		c.Flags().StringVar(&genLogo, "logo", "", "logo image (default LOGO_PATH)")
		c.Flags().StringVar(&genOut, "out", "", "output PDF path (default OUTPUT_DIR/offer_<number>_<id>.pdf)")
	}
	rebuildCmd.Flags().StringVar(&rebuildID, "id", "", "stored offer id")
	rebuildCmd.Flags().StringVar(&rebuildOffer, "offer", "", "offer JSON file")
}
