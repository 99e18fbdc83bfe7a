package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/utils"
)

// Page geometry in millimetres (A4 portrait).
const (
	headerHeight   = 40.0
	footerReserve  = 30.0
	marginLeft     = 10.0
	bodyTop        = 45.0
	marginRight    = 80.0
	bodyWidth      = 120.0
	photoX         = 140.0
	photoWidth     = 60.0
	photoGap       = 5.0
	rowHeight      = 6.0
	sectionBarH    = 8.0
	logoX, logoY   = 10.0, 10.0
	logoMaxW       = 40.0
	logoMaxH       = 25.0
	utf8FontFamily = "offerfont"
	coreFontFamily = "Helvetica"
)

var (
	bandColor  = [3]int{158, 197, 215}
	textColor  = [3]int{33, 33, 33}
	mutedColor = [3]int{90, 90, 90}
)

// Branding is the shop identity printed in the header and footer.
type Branding struct {
	CompanyName string
	Phone       string
	Email       string
	Website     string
}

// AssembleRequest is one document to render. Empty LogoPath falls back to
// the assembler default; empty OutputPath generates a name in OutputDir.
type AssembleRequest struct {
	Layout     Layout
	Photos     []string
	LogoPath   string
	OutputPath string
}

// Assembler renders layouts into PDF files.
type Assembler struct {
	branding  Branding
	logoPath  string
	fontPath  string
	outputDir string
	images    *ImagePreparer
	logger    *zap.Logger

	logoWarn sync.Once
}

func NewAssembler(cfg common.DocumentConfig, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		branding: Branding{
			CompanyName: cfg.CompanyName,
			Phone:       cfg.Phone,
			Email:       cfg.Email,
			Website:     cfg.Website,
		},
		logoPath:  cfg.LogoPath,
		fontPath:  cfg.FontPath,
		outputDir: cfg.OutputDir,
		images:    NewImagePreparer(cfg.PhotoCacheDir, logger),
		logger:    logger,
	}
}

// Assemble renders the layout and returns the written file path. Photo and
// logo problems are logged and skipped; any failure to produce a readable
// file is DOCUMENT_WRITE_FAILURE.
func (a *Assembler) Assemble(ctx context.Context, req AssembleRequest) (string, error) {
	logger := common.LoggerFromContext(ctx, a.logger)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return "", common.NewAppError(common.CodeDocumentWrite, "document assembly cancelled", err)
	}

	out := req.OutputPath
	if out == "" {
		out = filepath.Join(a.outputDir, DefaultFileName(req.Layout.OfferNumber))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", common.NewAppError(common.CodeDocumentWrite, "cannot create output directory", err)
	}

	logo := a.loadLogo(logger, req.LogoPath)
	photos := a.images.PreparePhotos(ctx, req.Photos)

	pdf, family, tr := a.newDocument(logger)
	a.installBands(pdf, family, tr, logo, req.Layout)

	pdf.AddPage()
	writeBlocks(pdf, family, tr, req.Layout.Blocks)
	placePhotos(pdf, photos)

	if err := pdf.Error(); err != nil {
		return "", common.NewAppError(common.CodeDocumentWrite, "render failed", err)
	}
	if err := pdf.OutputFileAndClose(out); err != nil {
		return "", common.NewAppError(common.CodeDocumentWrite, "write failed", err).WithDetail(out)
	}
	pages, err := VerifyPDF(out)
	if err != nil {
		return "", common.NewAppError(common.CodeDocumentWrite, "written document is unreadable", err).WithDetail(out)
	}

	logger.Info("document.assemble.ok",
		zap.String("path", out),
		zap.Int("pages", pages),
		zap.Int("photos", len(photos)),
		zap.Bool("logo", logo != nil),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// DefaultFileName builds "offer_<number>_<short-id>.pdf".
func DefaultFileName(offerNumber string) string {
	number := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == '/', r == ' ', r == '.':
			return '-'
		}
		return -1
	}, offerNumber)
	if number == "" {
		number = "draft"
	}
	return fmt.Sprintf("offer_%s_%s.pdf", number, uuid.NewString()[:8])
}

func (a *Assembler) loadLogo(logger *zap.Logger, override string) *PreparedImage {
	path := override
	if path == "" {
		path = a.logoPath
	}
	if path == "" {
		a.logoWarn.Do(func() { logger.Warn("document.logo.missing", zap.String("reason", "no logo configured")) })
		return nil
	}
	img, err := a.images.PrepareLogo(path)
	if err != nil {
		a.logoWarn.Do(func() { logger.Warn("document.logo.missing", zap.String("path", path), zap.Error(err)) })
		return nil
	}
	return &img
}

// newDocument returns the PDF, the body font family and the text encoder.
// Without a UTF-8 font the core fonts need ASCII-folded cp1252 text.
func (a *Assembler) newDocument(logger *zap.Logger) (*fpdf.Fpdf, string, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, bodyTop, marginRight)
	pdf.SetAutoPageBreak(true, footerReserve)
	pdf.AliasNbPages("")
	pdf.SetCreator(a.branding.CompanyName, true)
	pdf.SetTitle("Offer", true)

	if a.fontPath != "" {
		_, err := os.Stat(a.fontPath)
		if err == nil {
			pdf.AddUTF8Font(utf8FontFamily, "", a.fontPath)
			pdf.AddUTF8Font(utf8FontFamily, "B", a.fontPath)
			return pdf, utf8FontFamily, func(s string) string { return s }
		}
		logger.Warn("document.font.missing", zap.String("path", a.fontPath), zap.Error(err))
	}
	cp := pdf.UnicodeTranslatorFromDescriptor("")
	return pdf, coreFontFamily, func(s string) string { return cp(utils.FoldASCII(s)) }
}

func (a *Assembler) installBands(pdf *fpdf.Fpdf, family string, tr func(string) string, logo *PreparedImage, l Layout) {
	pageW, pageH := pdf.GetPageSize()
	b := a.branding

	pdf.SetHeaderFuncMode(func() {
		pdf.SetFillColor(bandColor[0], bandColor[1], bandColor[2])
		pdf.Rect(0, 0, pageW, headerHeight, "F")
		if logo != nil {
			w, h := logoMaxW, logoMaxW*logo.Aspect()
			if h > logoMaxH {
				w, h = logoMaxH/logo.Aspect(), logoMaxH
			}
			pdf.ImageOptions(logo.Path, logoX, logoY, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		} else {
			pdf.SetTextColor(textColor[0], textColor[1], textColor[2])
			pdf.SetFont(family, "B", 18)
			pdf.SetXY(logoX, logoY+5)
			pdf.CellFormat(100, 10, tr(b.CompanyName), "", 0, "L", false, 0, "")
		}
		pdf.SetTextColor(textColor[0], textColor[1], textColor[2])
		pdf.SetFont(family, "B", 14)
		pdf.SetXY(pageW/2, 12)
		pdf.CellFormat(pageW/2-marginLeft, 8, tr("Offer "+l.OfferNumber), "", 2, "R", false, 0, "")
		pdf.SetFont(family, "", 10)
		pdf.CellFormat(pageW/2-marginLeft, 6, tr(l.OfferDate), "", 0, "R", false, 0, "")
	}, true)

	pdf.SetFooterFunc(func() {
		pdf.SetDrawColor(bandColor[0], bandColor[1], bandColor[2])
		pdf.SetLineWidth(0.5)
		pdf.Line(marginLeft, pageH-25, pageW-marginLeft, pageH-25)
		pdf.SetTextColor(mutedColor[0], mutedColor[1], mutedColor[2])
		pdf.SetFont(family, "", 9)

		contact := joinNonEmpty(" | ", b.CompanyName, b.Phone, b.Email, b.Website)
		pdf.SetXY(marginLeft, pageH-20)
		pdf.CellFormat(pageW-2*marginLeft, 5, tr(contact), "", 0, "C", false, 0, "")

		meta := joinNonEmpty(" | ",
			prefixed("Offer date: ", l.OfferDate),
			prefixed("Offer no.: ", l.OfferNumber),
			fmt.Sprintf("Page %d/{nb}", pdf.PageNo()))
		pdf.SetXY(marginLeft, pageH-15)
		pdf.CellFormat(pageW-2*marginLeft, 5, tr(meta), "", 0, "C", false, 0, "")
	})
}

func writeBlocks(pdf *fpdf.Fpdf, family string, tr func(string) string, blocks []Block) {
	for _, b := range blocks {
		pdf.SetFillColor(bandColor[0], bandColor[1], bandColor[2])
		pdf.SetTextColor(textColor[0], textColor[1], textColor[2])
		pdf.SetFont(family, "B", 12)
		pdf.SetX(marginLeft)
		pdf.CellFormat(bodyWidth, sectionBarH, tr(b.Title), "", 1, "L", true, 0, "")
		pdf.Ln(1)

		style, size := "", 11.0
		if b.Name == BlockTotal {
			style, size = "B", 13
		}
		pdf.SetFont(family, style, size)
		for _, r := range b.Rows {
			pdf.SetX(marginLeft)
			pdf.MultiCell(bodyWidth, rowHeight, tr(r.Text()), "", "L", false)
		}
		pdf.Ln(4)
	}
}

// placePhotos stacks photos in the right column starting on page one,
// moving to the next page when the column is full and appending pages past
// the end of the text.
func placePhotos(pdf *fpdf.Fpdf, photos []PreparedImage) {
	if len(photos) == 0 {
		return
	}
	_, pageH := pdf.GetPageSize()
	limit := pageH - footerReserve
	maxH := limit - bodyTop

	pdf.SetAutoPageBreak(false, 0)
	page := 1
	pdf.SetPage(page)
	y := bodyTop
	for _, ph := range photos {
		w, h := photoWidth, photoWidth*ph.Aspect()
		if h > maxH {
			w, h = maxH/ph.Aspect(), maxH
		}
		if y+h > limit {
			page++
			if page > pdf.PageCount() {
				pdf.SetPage(pdf.PageCount())
				pdf.AddPage()
			} else {
				pdf.SetPage(page)
			}
			y = bodyTop
		}
		pdf.ImageOptions(ph.Path, photoX, y, w, h, false, fpdf.ImageOptions{ImageType: imageType(ph.Path)}, 0, "")
		y += h + photoGap
	}
	pdf.SetPage(pdf.PageCount())
	pdf.SetAutoPageBreak(true, footerReserve)
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	default:
		return "JPG"
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func prefixed(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}
