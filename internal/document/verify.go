package document

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// VerifyPDF re-reads a written document and returns its page count. A file
// that does not parse or has no pages is an error.
func VerifyPDF(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	pageCount, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	if pageCount < 1 {
		return 0, fmt.Errorf("PDF %s has no pages", path)
	}
	return pageCount, nil
}
