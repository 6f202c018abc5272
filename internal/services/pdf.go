package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFService extracts plain text from uploaded PDF documents.
type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// ExtractText returns the page texts joined with blank lines, in page order,
// along with the page count. A page that yields no text contributes an empty
// string; only a document-level read failure returns an error.
func (s *PDFService) ExtractText(src io.ReaderAt, size int64) (string, int, error) {
	reader, err := pdf.NewReader(src, size)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	pageCount := reader.NumPage()
	texts := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only or damaged pages count as empty rather than
			// failing the whole document.
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}

	return strings.TrimSpace(strings.Join(texts, "\n\n")), pageCount, nil
}
