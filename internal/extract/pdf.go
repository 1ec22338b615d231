package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFProvider extracts text from PDF uploads page by page. A page whose
// content cannot be decoded is skipped silently so one malformed page does
// not sink an otherwise readable document; only a failure to open the
// document at all abandons the PDF path.
type PDFProvider struct{}

func (p *PDFProvider) Name() string { return "pdf" }

func (p *PDFProvider) TryExtract(data []byte, mediaType string) (string, error) {
	if mediaType != MediaTypePDF {
		return "", ErrNotApplicable
	}
	pages, err := pdfPages(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	return strings.Join(collectPageTexts(pages), "\n"), nil
}

// pageSource is the per-page surface we need from the pdf library. It exists
// so the skip-on-failure behavior can be exercised without crafting malformed
// PDF fixtures byte by byte.
type pageSource interface {
	GetPlainText(fonts map[string]*pdf.Font) (string, error)
}

// pdfPages opens the document and collects its pages. The pdf library panics
// on some malformed inputs instead of returning an error, so the whole parse
// is fenced with a recover; any such panic abandons the PDF path.
func pdfPages(data []byte) (pages []pageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// collectPageTexts extracts each page independently, in document order.
// Pages that fail contribute nothing; pages that succeed with empty text
// still occupy a slot so the newline-joined result mirrors the document.
func collectPageTexts(pages []pageSource) []string {
	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		text, err := pageText(page)
		if err != nil {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}

// pageText fences a single page's extraction, converting panics from the
// pdf library into per-page errors.
func pageText(page pageSource) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page text panic: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}
