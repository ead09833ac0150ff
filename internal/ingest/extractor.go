package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extractor produces per-page text from raw document bytes, capped at the
// configured page count.
type Extractor interface {
	Pages(ctx context.Context, data []byte) ([]Page, error)
}

type pdfExtractor struct {
	maxPages int
}

func NewPDFExtractor(maxPages int) Extractor {
	return &pdfExtractor{maxPages: maxPages}
}

func (e *pdfExtractor) Pages(ctx context.Context, data []byte) ([]Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf data")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	total := reader.NumPage()
	if e.maxPages > 0 && total > e.maxPages {
		total = e.maxPages
	}
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page should not sink the document.
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
