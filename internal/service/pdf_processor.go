package service

import (
	"bytes"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"docsign-service/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// PDFProcessor inspects rendered artifacts.
type PDFProcessor struct {
	logger domain.Logger
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(logger domain.Logger) *PDFProcessor {
	return &PDFProcessor{
		logger: logger,
	}
}

// CountPages parses the artifact and returns its page count. Reflow during
// printing can change the page count, so it is never taken from the input.
func (p *PDFProcessor) CountPages(pdfBytes []byte) (int, error) {
	if !bytes.HasPrefix(pdfBytes, pdfMagic) {
		return 0, fmt.Errorf("artifact is not a PDF (%d bytes)", len(pdfBytes))
	}

	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("artifact has no pages")
	}

	p.logger.Debug("Counted artifact pages", "pages", pages, "bytes", len(pdfBytes))
	return pages, nil
}
