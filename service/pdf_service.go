package service

import (
	"bytes"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"compliance-rag/types"
)

// PDFService extracts plain text from compliance PDFs.
type PDFService struct {
	documents map[string]types.DocumentMetadata
}

// NewPDFService creates an extraction service. The documents map carries
// per-file source metadata keyed by PDF filename; files without an entry get
// a title derived from the filename.
func NewPDFService(documents map[string]types.DocumentMetadata) *PDFService {
	return &PDFService{
		documents: documents,
	}
}

// ExtractText pulls the full plain text out of a PDF file.
func (s *PDFService) ExtractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read extracted text: %w", err)
	}

	return buf.String(), nil
}

// Extract builds a RawDocument from a PDF file, attaching source metadata.
func (s *PDFService) Extract(filePath string) (*types.RawDocument, error) {
	text, err := s.ExtractText(filePath)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	log.Printf("Extracted %d characters from %s", len(text), filename)

	return &types.RawDocument{
		Filename: filename,
		Text:     text,
		Metadata: s.MetadataFor(filename),
	}, nil
}

// MetadataFor looks up configured source metadata for a PDF filename.
func (s *PDFService) MetadataFor(filename string) types.DocumentMetadata {
	if meta, ok := s.documents[filename]; ok {
		return meta
	}
	return types.DocumentMetadata{
		Title: GetFileNameWithoutExt(filename),
	}
}

// GetFileNameWithoutExt extracts the filename without extension from a path.
func GetFileNameWithoutExt(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx != -1 {
		base = base[:idx]
	}
	return base
}
