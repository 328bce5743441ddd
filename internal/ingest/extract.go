package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"saturday/internal/intel"
)

// supportedExtensions are the file types the pipeline knows how to read.
// Everything else in the data folder is silently skipped.
var supportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".pdf":  true,
	".json": true,
}

// extractText reads a file and returns its plain-text content according
// to its extension: PDFs are extracted page by page, JSON files go
// through the threat-intel summarizers, everything else is read as UTF-8.
func extractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		text, err := intel.Summarize(data)
		if err != nil {
			return "", fmt.Errorf("summarizing intel feed: %w", err)
		}
		return text, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	}
}

// extractPDF concatenates the extracted text of every page, one page per
// line. Pages that fail to decode are skipped; the document only fails as
// a whole when it cannot be opened.
func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
