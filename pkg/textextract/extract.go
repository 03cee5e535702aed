package textextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

type ExtractedText struct {
	Content string
	Pages   int
}

// Extract pulls plain text out of an uploaded knowledge document.
// Supported types: pdf, txt. HTML is handled separately by the knowledge
// loader because it needs DOM-aware cleaning.
func Extract(data io.ReaderAt, size int64, fileType string) (*ExtractedText, error) {
	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "pdf", "application/pdf":
		return extractPDF(data, size)
	case "txt", "text/plain":
		return extractTXT(data, size)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

func SupportedTypes() []string {
	return []string{".pdf", ".txt", ".html"}
}

func extractPDF(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	if strings.TrimSpace(buf.String()) == "" {
		return nil, fmt.Errorf("no text extracted from PDF")
	}

	return &ExtractedText{
		Content: buf.String(),
		Pages:   numPages,
	}, nil
}

func extractTXT(data io.ReaderAt, size int64) (*ExtractedText, error) {
	buf := make([]byte, size)
	_, err := data.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read TXT: %w", err)
	}

	return &ExtractedText{
		Content: string(bytes.TrimSpace(buf)),
		Pages:   1,
	}, nil
}
