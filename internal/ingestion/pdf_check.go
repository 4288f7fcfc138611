package ingestion

import (
	"fmt"
	"os"
)

const (
	// pdfMagic is the byte prefix every PDF file starts with.
	pdfMagic = "%PDF-"
	// sniffSize is the number of bytes read to identify a file.
	sniffSize = 8
)

// SniffPDF checks that the file at path actually starts with the PDF magic
// number. Extension checks alone let renamed Word documents and plain text
// slip through to the service.
func SniffPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, sniffSize)
	n, err := f.Read(buf)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !IsPDFData(buf[:n]) {
		return fmt.Errorf("%s does not look like a PDF file", path)
	}

	return nil
}

// IsPDFData reports whether content starts with the PDF magic number.
func IsPDFData(content []byte) bool {
	if len(content) < len(pdfMagic) {
		return false
	}
	return string(content[:len(pdfMagic)]) == pdfMagic
}
