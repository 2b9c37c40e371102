// Package extract reads the text of corpus files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/bunrui/pkg/utils"
)

// DefaultExtensions are the file types a corpus directory may contain.
var DefaultExtensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".odt", ".rtf"}

// Extractor turns document files into single-line corpus texts.
type Extractor struct {
	maxRunes int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxRunes clips every extracted text to n runes. Zero keeps the whole document.
func WithMaxRunes(n int) Option {
	return func(e *Extractor) { e.maxRunes = n }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text with whitespace collapsed to
// single spaces.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".odt", ".rtf":
		text, err = extractCat(content)
	default:
		text = extractPlain(content)
	}
	if err != nil {
		return "", err
	}
	return utils.Clip(utils.CollapseSpace(text), e.maxRunes), nil
}

// Supported reports whether path has one of exts (case-insensitive). Empty exts matches all.
func Supported(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
