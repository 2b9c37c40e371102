package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns the text of every non-empty page. Unreadable pages are skipped so that
// one damaged page does not drop the whole example.
func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var b strings.Builder
	var failed int
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			failed++
			continue
		}
		b.WriteString(text)
		b.WriteByte(' ')
	}
	if b.Len() == 0 && failed > 0 {
		return "", fmt.Errorf("no readable text in %d PDF page(s)", failed)
	}
	return b.String(), nil
}
