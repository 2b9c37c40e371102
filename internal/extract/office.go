package extract

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/lu4p/cat"
)

const (
	docxDefaultBody = "word/document.xml"
	contentTypes    = "[Content_Types].xml"
	docxBodyType    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// wordText matches a <w:t> run with any attributes.
	wordText = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	// overrideTag matches one Override element of [Content_Types].xml.
	overrideTag = regexp.MustCompile(`<Override\s[^>]*>`)
	partName    = regexp.MustCompile(`PartName="([^"]+)"`)
	xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
)

// extractDOCX reads the <w:t> runs of the main document part. Documents without runs are
// handed to cat, which also covers older Word layouts.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}
	body := docxBodyPath(zr)
	data, err := readZipFile(zr, body)
	if err != nil {
		return "", fmt.Errorf("read DOCX %s: %w", body, err)
	}
	runs := wordText.FindAllSubmatch(data, -1)
	if len(runs) == 0 {
		return extractCat(content)
	}
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(xmlEntities.Replace(string(r[1])))
		b.WriteByte(' ')
	}
	return b.String(), nil
}

// extractCat extracts .odt, .rtf and plain-paragraph .docx text with lu4p/cat.
func extractCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract office document: %w", err)
	}
	return text, nil
}

// docxBodyPath returns the main document part named in [Content_Types].xml, or the
// conventional word/document.xml.
func docxBodyPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypes)
	if err != nil {
		return docxDefaultBody
	}
	for _, tag := range overrideTag.FindAll(data, -1) {
		if !bytes.Contains(tag, []byte(`ContentType="`+docxBodyType+`"`)) {
			continue
		}
		if m := partName.FindSubmatch(tag); m != nil {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultBody
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}
