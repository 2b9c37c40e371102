package corpus

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/bunrui/internal/extract"
)

//go:embed testdata/subjectkeywords.yaml
var sampleFS embed.FS

// Load reads a corpus from path, choosing the format by extension:
// .yaml/.yml/.json, .csv, .xlsx, or a directory of per-label sub-directories.
func Load(path string) (*Corpus, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat corpus: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path, extract.DefaultExtensions)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return LoadYAML(path)
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported corpus format: %s", path)
	}
}

// LoadYAML reads a mapping of label to list of texts. JSON objects are accepted too.
func LoadYAML(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses a label → texts mapping, keeping the document's key order.
// A scalar value is one text; non-string scalars are kept as decoded values.
func ParseYAML(data []byte) (*Corpus, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("parse corpus: empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("parse corpus: top level must be a mapping of label to texts")
	}
	c := New()
	for i := 0; i+1 < len(root.Content); i += 2 {
		label := root.Content[i].Value
		val := root.Content[i+1]
		switch val.Kind {
		case yaml.SequenceNode:
			c.Add(label)
			for _, item := range val.Content {
				c.Add(label, nodeValue(item))
			}
		default:
			c.Add(label, nodeValue(val))
		}
	}
	return c, nil
}

func nodeValue(n *yaml.Node) any {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" {
		return n.Value
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil
	}
	return v
}

// LoadCSV reads rows of "label,text" after a header row.
func LoadCSV(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads rows of "label,text" after a header row. Rows without a text column keep a
// nil entry so the encoder's malformed-input policy applies.
func ReadCSV(r io.Reader) (*Corpus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv corpus: %w", err)
	}
	return fromRows(records), nil
}

// LoadXLSX reads "label, text" rows from the first sheet after a header row.
func LoadXLSX(path string) (*Corpus, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("open workbook: no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

func fromRows(rows [][]string) *Corpus {
	c := New()
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		label := strings.TrimSpace(row[0])
		if label == "" {
			continue
		}
		if len(row) < 2 {
			c.Add(label, nil)
			continue
		}
		c.Add(label, row[1])
	}
	return c
}

// maxDocumentRunes bounds the text read from one corpus file.
const maxDocumentRunes = 10000

// LoadDir reads a directory with one sub-directory per label; every file with one of exts
// inside a label directory is one text. Labels and files are taken in name order.
func LoadDir(root string, exts []string) (*Corpus, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}
	ex := extract.NewExtractor(extract.WithMaxRunes(maxDocumentRunes))
	c := New()
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		label := d.Name()
		files, err := os.ReadDir(filepath.Join(root, label))
		if err != nil {
			return nil, fmt.Errorf("read label dir %s: %w", label, err)
		}
		c.Add(label)
		for _, f := range files {
			if f.IsDir() || !extract.Supported(f.Name(), exts) {
				continue
			}
			text, err := ex.Extract(filepath.Join(root, label, f.Name()))
			if err != nil {
				return nil, fmt.Errorf("extract %s/%s: %w", label, f.Name(), err)
			}
			c.Add(label, text)
		}
	}
	return c, nil
}

// SubjectKeywords returns the bundled sample corpus of subject keywords
// (mathematics, physics, theology).
func SubjectKeywords() *Corpus {
	data, err := sampleFS.ReadFile("testdata/subjectkeywords.yaml")
	if err != nil {
		panic(err)
	}
	c, err := ParseYAML(data)
	if err != nil {
		panic(err)
	}
	return c
}
