package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/hyperjump/bunrui/internal/classifier"
)

// ClassifierNNLibVec names word-embedding neural classifiers in compact archives.
const ClassifierNNLibVec = "nnlibvec"

const (
	compactStem     = "model"
	compactMetaFile = "modelconfig.json"
)

// ErrUnknownClassifier is returned for compact archives of another classifier family.
var ErrUnknownClassifier = errors.New("unknown classifier in compact model")

type compactMeta struct {
	Classifier string `json:"classifier"`
}

// SaveCompact writes tm as a single zip archive at path holding every artifact plus a
// modelconfig.json naming the classifier family.
func SaveCompact(path string, tm *classifier.TrainedModel) error {
	if !tm.Trained() {
		return classifier.ErrNotTrained
	}
	tmp, err := os.MkdirTemp("", "bunrui-compact-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)
	if err := Save(filepath.Join(tmp, compactStem), tm); err != nil {
		return err
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		return fmt.Errorf("read temp dir: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create compact model: %w", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	meta, err := json.Marshal(compactMeta{Classifier: ClassifierNNLibVec})
	if err != nil {
		return fmt.Errorf("marshal compact metadata: %w", err)
	}
	w, err := zw.Create(compactMetaFile)
	if err != nil {
		return fmt.Errorf("add compact metadata: %w", err)
	}
	if _, err := w.Write(meta); err != nil {
		return fmt.Errorf("write compact metadata: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := addFile(zw, filepath.Join(tmp, e.Name()), e.Name()); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish compact model: %w", err)
	}
	return f.Close()
}

func addFile(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close()
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ClassifierName returns the classifier family recorded in the compact archive at path.
func ClassifierName(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open compact model: %w", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != compactMetaFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open compact metadata: %w", err)
		}
		defer rc.Close()
		var meta compactMeta
		if err := json.NewDecoder(rc).Decode(&meta); err != nil {
			return "", fmt.Errorf("parse compact metadata: %w", err)
		}
		return meta.Classifier, nil
	}
	return "", fmt.Errorf("%w: %s has no %s", ErrUnknownClassifier, path, compactMetaFile)
}

// LoadCompact loads a model written by SaveCompact.
func LoadCompact(path string, opts ...Option) (*classifier.TrainedModel, error) {
	name, err := ClassifierName(path)
	if err != nil {
		return nil, err
	}
	if name != ClassifierNNLibVec {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifier, name)
	}
	o := newOptions(opts)
	dir := o.extractDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "bunrui-compact-")
		if err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}
	if err := extract(path, dir); err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, compactStem), opts...)
}

func extract(path, dir string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open compact model: %w", err)
	}
	defer zr.Close()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create extract dir: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == compactMetaFile || f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(f.Name)
		if name != f.Name || !strings.HasPrefix(name, compactStem) {
			return fmt.Errorf("unexpected entry %q in compact model", f.Name)
		}
		if err := extractFile(f, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}
