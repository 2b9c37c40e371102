package storage

import (
	"os"
	"path/filepath"
)

// ArtifactSuffixes are the endings a saved model appends to its prefix: label list, config
// and vocabulary, the model header and weights or graph, and the compact archive.
var ArtifactSuffixes = []string{
	"_classlabels.txt",
	"_config.json",
	"_vocabulary.json",
	".json",
	".weights",
	".onnx",
	".zip",
}

// IsArtifact reports whether path is one of the files of the model saved under prefix.
// A sibling model whose name merely starts with the prefix does not match.
func IsArtifact(prefix, path string) bool {
	if filepath.Dir(prefix) != filepath.Dir(path) {
		return false
	}
	stem, name := filepath.Base(prefix), filepath.Base(path)
	for _, s := range ArtifactSuffixes {
		if name == stem+s {
			return true
		}
	}
	return false
}

// ArtifactPaths returns the existing model files saved under prefix, in ArtifactSuffixes order.
func ArtifactPaths(prefix string) ([]string, error) {
	var paths []string
	for _, s := range ArtifactSuffixes {
		p := prefix + s
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if info.Mode().IsRegular() {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// ArtifactBytes returns the total size of the model files saved under prefix.
func ArtifactBytes(prefix string) (int64, error) {
	var total int64
	for _, s := range ArtifactSuffixes {
		info, err := os.Stat(prefix + s)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total, nil
}
