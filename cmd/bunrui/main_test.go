package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/embedding"
	"github.com/hyperjump/bunrui/internal/encoder"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/internal/nn/dense"
	"github.com/hyperjump/bunrui/internal/storage"
	"github.com/hyperjump/bunrui/internal/tokenize"
	"go.uber.org/zap"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after text are moved first",
			args:     []string{"quantum field theory", "-top", "3"},
			expected: []string{"-top", "3", "quantum field theory"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-top", "3", "quantum field theory"},
			expected: []string{"-top", "3", "quantum field theory"},
		},
		{
			name:     "text only returns unchanged",
			args:     []string{"quantum field theory"},
			expected: []string{"quantum field theory"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"linear", "algebra", "-output", "json"},
			expected: []string{"-output", "json", "linear", "algebra"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoinText(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"algebra"}, "algebra"},
		{"multiple words", []string{"linear", "algebra"}, "linear algebra"},
		{"quoted phrase", []string{"linear algebra"}, "linear algebra"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinText(tt.args); got != tt.expected {
				t.Errorf("joinText(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestArtifactPrefix(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/m/subjects", "/m/subjects"},
		{"/m/subjects.zip", "/m/subjects"},
		{"/m/subjects.ZIP", "/m/subjects"},
		{"/m/v1.2", "/m/v1.2"},
	}
	for _, tt := range tests {
		if got := artifactPrefix(tt.path); got != tt.want {
			t.Errorf("artifactPrefix(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestResolveModelPath(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	loose := filepath.Join(dir, "loose")
	if err := os.WriteFile(loose+".json", []byte(`{"kind":"dense"}`), 0600); err != nil {
		t.Fatal(err)
	}
	packed := filepath.Join(dir, "packed")
	if err := os.WriteFile(packed+".zip", []byte("PK"), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := storage.NewSQLiteRegistry(filepath.Join(dir, "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()
	if _, err := reg.Register(ctx, &models.ModelInput{Name: "subjects", Prefix: packed + ".zip", Kind: "dense", Labels: []string{"a"}, MaxLength: 15}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		reg  storage.Registry
		ref  string
		want string
	}{
		{"registered name", reg, "subjects", packed + ".zip"},
		{"loose prefix", reg, loose, loose},
		{"bare prefix of archive", nil, packed, packed + ".zip"},
		{"explicit archive", nil, packed + ".zip", packed + ".zip"},
		{"unknown prefix is returned as is", nil, filepath.Join(dir, "missing"), filepath.Join(dir, "missing")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveModelPath(ctx, tt.reg, tt.ref)
			if err != nil {
				t.Fatalf("resolveModelPath: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveModelPath(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestDenseBuilder(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	t.Run("embedded vectors", func(t *testing.T) {
		enc := encoder.Config{VectorSize: 4, MaxLength: 3}
		build := denseBuilder(enc, networkOptions(&cfg.Training, false, zap.NewNop()))
		m, err := build(&encoder.TrainingSet{Labels: []string{"a", "b"}})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		arch := m.(*dense.Network).Architecture()
		if arch.Inputs != 12 || arch.Outputs != 2 || arch.VocabSize != 0 {
			t.Errorf("architecture = %+v", arch)
		}
	})

	t.Run("word index sequences", func(t *testing.T) {
		enc := encoder.Config{MaxLength: 5, AlternateIngestion: true}
		vocab := tokenize.FitVocabulary([]string{"linear algebra", "quantum physics"}, tokenize.WhitespaceTokenizer{})
		build := denseBuilder(enc, networkOptions(&cfg.Training, true, zap.NewNop()))
		m, err := build(&encoder.TrainingSet{Labels: []string{"a", "b", "c"}, Vocabulary: vocab})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		arch := m.(*dense.Network).Architecture()
		if arch.Inputs != 5 || arch.Outputs != 3 || arch.VocabSize != vocab.Size() {
			t.Errorf("architecture = %+v", arch)
		}
		if arch.EmbeddingDim != cfg.Training.EmbeddingDim {
			t.Errorf("embedding dim = %d, want %d", arch.EmbeddingDim, cfg.Training.EmbeddingDim)
		}
	})
}

func TestNewEmbedding_hashWhenNoPath(t *testing.T) {
	emb, err := newEmbedding(&config.EmbeddingConfig{Dimensions: 8, CacheSize: 16}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := emb.(*embedding.CachedEmbedding); !ok {
		t.Errorf("expected cached embedding, got %T", emb)
	}
	if emb.Dimensions() != 8 {
		t.Errorf("dimensions = %d, want 8", emb.Dimensions())
	}

	emb, err = newEmbedding(&config.EmbeddingConfig{Dimensions: 8}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := emb.(*embedding.HashEmbedding); !ok {
		t.Errorf("expected hash embedding without cache, got %T", emb)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(config.DefaultPath())
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_missingDefaultUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, filepath.Join(dir, "absent.yaml"))
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(config.DefaultPath())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty", resolved)
	}
	if cfg.Encoder.MaxLength != 15 || cfg.Server.Port != 8080 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
encoder:
  max_length: 20
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 || cfg.Encoder.MaxLength != 20 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, _, err := loadConfig(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}
