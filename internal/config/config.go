// Package config provides configuration loading and structs for the bunrui CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the default config path.
const EnvConfigPath = "BUNRUI_CONFIG"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogFile   string          `yaml:"log_file"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Training  TrainingConfig  `yaml:"training"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Model is the registered name of the model served at startup.
	Model string `yaml:"model"`
}

// StorageConfig holds the registry database and the directory for saved models.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	ModelDir     string `yaml:"model_dir"`
}

// EmbeddingConfig selects the word embedding.
type EmbeddingConfig struct {
	// Path to a word2vec file; empty selects the hash embedding.
	Path string `yaml:"path"`
	// Format is "text" or "binary" (GoogleNews style); ".gz" files are decompressed.
	Format     string `yaml:"format"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// Binary reports whether the embedding file is in binary word2vec format.
func (e *EmbeddingConfig) Binary() bool {
	return strings.EqualFold(e.Format, "binary")
}

// EncoderConfig holds text-to-tensor settings.
type EncoderConfig struct {
	MaxLength          int    `yaml:"max_length"`
	AlternateIngestion bool   `yaml:"alternate_ingestion"`
	Strict             bool   `yaml:"strict"`
	Tokenizer          string `yaml:"tokenizer"`
}

// TrainingConfig holds dense network hyperparameters.
type TrainingConfig struct {
	Epochs       int     `yaml:"epochs"`
	Hidden       []int   `yaml:"hidden"`
	Activation   string  `yaml:"activation"`
	LearningRate float64 `yaml:"learning_rate"`
	BatchSize    int     `yaml:"batch_size"`
	Seed         int64   `yaml:"seed"`
	EmbeddingDim int     `yaml:"embedding_dim"`
}

// WatchConfig holds model hot-reload settings for the server.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms"`
}

// Debounce returns DebounceMs as a duration.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// DefaultPath returns $BUNRUI_CONFIG, or the system config path when unset.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return "/usr/local/etc/bunrui/config.yaml"
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.ModelDir = expandPath(cfg.Storage.ModelDir, configDir)
	cfg.Embedding.Path = expandPath(cfg.Embedding.Path, configDir)
	cfg.LogFile = expandPath(cfg.LogFile, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
