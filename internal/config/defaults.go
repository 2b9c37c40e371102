package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/bunrui/data/db/registry.db"
	}
	if cfg.Storage.ModelDir == "" {
		cfg.Storage.ModelDir = "/usr/local/var/bunrui/data/models"
	}
	if cfg.Embedding.Format == "" {
		cfg.Embedding.Format = "text"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 100
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Encoder.MaxLength == 0 {
		cfg.Encoder.MaxLength = 15
	}
	if cfg.Encoder.Tokenizer == "" {
		cfg.Encoder.Tokenizer = "standard"
	}
	if cfg.Training.Epochs == 0 {
		cfg.Training.Epochs = 10
	}
	if cfg.Training.Hidden == nil {
		cfg.Training.Hidden = []int{64}
	}
	if cfg.Training.Activation == "" {
		cfg.Training.Activation = "relu"
	}
	if cfg.Training.LearningRate == 0 {
		cfg.Training.LearningRate = 0.05
	}
	if cfg.Training.BatchSize == 0 {
		cfg.Training.BatchSize = 16
	}
	if cfg.Training.Seed == 0 {
		cfg.Training.Seed = 1
	}
	if cfg.Training.EmbeddingDim == 0 {
		cfg.Training.EmbeddingDim = 16
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 400
	}
}
