// Package main is the bunrui CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/bunrui/internal/classifier"
	"github.com/hyperjump/bunrui/internal/cli"
	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/corpus"
	"github.com/hyperjump/bunrui/internal/embedding"
	"github.com/hyperjump/bunrui/internal/encoder"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/internal/nn"
	"github.com/hyperjump/bunrui/internal/nn/dense"
	"github.com/hyperjump/bunrui/internal/persist"
	"github.com/hyperjump/bunrui/internal/server"
	"github.com/hyperjump/bunrui/internal/storage"
	"github.com/hyperjump/bunrui/internal/tokenize"
	"github.com/hyperjump/bunrui/internal/watcher"
	"github.com/hyperjump/bunrui/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present, and a missing default file yields the built-in defaults.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	isDefault := path == config.DefaultPath()
	if isDefault {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		if isDefault && errors.Is(err, os.ErrNotExist) {
			cfg = &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Variables from .env feed BUNRUI_CONFIG and friends; a missing file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "train":
		runTrain()
	case "score":
		runScore()
	case "serve", "server":
		runServe()
	case "models":
		runModels()
	case "version", "--version", "-v":
		fmt.Printf("bunrui version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and creates the logger shared by every subcommand.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	var logger *zap.Logger
	if cfg.LogFile != "" {
		logger, err = utils.NewFileLogger(debugMode, cfg.LogFile)
	} else {
		logger, err = utils.NewLogger(debugMode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

// argsReorder moves flags that appear after positional arguments to the front so that
// flag.Parse sees them, e.g. `bunrui score "some text" -top 3`.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinText joins positional args so that multi-word texts work with or without quotes.
func joinText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// newEmbedding returns the configured word2vec table, or the hash embedding when no path
// is set, behind an LRU cache when cache_size > 0.
func newEmbedding(cfg *config.EmbeddingConfig, logger *zap.Logger) (embedding.WordEmbedding, error) {
	var emb embedding.WordEmbedding
	if cfg.Path == "" {
		logger.Warn("no embedding path configured, using hash embedding", zap.Int("dimensions", cfg.Dimensions))
		emb = embedding.NewHashEmbedding(cfg.Dimensions)
	} else {
		start := time.Now()
		m, err := embedding.LoadWord2Vec(cfg.Path, cfg.Binary())
		if err != nil {
			return nil, err
		}
		logger.Info("embedding loaded",
			zap.String("path", cfg.Path),
			zap.Int("words", m.Len()),
			zap.Int("dimensions", m.Dimensions()),
			zap.Duration("took", time.Since(start)))
		emb = m
	}
	if cfg.CacheSize <= 0 {
		return emb, nil
	}
	return embedding.NewCachedEmbedding(emb, cfg.CacheSize)
}

// networkOptions maps the training section onto dense network options.
func networkOptions(cfg *config.TrainingConfig, alternate bool, logger *zap.Logger) []dense.Option {
	opts := []dense.Option{
		dense.WithHidden(cfg.Hidden...),
		dense.WithActivation(cfg.Activation),
		dense.WithLearningRate(cfg.LearningRate),
		dense.WithBatchSize(cfg.BatchSize),
		dense.WithSeed(cfg.Seed),
		dense.WithLogger(logger),
	}
	if alternate {
		opts = append(opts, dense.WithEmbeddingDim(cfg.EmbeddingDim))
	}
	return opts
}

// denseBuilder sizes the network from the encoded training set.
func denseBuilder(enc encoder.Config, opts []dense.Option) classifier.ModelBuilder {
	return func(ts *encoder.TrainingSet) (nn.Model, error) {
		if enc.AlternateIngestion {
			return dense.SequenceNetwork(len(ts.Labels), enc.MaxLength, ts.Vocabulary.Size(), opts...)
		}
		return dense.WordEmbedNetwork(len(ts.Labels), enc.MaxLength, enc.VectorSize, opts...)
	}
}

// isCompact reports whether path names a compact model archive.
func isCompact(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

// resolveModelPath maps a model reference to a prefix or archive path: a registered name,
// an archive, or a prefix. A bare prefix whose only artifact is "<prefix>.zip" resolves to
// the archive.
func resolveModelPath(ctx context.Context, reg storage.Registry, ref string) (string, error) {
	if reg != nil {
		rec, err := reg.GetByName(ctx, ref)
		if err == nil {
			return rec.Prefix, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
	}
	if isCompact(ref) {
		return ref, nil
	}
	if _, err := os.Stat(nn.HeaderPath(ref)); err != nil {
		if _, zipErr := os.Stat(ref + ".zip"); zipErr == nil {
			return ref + ".zip", nil
		}
	}
	return ref, nil
}

// openModel loads the model at path, a prefix or compact archive.
func openModel(cfg *config.Config, emb embedding.WordEmbedding, logger *zap.Logger, path string) (*classifier.TrainedModel, error) {
	opts := []persist.Option{
		persist.WithEmbedding(emb),
		persist.WithTokenizer(tokenize.New(cfg.Encoder.Tokenizer)),
		persist.WithMaxLength(cfg.Encoder.MaxLength),
		persist.WithLogger(logger),
	}
	if isCompact(path) {
		name, err := persist.ClassifierName(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("opening compact model", zap.String("path", path), zap.String("classifier", name))
		return persist.LoadCompact(path, opts...)
	}
	return persist.Load(path, opts...)
}

func openRegistry(cfg *config.Config) (*storage.SQLiteRegistry, error) {
	reg, err := storage.NewSQLiteRegistry(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open model registry: %w", err)
	}
	return reg, nil
}

func runTrain() {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-epoch loss)")
	name := fs.String("name", "", "model name in the registry (default: corpus file name)")
	out := fs.String("out", "", "output prefix, or a .zip path for a compact archive (default: <model_dir>/<name>)")
	compact := fs.Bool("compact", false, "save a compact .zip archive instead of loose files")
	sample := fs.Bool("sample", false, "train on the built-in subject keywords corpus")
	epochs := fs.Int("epochs", 0, "training epochs (default from config)")
	alternate := fs.Bool("alternate", false, "feed word-index sequences instead of embedded vectors")
	maxLen := fs.Int("maxlen", 0, "tokens per text (default from config)")
	strict := fs.Bool("strict", false, "fail on malformed corpus entries")
	noRegister := fs.Bool("no-register", false, "do not record the model in the registry")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bunrui train [flags] <corpus.yaml|.json|.csv|.xlsx|dir>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 && !*sample {
		fs.Usage()
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	var (
		corp *corpus.Corpus
		err  error
	)
	source := "subjectkeywords"
	if *sample {
		corp = corpus.SubjectKeywords()
	} else {
		source = fs.Arg(0)
		corp, err = corpus.Load(source)
		if err != nil {
			logger.Fatal("Failed to load corpus", zap.String("path", source), zap.Error(err))
		}
	}
	logger.Info("corpus loaded",
		zap.String("source", source),
		zap.Int("labels", corp.Len()),
		zap.Int("examples", corp.NumExamples()))

	if *epochs > 0 {
		cfg.Training.Epochs = *epochs
	}
	if *maxLen > 0 {
		cfg.Encoder.MaxLength = *maxLen
	}
	if *alternate {
		cfg.Encoder.AlternateIngestion = true
	}
	if *strict {
		cfg.Encoder.Strict = true
	}

	emb, err := newEmbedding(&cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to load embedding", zap.Error(err))
	}
	encCfg := encoder.Config{
		VectorSize:         emb.Dimensions(),
		MaxLength:          cfg.Encoder.MaxLength,
		AlternateIngestion: cfg.Encoder.AlternateIngestion,
		Strict:             cfg.Encoder.Strict,
	}
	enc, err := encoder.New(encCfg, emb,
		encoder.WithTokenizer(tokenize.New(cfg.Encoder.Tokenizer)),
		encoder.WithLogger(logger))
	if err != nil {
		logger.Fatal("Invalid encoder settings", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	clf := classifier.New(enc, classifier.WithLogger(logger))
	tm, err := clf.TrainWith(ctx, corp, denseBuilder(encCfg, networkOptions(&cfg.Training, encCfg.AlternateIngestion, logger)), cfg.Training.Epochs)
	if err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}
	logger.Info("training finished", zap.Duration("took", time.Since(start)))

	modelName := *name
	if modelName == "" {
		modelName = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	path := *out
	if path == "" {
		path = filepath.Join(cfg.Storage.ModelDir, modelName)
	}
	if *compact && !isCompact(path) {
		path += ".zip"
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("Failed to create model directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	if isCompact(path) {
		err = persist.SaveCompact(path, tm)
	} else {
		err = persist.Save(path, tm)
	}
	if err != nil {
		logger.Fatal("Failed to save model", zap.String("path", path), zap.Error(err))
	}

	if !*noRegister {
		reg, err := openRegistry(cfg)
		if err != nil {
			logger.Fatal("Registry unavailable", zap.Error(err))
		}
		defer reg.Close()
		metadata := map[string]string{"source": source, "epochs": fmt.Sprint(cfg.Training.Epochs)}
		if isCompact(path) {
			metadata["format"] = "compact"
		}
		rec, err := reg.Register(ctx, &models.ModelInput{
			Name:               modelName,
			Prefix:             path,
			Kind:               tm.Model().Kind(),
			Labels:             tm.Labels(),
			AlternateIngestion: encCfg.AlternateIngestion,
			MaxLength:          encCfg.MaxLength,
			VectorSize:         encCfg.VectorSize,
			Examples:           corp.NumExamples(),
			Metadata:           metadata,
		})
		if err != nil {
			logger.Fatal("Failed to register model", zap.Error(err))
		}
		logger.Debug("model registered", zap.String("id", rec.ID))
	}
	fmt.Printf("Model %q saved to %s (%d labels)\n", modelName, path, len(tm.Labels()))
}

func runScore() {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	model := fs.String("model", "", "registered model name, prefix, or .zip archive (default: server.model)")
	top := fs.Int("top", 0, "show only the N highest scores (0 = all)")
	outputFormat := fs.String("output", "text", "output format: text, compact (label<TAB>score lines), or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bunrui score [flags] [text...]\n\nWithout text, each line of stdin is scored.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ref := *model
	if ref == "" {
		ref = cfg.Server.Model
	}
	if ref == "" {
		fmt.Fprintln(os.Stderr, "No model given; use -model or set server.model in the config")
		os.Exit(1)
	}

	ctx := context.Background()
	var reg storage.Registry
	if r, err := openRegistry(cfg); err == nil {
		reg = r
		defer r.Close()
	} else {
		logger.Debug("registry unavailable, treating model as a path", zap.Error(err))
	}
	path, err := resolveModelPath(ctx, reg, ref)
	if err != nil {
		logger.Fatal("Failed to resolve model", zap.String("model", ref), zap.Error(err))
	}
	emb, err := newEmbedding(&cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to load embedding", zap.Error(err))
	}
	tm, err := openModel(cfg, emb, logger, path)
	if err != nil {
		logger.Fatal("Failed to load model", zap.String("path", path), zap.Error(err))
	}

	score := func(text string) {
		scores, err := tm.Score(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Scoring failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteScores(os.Stdout, text, scores, *top, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}

	if text := joinText(fs.Args()); text != "" {
		score(text)
		return
	}
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), models.MaxTextLength*4)
	for scanner.Scan() {
		if text := strings.TrimSpace(scanner.Text()); text != "" {
			score(text)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Read failed: %v\n", err)
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (reloads, requests)")
	model := fs.String("model", "", "registered model name, prefix, or .zip archive (default: server.model)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	reg, err := openRegistry(cfg)
	if err != nil {
		logger.Fatal("Registry unavailable", zap.Error(err))
	}
	defer reg.Close()

	emb, err := newEmbedding(&cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to load embedding", zap.Error(err))
	}
	loader := func(prefix string) (*classifier.TrainedModel, error) {
		path, err := resolveModelPath(context.Background(), nil, prefix)
		if err != nil {
			return nil, err
		}
		return openModel(cfg, emb, logger, path)
	}

	opts := []server.Option{server.WithRegistry(reg), server.WithLoader(loader)}
	ref := *model
	if ref == "" {
		ref = cfg.Server.Model
	}
	var watchPrefix string
	if ref != "" {
		path, err := resolveModelPath(context.Background(), reg, ref)
		if err != nil {
			logger.Fatal("Failed to resolve model", zap.String("model", ref), zap.Error(err))
		}
		tm, err := openModel(cfg, emb, logger, path)
		if err != nil {
			logger.Fatal("Failed to load model", zap.String("path", path), zap.Error(err))
		}
		opts = append(opts, server.WithModel(ref, tm))
		watchPrefix = artifactPrefix(path)
		logger.Info("serving model", zap.String("model", ref), zap.String("path", path), zap.Strings("labels", tm.Labels()))
	} else {
		logger.Warn("no model configured; scoring endpoints return 503 until one is loaded")
	}

	srv := server.NewServer(&cfg.Server, logger, opts...)

	var watchSvc *watcher.Watcher
	if cfg.Watch.Enabled && watchPrefix != "" {
		watchSvc = watcher.NewWatcher([]string{watchPrefix}, srv.Reload,
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Watch.Debounce()))
		if err := watchSvc.Start(context.Background()); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runModels() {
	if len(os.Args) < 3 {
		printModelsUsage()
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	limit := fs.Int("limit", 50, "number of models to list")
	purge := fs.Bool("purge", false, "also delete the model files (delete only)")
	_ = fs.Parse(argsReorder(os.Args[3:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	reg, err := openRegistry(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer reg.Close()
	ctx := context.Background()

	switch sub {
	case "list":
		recs, err := reg.List(ctx, 0, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteModels(os.Stdout, recs, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "show":
		rec := modelByName(ctx, reg, fs)
		if err := cli.WriteModels(os.Stdout, []*models.ModelRecord{rec}, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		if format == cli.OutputText {
			if n, err := storage.ArtifactBytes(artifactPrefix(rec.Prefix)); err == nil {
				fmt.Printf("disk_usage_bytes:   %d\n", n)
			}
			fmt.Printf("labels:             %s\n", strings.Join(rec.Labels, ", "))
		}
	case "delete":
		rec := modelByName(ctx, reg, fs)
		if err := reg.Delete(ctx, rec.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Deletion failed: %v\n", err)
			os.Exit(1)
		}
		if *purge {
			paths, err := storage.ArtifactPaths(artifactPrefix(rec.Prefix))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Listing model files failed: %v\n", err)
				os.Exit(1)
			}
			for _, p := range paths {
				if err := os.Remove(p); err != nil {
					logger.Warn("remove model file failed", zap.String("path", p), zap.Error(err))
				}
			}
		}
		fmt.Printf("Model deleted: %s\n", rec.Name)
	default:
		fmt.Printf("Unknown models subcommand: %s\n", sub)
		printModelsUsage()
		os.Exit(1)
	}
}

// artifactPrefix returns the stem whose artifacts make up the model at path.
func artifactPrefix(path string) string {
	if isCompact(path) {
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

func modelByName(ctx context.Context, reg storage.Registry, fs *flag.FlagSet) *models.ModelRecord {
	if fs.NArg() < 1 {
		printModelsUsage()
		os.Exit(1)
	}
	rec, err := reg.GetByName(ctx, fs.Arg(0))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No model named %q\n", fs.Arg(0))
		} else {
			fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		}
		os.Exit(1)
	}
	return rec
}

func printModelsUsage() {
	fmt.Println("Usage: bunrui models <list|show|delete> [flags] [name]")
	fmt.Println("  bunrui models list               List registered models")
	fmt.Println("  bunrui models show <name>        Show one model")
	fmt.Println("  bunrui models delete <name>      Remove a model from the registry (-purge deletes files)")
}

func printUsage() {
	fmt.Println(`bunrui - Short text classification over word embeddings

Usage:
  bunrui train [flags] <corpus>      Train a classifier and save it
  bunrui score [flags] [text]        Score text against a saved classifier
  bunrui serve [flags]               Start the HTTP scoring server
  bunrui models <list|show|delete>   Manage the model registry
  bunrui version                     Show version
  bunrui help                        Show this help

Common Flags:
  --config string    Config file path (default: $BUNRUI_CONFIG or /usr/local/etc/bunrui/config.yaml)
  --debug            Enable debug logging

Train Flags:
  --name string      Registry name (default: corpus file name)
  --out string       Output prefix, or .zip path (default: <model_dir>/<name>)
  --compact          Save a compact .zip archive
  --sample           Train on the built-in subject keywords corpus
  --epochs int       Training epochs
  --alternate        Feed word-index sequences instead of embedded vectors
  --maxlen int       Tokens per text
  --strict           Fail on malformed corpus entries
  --no-register      Do not record the model in the registry

Score Flags:
  --model string     Registered name, prefix, or .zip archive (default: server.model)
  --top int          Show only the N highest scores
  --output string    text, compact, or json (default: text)

Corpus formats:
  .yaml/.yml/.json   mapping of label to list of texts (order preserved)
  .csv               label,text rows
  .xlsx              first sheet, label and text columns
  directory          one sub-directory per label, one .txt/.md/.rst/.pdf/.docx/.odt/.rtf file per text

Examples:
  bunrui train --sample --name subjects
  bunrui train --compact --epochs 30 corpus.yaml
  bunrui score --model subjects "quantum field theory"
  echo "linear algebra" | bunrui score --model subjects --output json
  bunrui serve --model subjects
  bunrui models list`)
}
