package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/corpus"
	"github.com/spigell/cv-screener/internal/evaluation"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/jobs"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/secrets"
	"github.com/spigell/cv-screener/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultListen    = ":8080"
	defaultUploadDir = "uploads"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the evaluation HTTP service",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on, overrides server.listen")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cv-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	listen := defaultListen
	uploadDir := defaultUploadDir
	if config.Server != nil {
		if config.Server.Listen != "" {
			listen = config.Server.Listen
		}
		if config.Server.UploadDir != "" {
			uploadDir = config.Server.UploadDir
		}
	}

	store, topK, err := buildCorpus(config.Corpus, logger)
	if err != nil {
		logger.Fatal("seeding the reference corpus", zap.Error(err))
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal(
			"building the model client",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	pipeline := evaluation.NewPipeline(store, generator, logger, topK)

	workers := 0
	if config.Executor != nil {
		workers = config.Executor.Workers
	}

	registry := jobs.NewRegistry()
	executor := jobs.NewExecutor(registry, extract.NewFileExtractor(), pipeline, logger, workers)

	srv := server.New(registry, executor, uploadDir, logger)

	logger.Info("listening", zap.String("address", listen), zap.Int("workers", workers))

	if err := srv.Router().Run(listen); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}

// buildCorpus seeds an in-memory store from the configured manifest. A missing
// manifest is allowed: evaluations then run without reference material.
func buildCorpus(cfg *CorpusConfig, logger *zap.Logger) (*corpus.Store, int, error) {
	store := corpus.NewStore()
	topK := evaluation.DefaultTopK
	chunkSize := corpus.DefaultChunkSize

	if cfg == nil || cfg.Manifest == "" {
		logger.Warn("no corpus manifest configured, evaluations will run without reference material")
		return store, topK, nil
	}

	if cfg.TopK > 0 {
		topK = cfg.TopK
	}
	if cfg.ChunkSize > 0 {
		chunkSize = cfg.ChunkSize
	}

	manifest, err := corpus.LoadManifest(cfg.Manifest)
	if err != nil {
		return nil, 0, err
	}

	report, err := manifest.Ingest(store, chunkSize)
	if err != nil {
		return nil, 0, err
	}

	logger.Info("seeded the reference corpus",
		zap.String("manifest", cfg.Manifest),
		zap.Int("fragments", report.Fragments),
		zap.Any("by_doc_type", report.ByDocType),
	)

	return store, topK, nil
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required under the ai section")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKeyFile := cfg.Gemini.APIKeyFile
	if apiKeyFile == "" {
		apiKeyFile = viper.GetString("ai.gemini.api-key-file")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: apiKeyFile,
	})
	if err != nil {
		return nil, err
	}

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, logger)
}
