package cmd

import (
	"log"

	"github.com/spigell/cv-screener/internal/corpus"
	"github.com/spigell/cv-screener/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk the configured manifest documents and report what the corpus would hold",
	Run: func(_ *cobra.Command, _ []string) {
		ingest()
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// ingest is a dry run: the service builds its corpus in memory on every start,
// so this command only validates the manifest and shows the fragment counts.
func ingest() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Corpus == nil || config.Corpus.Manifest == "" {
		logger.Fatal("a corpus manifest is required under corpus.manifest")
	}

	chunkSize := corpus.DefaultChunkSize
	if config.Corpus.ChunkSize > 0 {
		chunkSize = config.Corpus.ChunkSize
	}

	manifest, err := corpus.LoadManifest(config.Corpus.Manifest)
	if err != nil {
		logger.Fatal("loading the manifest", zap.Error(err))
	}

	report, err := manifest.Ingest(corpus.NewStore(), chunkSize)
	if err != nil {
		logger.Fatal("ingesting documents", zap.Error(err))
	}

	logger.Info("manifest is ingestable",
		zap.String("manifest", config.Corpus.Manifest),
		zap.Int("documents", len(manifest.Documents)),
		zap.Int("fragments", report.Fragments),
		zap.Any("by_doc_type", report.ByDocType),
	)
}
