package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spigell/cv-screener/internal/evaluation"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var prompt = promptui.Select{
	Label: "Send the CV to the model?",
	Items: []string{PromptYes, PromptNo},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single CV against a job description and print the result",
	Run: func(cmd *cobra.Command, _ []string) {
		evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("cv", "", "path to the CV file (pdf or plain text)")
	evaluateCmd.Flags().String("job-description", "", "path to the job description file")
	evaluateCmd.Flags().String("job-title", "", "title of the position the candidate applied for")
	evaluateCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before calling the model")

	evaluateCmd.MarkFlagRequired("cv")
	evaluateCmd.MarkFlagRequired("job-description")
}

func evaluate(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	extractor := extract.NewFileExtractor()

	cvPath := cmd.Flag("cv").Value.String()
	cvText, err := extractor.Extract(cvPath)
	if err != nil {
		logger.Fatal("reading the cv", zap.Error(err), zap.String("path", cvPath))
	}

	jdPath := cmd.Flag("job-description").Value.String()
	jobDescription, err := extractor.Extract(jdPath)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err), zap.String("path", jdPath))
	}

	jobTitle := cmd.Flag("job-title").Value.String()

	if cmd.Flag("yes").Value.String() == "false" {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action == PromptNo {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal(
			"building the model client",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	evaluator := evaluation.NewEvaluator(generator, logger)

	result, err := evaluator.EvaluateCV(ctx, cvText, jobDescription, jobTitle)
	if err != nil {
		logger.Fatal("evaluating the cv", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
}
