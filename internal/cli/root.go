// Package cli implements the bedtime CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/bedtime/internal/config"
	"github.com/dotcommander/bedtime/internal/engine"
	"github.com/dotcommander/bedtime/internal/judge"
	"github.com/dotcommander/bedtime/internal/llm"
	"github.com/dotcommander/bedtime/internal/storage"
	"github.com/dotcommander/bedtime/internal/storyteller"
)

var verbose bool

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "bedtime",
	Short: "Age-appropriate bedtime stories from a generate-judge-revise loop",
	Long: `bedtime turns a free-text request into a bedtime story for ages 5-10.
A storyteller drafts, a judge scores on five dimensions, and the story is
revised until it clears the quality bar or the revision cap is reached.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	RootCmd.AddCommand(chatCmd)
	RootCmd.AddCommand(generateCmd)
}

// app bundles the assembled pipeline components for one process.
type app struct {
	cfg         *config.Config
	classifier  *storyteller.Classifier
	storyteller *storyteller.Storyteller
	judge       *judge.Judge
	controller  *engine.Controller
	router      *engine.Router
	modifier    *engine.Modifier
	chat        *engine.ChatResponder
	archive     *storage.Archive
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.AI.APIKey == "" {
		return nil, engine.ErrNoAPIKey
	}

	client := llm.NewClient(cfg.AI.APIKey,
		llm.WithAPIConfig(cfg.AI.BaseURL, cfg.AI.Model),
		llm.WithTimeout(time.Duration(cfg.AI.Timeout)*time.Second),
		llm.WithRetry(cfg.Limits.MaxRetries),
		llm.WithRateLimit(cfg.Limits.RateLimit.RequestsPerMinute, cfg.Limits.RateLimit.BurstSize),
	)

	return newAppWithClient(cfg, client), nil
}

func newAppWithClient(cfg *config.Config, client llm.Completer) *app {
	teller := storyteller.New(client, cfg.Pipeline.StorytellerTemperature, cfg.WordRange)
	j := judge.New(client, cfg.Pipeline.JudgeTemperature)

	return &app{
		cfg:         cfg,
		classifier:  storyteller.NewClassifier(client, cfg.Pipeline.RouterTemperature, cfg.Pipeline.DefaultCategory),
		storyteller: teller,
		judge:       j,
		controller: engine.NewController(teller, j, judge.RevisionGuidance,
			cfg.Pipeline.AcceptanceThreshold, cfg.Pipeline.MaxRevisions),
		router:   engine.NewRouter(client, cfg.Pipeline.RouterTemperature),
		modifier: engine.NewModifier(teller, j),
		chat:     engine.NewChatResponder(client, cfg.Pipeline.RouterTemperature),
		archive:  storage.NewArchive(storage.NewFileSystem(cfg.Paths.ArchiveDir)),
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
