package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/bedtime/internal/engine"
	"github.com/dotcommander/bedtime/internal/storage"
	"github.com/dotcommander/bedtime/internal/story"
)

var generateLength string

var generateCmd = &cobra.Command{
	Use:   "generate [request]",
	Short: "Generate one story and exit",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			exitErr("starting pipeline", err)
		}

		ctx := cmd.Context()
		request := strings.Join(args, " ")
		length, _ := story.ParseLength(generateLength)

		category := a.classifier.Classify(ctx, request)
		req := story.Request{RawText: request, Length: length, Category: category}

		result, err := a.controller.Run(ctx, req)
		if err != nil {
			exitErr("story generation failed, please retry", err)
		}

		printStory(os.Stdout, result.Story)
		printEvaluation(os.Stdout, result.Evaluation, result.Outcome)

		if pass, err := a.judge.QuickCheck(ctx, result.Story); err == nil && !pass {
			fmt.Fprintln(os.Stderr, "warning: quick quality check did not pass")
		}

		sessionID := storage.NewSessionID()
		if dir, err := a.archive.StoreAccepted(ctx, sessionID, req, result.Story, result.Evaluation); err == nil {
			fmt.Printf("(saved to %s)\n", dir)
		}

		if result.Outcome == engine.OutcomeCappedAccepted {
			// Soft success, but let scripts tell the difference.
			os.Exit(2)
		}
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateLength, "length", "l", "medium", "Target length: short, medium or long")
}
