package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/bedtime/internal/engine"
	"github.com/dotcommander/bedtime/internal/storage"
	"github.com/dotcommander/bedtime/internal/story"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive story session",
	Long: `Starts an interactive session: describe the story you want, get a
judged and revised story back, then refine it with follow-up feedback.
Commands inside the session: "new story", "help", "quit".`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			exitErr("starting session", err)
		}
		runSession(cmd.Context(), a, os.Stdin, os.Stdout)
	},
}

const welcome = `Bedtime Story Generator
-----------------------
Tell me what kind of story you'd like to hear. I'll draft it, have my story
judge score it, and revise until it's good enough for bedtime.

Afterwards you can ask for changes ("make it shorter", "add a dragon"),
chat about the story, say "new story" to start over, or "quit" to exit.
`

// runSession owns the ConversationState for its lifetime. One turn at a
// time; storyteller and judge calls never overlap.
func runSession(ctx context.Context, a *app, in io.Reader, out io.Writer) {
	fmt.Fprint(out, welcome)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	state := engine.NewConversationState()
	sessionID := storage.NewSessionID()

	for {
		fmt.Fprint(out, "\nWhat kind of story would you like to hear? ")
		request, ok := readLine(scanner)
		if !ok || isQuit(request) {
			fmt.Fprintln(out, "Sweet dreams!")
			return
		}
		if request == "" {
			continue
		}
		if isHelp(request) {
			printHelp(out)
			continue
		}

		length := askLength(scanner, out)

		if !generateAndShow(ctx, a, state, sessionID, request, length, out) {
			continue
		}

		if !feedbackLoop(ctx, a, state, scanner, out) {
			fmt.Fprintln(out, "Sweet dreams!")
			return
		}
	}
}

// generateAndShow runs the full revision loop for one request. Returns false
// when generation failed and the outer loop should re-prompt.
func generateAndShow(ctx context.Context, a *app, state *engine.ConversationState, sessionID, request string, length story.Length, out io.Writer) bool {
	fmt.Fprintln(out, "\nCreating your story...")

	category := a.classifier.Classify(ctx, request)
	req := story.Request{RawText: request, Length: length, Category: category}

	result, err := a.controller.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(out, "Sorry, story generation failed, please retry. (%v)\n", err)
		return false
	}

	state.Reset()
	state.Accept(req, result)
	printStory(out, result.Story)
	printEvaluation(out, result.Evaluation, result.Outcome)

	if dir, err := a.archive.StoreAccepted(ctx, sessionID, req, result.Story, result.Evaluation); err == nil {
		fmt.Fprintf(out, "(saved to %s)\n", dir)
	}

	return true
}

// feedbackLoop handles follow-up turns for the current story. Returns false
// when the user quit the whole session.
func feedbackLoop(ctx context.Context, a *app, state *engine.ConversationState, scanner *bufio.Scanner, out io.Writer) bool {
	for {
		fmt.Fprint(out, "\nWhat would you like to do next? (modify, chat, \"new story\", \"quit\") ")
		feedback, ok := readLine(scanner)
		if !ok || isQuit(feedback) {
			return false
		}
		if feedback == "" {
			continue
		}
		if isNewStory(feedback) {
			return true
		}
		if isHelp(feedback) {
			printHelp(out)
			continue
		}

		intent := a.router.Route(ctx, feedback)
		state.RecordFeedback(intent)

		switch intent.Kind {
		case story.IntentChat:
			reply := a.chat.Reply(ctx, feedback, state.Current())
			fmt.Fprintf(out, "\n%s\n", reply)

		case story.IntentModify:
			fmt.Fprintln(out, "\nModifying your story...")
			current := state.Current()
			mod, err := a.modifier.Apply(ctx, state.Request(), *current, intent.Instruction)
			if err != nil {
				fmt.Fprintf(out, "Sorry, I had trouble modifying the story, please retry. (%v)\n", err)
				continue
			}

			printComparison(out, mod.Comparison, intent.Instruction)

			if mod.Comparison.FeedbackAddressed {
				state.Promote(mod, state.Evaluation())
				printStory(out, mod.Revised)
			} else {
				fmt.Fprint(out, "The change may not have landed. Keep the new version anyway? [y/N] ")
				answer, _ := readLine(scanner)
				if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
					state.Promote(mod, state.Evaluation())
					printStory(out, mod.Revised)
				} else {
					fmt.Fprintln(out, "Keeping the previous version.")
				}
			}
		}
	}
}

func askLength(scanner *bufio.Scanner, out io.Writer) story.Length {
	fmt.Fprint(out, "How long should the story be? (short/medium/long) [medium] ")
	answer, _ := readLine(scanner)
	length, _ := story.ParseLength(answer)
	return length
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func isQuit(s string) bool {
	switch strings.ToLower(s) {
	case "quit", "exit", "bye":
		return true
	}
	return false
}

func isNewStory(s string) bool {
	switch strings.ToLower(s) {
	case "new story", "new", "start over", "different story":
		return true
	}
	return false
}

func isHelp(s string) bool {
	return s == "help" || s == "?"
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
Commands:
  new story / new    start a fresh story
  quit / exit        leave the session
  help / ?           this message

Story modifications:
  "Make it longer/shorter"   adjust length
  "Add more animals"         content changes
  "Make it less scary"       tone changes

Anything else is treated as chat about the current story.`)
}

func printStory(out io.Writer, c story.Candidate) {
	fmt.Fprintf(out, "\n== %s ==\n\n%s\n", c.Title, c.Text)
	if c.MoralLesson != "" {
		fmt.Fprintf(out, "\nLesson: %s\n", c.MoralLesson)
	}
	if len(c.Characters) > 0 {
		fmt.Fprintf(out, "Characters: %s\n", strings.Join(c.Characters, ", "))
	}
}

func printEvaluation(out io.Writer, eval story.Evaluation, outcome engine.Outcome) {
	fmt.Fprintf(out, "\nJudge's score: %.1f/10 (quality %d, age fit %d, engagement %d, educational %d, creativity %d)\n",
		eval.Aggregate(), eval.OverallScore, eval.AgeAppropriateness, eval.EngagementLevel,
		eval.EducationalValue, eval.Creativity)
	if outcome == engine.OutcomeCappedAccepted {
		fmt.Fprintln(out, "Note: the quality target wasn't fully met within the revision limit; this is the best version so far.")
	}
}

func printComparison(out io.Writer, cmp story.Comparison, inst story.Instruction) {
	status := "Confirmed"
	if !cmp.FeedbackAddressed {
		status = "Not confirmed"
	}
	fmt.Fprintf(out, "%s: %s\n", status, cmp.Summary)
	if inst.Dimension == story.DimensionLength {
		switch {
		case cmp.WordDelta < 0:
			fmt.Fprintf(out, "The story is now %d words shorter.\n", -cmp.WordDelta)
		case cmp.WordDelta > 0:
			fmt.Fprintf(out, "The story is now %d words longer.\n", cmp.WordDelta)
		default:
			fmt.Fprintln(out, "The story length did not change.")
		}
	}
}
