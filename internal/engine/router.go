package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dotcommander/bedtime/internal/llm"
	"github.com/dotcommander/bedtime/internal/story"
)

const routerSystemPrompt = `Classify this user feedback into one of these categories:

"modify": User wants to modify the current story in any way such as:
- Make it longer or shorter
- Change characters, plot, or setting
- Adjust tone or mood
- Add or remove elements
- Any other story changes

"chat": User is having a general conversation such as:
- Asking questions about stories in general
- Casual conversation
- Compliments or general comments
- Questions unrelated to modifying the current story

Respond with only the category name.`

const instructionSystemPrompt = `Extract the structured modification request from this user feedback about a bedtime story.

Respond ONLY with a JSON object in this format:
{
    "dimension": "length" | "content" | "tone",
    "detail": "what exactly should change, in one sentence"
}

Use "length" when the user wants the story longer or shorter, "tone" when they want the mood or emotional register changed, and "content" for everything else (characters, plot, setting, elements).`

// Router classifies a follow-up turn into modify vs chat, extracting a
// structured instruction for modifications.
type Router struct {
	client      llm.Completer
	temperature float64
	logger      *slog.Logger
}

func NewRouter(client llm.Completer, temperature float64) *Router {
	return &Router{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "feedback_router"),
	}
}

// Route never fails: classification errors default to the chat intent,
// which at worst echoes a clarifying reply instead of silently mutating the
// story.
func (r *Router) Route(ctx context.Context, feedback string) story.FeedbackIntent {
	response, err := r.client.Complete(ctx, llm.Request{
		System:      routerSystemPrompt,
		User:        feedback,
		Temperature: r.temperature,
		MaxTokens:   8,
	})
	if err != nil {
		r.logger.Warn("feedback classification failed, defaulting to chat", "error", err)
		return story.FeedbackIntent{Kind: story.IntentChat}
	}

	label := strings.ToLower(strings.TrimSpace(response))
	switch {
	case strings.Contains(label, "modify"):
		return story.FeedbackIntent{
			Kind:        story.IntentModify,
			Instruction: r.extractInstruction(ctx, feedback),
		}
	case strings.Contains(label, "chat"):
		return story.FeedbackIntent{Kind: story.IntentChat}
	default:
		r.logger.Warn("unrecognized intent label, defaulting to chat", "label", label)
		return story.FeedbackIntent{Kind: story.IntentChat}
	}
}

// extractInstruction degrades gracefully: classification already succeeded,
// so a failed refinement becomes a content change carrying the raw feedback.
func (r *Router) extractInstruction(ctx context.Context, feedback string) story.Instruction {
	fallback := story.Instruction{Dimension: story.DimensionContent, Detail: feedback}

	response, err := r.client.Complete(ctx, llm.Request{
		System:      instructionSystemPrompt,
		User:        feedback,
		Temperature: r.temperature,
		ForceJSON:   true,
		MaxTokens:   256,
	})
	if err != nil {
		r.logger.Warn("instruction extraction failed, using raw feedback", "error", err)
		return fallback
	}

	var inst story.Instruction
	if err := llm.ParseJSONResponse(response, &inst); err != nil {
		r.logger.Warn("instruction extraction unparseable, using raw feedback", "error", err)
		return fallback
	}

	switch inst.Dimension {
	case story.DimensionLength, story.DimensionContent, story.DimensionTone:
	default:
		inst.Dimension = story.DimensionContent
	}
	if inst.Detail == "" {
		inst.Detail = feedback
	}

	return inst
}
