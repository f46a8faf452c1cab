package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dotcommander/bedtime/internal/llm"
	"github.com/dotcommander/bedtime/internal/story"
)

const chatFallbackReply = "I'm sorry, I had trouble answering that. Could you rephrase it?"

// ChatResponder answers chat-intent turns. Low stakes: failures degrade to
// a fixed apology instead of propagating.
type ChatResponder struct {
	client      llm.Completer
	temperature float64
	logger      *slog.Logger
}

func NewChatResponder(client llm.Completer, temperature float64) *ChatResponder {
	return &ChatResponder{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "chat"),
	}
}

// Reply produces a friendly response, referencing the current story when one
// exists.
func (c *ChatResponder) Reply(ctx context.Context, message string, current *story.Candidate) string {
	system := "You are a friendly bedtime story assistant. The user is having a casual conversation with you. Respond naturally and helpfully. Keep responses concise and warm."
	if current != nil {
		system += fmt.Sprintf("\n\nCurrent story context:\nTitle: %s\nCategory: %s", current.Title, current.Category)
		system += "\n\nIf they ask about the current story, reference it appropriately. If they're just chatting, engage in friendly conversation."
	}

	response, err := c.client.Complete(ctx, llm.Request{
		System:      system,
		User:        message,
		Temperature: c.temperature,
		MaxTokens:   512,
	})
	if err != nil {
		c.logger.Warn("chat reply failed", "error", err)
		return chatFallbackReply
	}

	return response
}
