package storyteller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dotcommander/bedtime/internal/llm"
	"github.com/dotcommander/bedtime/internal/story"
)

// Classifier maps a free-text request to exactly one story category.
type Classifier struct {
	client      llm.Completer
	temperature float64
	fallback    story.Category
	logger      *slog.Logger
}

func NewClassifier(client llm.Completer, temperature float64, fallback story.Category) *Classifier {
	return &Classifier{
		client:      client,
		temperature: temperature,
		fallback:    fallback,
		logger:      slog.Default().With("component", "classifier"),
	}
}

// Classify always returns a valid category. Service errors and unparseable
// labels degrade to the configured fallback: category choice only tailors
// the prompt, so a wrong default is safe while a hard failure is not.
func (c *Classifier) Classify(ctx context.Context, request string) story.Category {
	response, err := c.client.Complete(ctx, llm.Request{
		System:      classifierSystemPrompt,
		User:        fmt.Sprintf("Categorize this story request: %s", request),
		Temperature: c.temperature,
		MaxTokens:   16,
	})
	if err != nil {
		c.logger.Warn("classification failed, using fallback category",
			"fallback", c.fallback,
			"error", err)
		return c.fallback
	}

	category, ok := story.ParseCategory(response)
	if !ok {
		c.logger.Warn("unrecognized category label, using fallback",
			"label", response,
			"fallback", c.fallback)
		return c.fallback
	}

	c.logger.Debug("request classified",
		"category", category,
		"request_length", len(request))

	return category
}
