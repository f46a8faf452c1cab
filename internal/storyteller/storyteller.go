package storyteller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotcommander/bedtime/internal/engine"
	"github.com/dotcommander/bedtime/internal/llm"
	"github.com/dotcommander/bedtime/internal/story"
)

// Storyteller generates story candidates through the generation service.
// Sampling favors creativity; the judge runs much cooler.
type Storyteller struct {
	client      llm.Completer
	temperature float64
	wordRange   func(story.Length) story.WordRange
	enrich      bool
	logger      *slog.Logger
}

// Option configures a Storyteller.
type Option func(*Storyteller)

// WithoutEnrichment disables the follow-up character and moral extraction
// calls. Used where call budget matters more than story metadata.
func WithoutEnrichment() Option {
	return func(s *Storyteller) {
		s.enrich = false
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Storyteller) {
		s.logger = logger.With("component", "storyteller")
	}
}

func New(client llm.Completer, temperature float64, wordRange func(story.Length) story.WordRange, opts ...Option) *Storyteller {
	s := &Storyteller{
		client:      client,
		temperature: temperature,
		wordRange:   wordRange,
		enrich:      true,
		logger:      slog.Default().With("component", "storyteller"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces candidate #0 for a classified request. A generation
// failure is a hard failure for the cycle and propagates to the caller.
func (s *Storyteller) Generate(ctx context.Context, req story.Request) (story.Candidate, error) {
	return s.generate(ctx, req, nil, "", 0)
}

// Revise produces the next candidate in a revision sequence, instructing the
// model to incorporate the feedback while preserving story identity.
func (s *Storyteller) Revise(ctx context.Context, req story.Request, prior story.Candidate, feedback string) (story.Candidate, error) {
	return s.generate(ctx, req, &prior, feedback, prior.Revision+1)
}

func (s *Storyteller) generate(ctx context.Context, req story.Request, prior *story.Candidate, feedback string, revision int) (story.Candidate, error) {
	wr := s.wordRange(req.Length)

	notes := feedback
	if prior != nil && feedback != "" {
		notes = fmt.Sprintf("The previous version of the story was:\n\nTitle: %s\n%s\n\nFeedback to address: %s",
			prior.Title, prior.Text, feedback)
	}

	system, err := renderStoryPrompt(storyPromptData{
		Request:       req.RawText,
		Guidance:      GuidanceFor(req.Category),
		Length:        req.Length,
		MinWords:      wr.Min,
		MaxWords:      wr.Max,
		RevisionNotes: notes,
	})
	if err != nil {
		return story.Candidate{}, err
	}

	s.logger.Info("generating story candidate",
		"category", req.Category,
		"length", req.Length,
		"revision", revision,
		"has_feedback", feedback != "")

	response, err := s.client.Complete(ctx, llm.Request{
		System:      system,
		User:        "Please write the bedtime story now. Start with a creative title, then tell the complete story.",
		Temperature: s.temperature,
	})
	if err != nil {
		return story.Candidate{}, fmt.Errorf("%w: generating story: %v", engine.ErrServiceUnavailable, err)
	}

	title, content := splitTitle(response)
	if content == "" {
		return story.Candidate{}, fmt.Errorf("%w: empty story body in response", engine.ErrMalformedOutput)
	}

	candidate := story.Candidate{
		Title:       title,
		Text:        content,
		Category:    req.Category,
		Revision:    revision,
		Temperature: s.temperature,
	}

	if s.enrich {
		candidate.Characters = s.extractCharacters(ctx, content)
		candidate.MoralLesson = s.extractMoral(ctx, content)
	}

	s.logger.Info("story candidate generated",
		"title", title,
		"revision", revision,
		"word_count", candidate.WordCount())

	return candidate, nil
}

// splitTitle separates the title line from the story body. Models answer
// with a bare title, a quoted one, or a "Title:" prefix.
func splitTitle(response string) (title, content string) {
	lines := strings.Split(strings.TrimSpace(response), "\n")
	if len(lines) == 0 {
		return "", ""
	}

	title = strings.TrimSpace(lines[0])
	title = strings.TrimPrefix(title, "#")
	title = strings.TrimSpace(title)
	if strings.HasPrefix(title, "\"") && strings.HasSuffix(title, "\"") && len(title) >= 2 {
		title = title[1 : len(title)-1]
	} else if strings.HasPrefix(title, "Title:") {
		title = strings.TrimSpace(title[len("Title:"):])
	}

	start := 1
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line != "" && !strings.HasPrefix(line, "Title:") {
			start = i
			break
		}
	}

	content = strings.TrimSpace(strings.Join(lines[start:], "\n"))
	return title, content
}

const enrichmentSnippet = 1000

// extractCharacters is best-effort metadata; failures return nil rather than
// failing the candidate.
func (s *Storyteller) extractCharacters(ctx context.Context, content string) []string {
	response, err := s.client.Complete(ctx, llm.Request{
		System:      charactersSystemPrompt,
		User:        truncate(content, enrichmentSnippet),
		Temperature: s.temperature,
		MaxTokens:   128,
	})
	if err != nil {
		s.logger.Debug("character extraction failed", "error", err)
		return nil
	}

	var characters []string
	for _, part := range strings.Split(response, ",") {
		if name := strings.TrimSpace(part); name != "" {
			characters = append(characters, name)
		}
	}
	return characters
}

func (s *Storyteller) extractMoral(ctx context.Context, content string) string {
	response, err := s.client.Complete(ctx, llm.Request{
		System:      moralSystemPrompt,
		User:        truncate(content, enrichmentSnippet),
		Temperature: s.temperature,
		MaxTokens:   128,
	})
	if err != nil {
		s.logger.Debug("moral extraction failed", "error", err)
		return ""
	}
	return strings.TrimSpace(response)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
