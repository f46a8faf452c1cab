package storyteller

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dotcommander/bedtime/internal/engine"
	"github.com/dotcommander/bedtime/internal/llm"
	"github.com/dotcommander/bedtime/internal/story"
)

func fixedWordRange(story.Length) story.WordRange {
	return story.WordRange{Min: 400, Max: 800}
}

func mediumRequest() story.Request {
	return story.Request{
		RawText:  "a story about a dragon who learns to share",
		Length:   story.LengthMedium,
		Category: story.CategoryMagical,
	}
}

func TestGenerateProducesCandidate(t *testing.T) {
	client := llm.NewMockClient().
		Enqueue("The Generous Dragon\n\nOnce upon a time, a dragon named Ember hoarded every shiny thing.")

	teller := New(client, 0.7, fixedWordRange, WithoutEnrichment())
	candidate, err := teller.Generate(context.Background(), mediumRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if candidate.Title != "The Generous Dragon" {
		t.Errorf("title = %q", candidate.Title)
	}
	if !strings.HasPrefix(candidate.Text, "Once upon a time") {
		t.Errorf("text = %q", candidate.Text)
	}
	if candidate.Revision != 0 {
		t.Errorf("revision = %d, want 0", candidate.Revision)
	}
	if candidate.Category != story.CategoryMagical {
		t.Errorf("category = %v", candidate.Category)
	}
	if candidate.Temperature != 0.7 {
		t.Errorf("temperature = %v", candidate.Temperature)
	}
}

func TestGeneratePromptCarriesWordRangeAndGuidance(t *testing.T) {
	client := llm.NewMockClient().Enqueue("A Title\n\nA body.")

	teller := New(client, 0.7, fixedWordRange, WithoutEnrichment())
	if _, err := teller.Generate(context.Background(), mediumRequest()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	system := client.Requests[0].System
	for _, want := range []string{"400", "800", "dragon who learns to share"} {
		if !strings.Contains(system, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(system, GuidanceFor(story.CategoryMagical)) {
		t.Error("prompt missing category guidance")
	}
}

func TestReviseCarriesPriorStoryAndFeedback(t *testing.T) {
	client := llm.NewMockClient().Enqueue("The Generous Dragon\n\nA better version of the story.")

	teller := New(client, 0.7, fixedWordRange, WithoutEnrichment())
	prior := story.Candidate{
		Title:    "The Generous Dragon",
		Text:     "The original story text.",
		Category: story.CategoryMagical,
		Revision: 0,
	}

	candidate, err := teller.Revise(context.Background(), mediumRequest(), prior, "make the ending calmer")
	if err != nil {
		t.Fatalf("Revise() error = %v", err)
	}

	if candidate.Revision != 1 {
		t.Errorf("revision = %d, want 1", candidate.Revision)
	}
	system := client.Requests[0].System
	if !strings.Contains(system, "The original story text.") {
		t.Error("prompt missing the prior story text")
	}
	if !strings.Contains(system, "make the ending calmer") {
		t.Error("prompt missing the revision feedback")
	}
}

func TestGenerateFailsOnEmptyBody(t *testing.T) {
	client := llm.NewMockClient().Enqueue("Just A Title")

	teller := New(client, 0.7, fixedWordRange, WithoutEnrichment())
	_, err := teller.Generate(context.Background(), mediumRequest())
	if !engine.IsMalformed(err) {
		t.Errorf("Generate() error = %v, want ErrMalformedOutput for an empty body", err)
	}
}

func TestGeneratePropagatesClientError(t *testing.T) {
	client := llm.NewMockClient().EnqueueError(errors.New("over capacity"))

	teller := New(client, 0.7, fixedWordRange, WithoutEnrichment())
	_, err := teller.Generate(context.Background(), mediumRequest())
	if !errors.Is(err, engine.ErrServiceUnavailable) {
		t.Errorf("Generate() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestGenerateEnrichmentIsBestEffort(t *testing.T) {
	client := llm.NewMockClient().
		Enqueue("The Generous Dragon\n\nOnce upon a time.").
		Enqueue("Ember, Pip").
		EnqueueError(errors.New("timeout"))

	teller := New(client, 0.7, fixedWordRange)
	candidate, err := teller.Generate(context.Background(), mediumRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(candidate.Characters) != 2 || candidate.Characters[0] != "Ember" {
		t.Errorf("characters = %v", candidate.Characters)
	}
	if candidate.MoralLesson != "" {
		t.Errorf("moral = %q, want empty after failed extraction", candidate.MoralLesson)
	}
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "plain first line",
			response:  "The Moon Garden\n\nOnce there was a garden.",
			wantTitle: "The Moon Garden",
			wantBody:  "Once there was a garden.",
		},
		{
			name:      "quoted title",
			response:  "\"The Moon Garden\"\nOnce there was a garden.",
			wantTitle: "The Moon Garden",
			wantBody:  "Once there was a garden.",
		},
		{
			name:      "title prefix",
			response:  "Title: The Moon Garden\n\nOnce there was a garden.",
			wantTitle: "The Moon Garden",
			wantBody:  "Once there was a garden.",
		},
		{
			name:      "markdown heading",
			response:  "# The Moon Garden\n\nOnce there was a garden.",
			wantTitle: "The Moon Garden",
			wantBody:  "Once there was a garden.",
		},
		{
			name:      "no body",
			response:  "The Moon Garden",
			wantTitle: "The Moon Garden",
			wantBody:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := splitTitle(tt.response)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestClassifierReturnsParsedCategory(t *testing.T) {
	client := llm.NewMockClient().Enqueue("friendship")

	got := NewClassifier(client, 0.3, story.DefaultCategory).
		Classify(context.Background(), "a story about two best friends")

	if got != story.CategoryFriendship {
		t.Errorf("category = %v, want friendship", got)
	}
}

func TestClassifierFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		client *llm.MockClient
	}{
		{"service error", llm.NewMockClient().EnqueueError(errors.New("unavailable"))},
		{"garbage label", llm.NewMockClient().Enqueue("I think this is an adventure story about...")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClassifier(tt.client, 0.3, story.CategoryFamily).
				Classify(context.Background(), "anything")
			if got != story.CategoryFamily {
				t.Errorf("category = %v, want the configured fallback", got)
			}
		})
	}
}
