package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dotcommander/bedtime/internal/engine"
	"github.com/dotcommander/bedtime/internal/llm"
	"github.com/dotcommander/bedtime/internal/story"
)

func TestRouterClassifiesModifyWithInstruction(t *testing.T) {
	client := llm.NewMockClient().
		Enqueue("modify").
		Enqueue(`{"dimension": "length", "detail": "make the story shorter"}`)

	intent := engine.NewRouter(client, 0.3).Route(context.Background(), "make it shorter")

	if intent.Kind != story.IntentModify {
		t.Fatalf("intent = %v, want %v", intent.Kind, story.IntentModify)
	}
	if intent.Instruction.Dimension != story.DimensionLength {
		t.Errorf("dimension = %v, want %v", intent.Instruction.Dimension, story.DimensionLength)
	}
	if intent.Instruction.Detail != "make the story shorter" {
		t.Errorf("detail = %q", intent.Instruction.Detail)
	}
}

func TestRouterClassifiesChat(t *testing.T) {
	client := llm.NewMockClient().Enqueue("chat")

	intent := engine.NewRouter(client, 0.3).Route(context.Background(), "what's the moral of the story?")

	if intent.Kind != story.IntentChat {
		t.Errorf("intent = %v, want %v", intent.Kind, story.IntentChat)
	}
	if client.Calls() != 1 {
		t.Errorf("client calls = %d, want 1 (no instruction extraction for chat)", client.Calls())
	}
}

func TestRouterDefaultsToChatOnError(t *testing.T) {
	client := llm.NewMockClient().EnqueueError(errors.New("connection refused"))

	intent := engine.NewRouter(client, 0.3).Route(context.Background(), "make it longer")

	if intent.Kind != story.IntentChat {
		t.Errorf("intent = %v, want chat fallback on classification failure", intent.Kind)
	}
}

func TestRouterDefaultsToChatOnUnknownLabel(t *testing.T) {
	client := llm.NewMockClient().Enqueue("rewrite")

	intent := engine.NewRouter(client, 0.3).Route(context.Background(), "hmm")

	if intent.Kind != story.IntentChat {
		t.Errorf("intent = %v, want chat fallback on unrecognized label", intent.Kind)
	}
}

func TestRouterInstructionExtractionDegradesToRawFeedback(t *testing.T) {
	tests := []struct {
		name   string
		second func(*llm.MockClient)
	}{
		{"extraction error", func(m *llm.MockClient) { m.EnqueueError(errors.New("timeout")) }},
		{"unparseable json", func(m *llm.MockClient) { m.Enqueue("sure, I can do that!") }},
		{"unknown dimension", func(m *llm.MockClient) { m.Enqueue(`{"dimension": "pacing", "detail": ""}`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewMockClient().Enqueue("modify")
			tt.second(client)

			feedback := "add a dragon to the middle of the story"
			intent := engine.NewRouter(client, 0.3).Route(context.Background(), feedback)

			if intent.Kind != story.IntentModify {
				t.Fatalf("intent = %v, want modify", intent.Kind)
			}
			if intent.Instruction.Dimension != story.DimensionContent {
				t.Errorf("dimension = %v, want content fallback", intent.Instruction.Dimension)
			}
			if intent.Instruction.Detail != feedback {
				t.Errorf("detail = %q, want raw feedback", intent.Instruction.Detail)
			}
		})
	}
}
