package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dotcommander/bedtime/internal/engine"
	"github.com/dotcommander/bedtime/internal/story"
)

func acceptedState(t *testing.T) (*engine.ConversationState, story.Candidate) {
	t.Helper()

	state := engine.NewConversationState()
	first := story.Candidate{
		Title:    "The Quiet Forest",
		Text:     "Once there was a quiet forest where a small fox lived.",
		Category: story.CategoryAdventure,
		Revision: 0,
	}
	state.Accept(testRequest(), &engine.Result{
		Story:      first,
		Evaluation: uniformEval(8),
		Outcome:    engine.OutcomeAccepted,
	})
	return state, first
}

func TestModifierAppliesInstruction(t *testing.T) {
	gen := &mockGenerator{}
	eval := &mockEvaluator{cmp: story.Comparison{FeedbackAddressed: true, Quality: "good"}}

	state, first := acceptedState(t)
	inst := story.Instruction{Dimension: story.DimensionTone, Detail: "make it gentler"}

	mod, err := engine.NewModifier(gen, eval).Apply(context.Background(), state.Request(), *state.Current(), inst)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if mod.Revised.Revision != first.Revision+1 {
		t.Errorf("revised revision = %d, want %d", mod.Revised.Revision, first.Revision+1)
	}
	if !mod.Comparison.FeedbackAddressed {
		t.Error("comparison should report feedback addressed")
	}
	if len(gen.feedbackSeen) != 1 || !strings.Contains(gen.feedbackSeen[0], "make it gentler") {
		t.Errorf("revise feedback = %v, want instruction detail embedded", gen.feedbackSeen)
	}
	if !strings.Contains(gen.feedbackSeen[0], "tone") {
		t.Errorf("revise feedback = %q, want dimension named", gen.feedbackSeen[0])
	}
	if eval.cmpCalls != 1 {
		t.Errorf("comparison calls = %d, want 1", eval.cmpCalls)
	}
}

func TestModifierPropagatesReviseError(t *testing.T) {
	gen := &mockGenerator{reviseErr: errors.New("over capacity")}
	eval := &mockEvaluator{}

	state, _ := acceptedState(t)
	_, err := engine.NewModifier(gen, eval).Apply(context.Background(), state.Request(), *state.Current(),
		story.Instruction{Dimension: story.DimensionLength, Detail: "shorter"})

	var reqErr *engine.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.Role != "storyteller" {
		t.Errorf("failed role = %q, want storyteller", reqErr.Role)
	}
}

func TestModifierPropagatesComparisonError(t *testing.T) {
	gen := &mockGenerator{}
	eval := &mockEvaluator{cmpErr: errors.New("malformed comparison")}

	state, _ := acceptedState(t)
	_, err := engine.NewModifier(gen, eval).Apply(context.Background(), state.Request(), *state.Current(),
		story.Instruction{Dimension: story.DimensionContent, Detail: "add a dragon"})

	var reqErr *engine.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.Role != "judge" {
		t.Errorf("failed role = %q, want judge", reqErr.Role)
	}
}

func TestStateAcceptIsIdempotent(t *testing.T) {
	state, first := acceptedState(t)

	state.Accept(testRequest(), &engine.Result{
		Story:      first,
		Evaluation: uniformEval(8),
		Outcome:    engine.OutcomeAccepted,
	})

	if len(state.History()) != 0 {
		t.Errorf("history length = %d after re-accepting the same candidate, want 0", len(state.History()))
	}
	if state.Current() == nil || state.Current().Text != first.Text {
		t.Error("current story changed on idempotent re-accept")
	}
}

func TestStatePromoteMovesPriorToHistory(t *testing.T) {
	state, first := acceptedState(t)

	revised := first
	revised.Revision = 1
	revised.Text = "Once there was a quiet forest where a small fox and a dragon lived."
	state.Promote(&engine.Modification{
		Revised:    revised,
		Comparison: story.Comparison{FeedbackAddressed: true},
	}, uniformEval(8))

	if state.Current().Revision != 1 {
		t.Errorf("current revision = %d, want 1", state.Current().Revision)
	}
	if len(state.History()) != 1 || state.History()[0].Revision != 0 {
		t.Errorf("history = %+v, want the original candidate", state.History())
	}
}

func TestStateResetClearsSession(t *testing.T) {
	state, _ := acceptedState(t)
	state.RecordFeedback(story.FeedbackIntent{Kind: story.IntentChat})

	state.Reset()

	if state.Current() != nil {
		t.Error("current story survived reset")
	}
	if len(state.History()) != 0 || len(state.Cycles()) != 0 {
		t.Error("history or cycles survived reset")
	}
}
