package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dotcommander/bedtime/internal/story"
)

// Modification is the modifier's answer to one modify-intent turn: the new
// candidate plus the judge's old-vs-new comparison. The comparison is
// informational; promotion into the conversation state is the caller's call.
type Modification struct {
	Revised    story.Candidate
	Comparison story.Comparison
}

// Modifier applies a user-requested change to the current story and has the
// judge confirm the change actually landed.
type Modifier struct {
	generator Generator
	evaluator Evaluator
	logger    *slog.Logger
}

func NewModifier(generator Generator, evaluator Evaluator) *Modifier {
	return &Modifier{
		generator: generator,
		evaluator: evaluator,
		logger:    slog.Default().With("component", "modifier"),
	}
}

// Apply generates the modified candidate and compares it against the
// current one. req is the request the story lineage belongs to, so the
// prompt keeps its category and length band. Generation and comparison
// failures both propagate: a silently dropped modification would leave the
// user believing the story changed.
func (m *Modifier) Apply(ctx context.Context, req story.Request, current story.Candidate, inst story.Instruction) (*Modification, error) {
	feedback := fmt.Sprintf("Requested %s change: %s", inst.Dimension, inst.Detail)

	m.logger.Info("applying modification",
		"dimension", inst.Dimension,
		"current_revision", current.Revision)

	revised, err := m.generator.Revise(ctx, req, current, feedback)
	if err != nil {
		return nil, &RequestError{Role: "storyteller", Revision: current.Revision + 1, Cause: err}
	}

	cmp, err := m.evaluator.CompareModification(ctx, current, revised, feedback)
	if err != nil {
		return nil, &RequestError{Role: "judge", Revision: revised.Revision, Cause: err}
	}

	if !cmp.FeedbackAddressed {
		m.logger.Warn("modification did not address feedback",
			"dimension", inst.Dimension,
			"quality", cmp.Quality)
	}

	return &Modification{Revised: revised, Comparison: cmp}, nil
}
