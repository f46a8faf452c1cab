package engine

import (
	"context"
	"log/slog"

	"github.com/dotcommander/bedtime/internal/story"
)

// Generator produces story candidates. Satisfied by storyteller.Storyteller.
type Generator interface {
	Generate(ctx context.Context, req story.Request) (story.Candidate, error)
	Revise(ctx context.Context, req story.Request, prior story.Candidate, feedback string) (story.Candidate, error)
}

// Evaluator scores candidates and compares modified versions. Satisfied by
// judge.Judge.
type Evaluator interface {
	Evaluate(ctx context.Context, candidate story.Candidate) (story.Evaluation, error)
	CompareModification(ctx context.Context, original, revised story.Candidate, feedback string) (story.Comparison, error)
}

// GuidanceFunc renders an evaluation into revision feedback.
type GuidanceFunc func(story.Evaluation) string

// Outcome is the terminal state of one revision sequence.
type Outcome string

const (
	// OutcomeAccepted: aggregate score reached the threshold.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeCappedAccepted: the revision cap was reached and the last
	// candidate was accepted regardless of score, so every request
	// terminates with a definite answer in a bounded number of calls.
	OutcomeCappedAccepted Outcome = "capped_accepted"
)

// Result is the controller's answer for one story request.
type Result struct {
	Story      story.Candidate
	Evaluation story.Evaluation
	Cycles     []story.RevisionCycle
	Outcome    Outcome
}

// controller state machine states.
type state int

const (
	stateInitial state = iota
	stateGenerated
	stateJudged
	stateRevising
	stateAccepted
	stateCappedAccepted
)

// Controller drives the generate-judge-revise loop with a hard revision cap.
// The cap is the primary defense against runaway cost: per request the
// generator and the evaluator each run at most maxRevisions+1 times.
type Controller struct {
	generator Generator
	evaluator Evaluator
	guidance  GuidanceFunc
	threshold float64
	maxRev    int
	logger    *slog.Logger
}

func NewController(generator Generator, evaluator Evaluator, guidance GuidanceFunc, threshold float64, maxRevisions int) *Controller {
	return &Controller{
		generator: generator,
		evaluator: evaluator,
		guidance:  guidance,
		threshold: threshold,
		maxRev:    maxRevisions,
		logger:    slog.Default().With("component", "revision_controller"),
	}
}

// Run executes one complete revision sequence for a classified request.
// Generator or evaluator errors abort the request; no unevaluated story is
// ever returned.
func (c *Controller) Run(ctx context.Context, req story.Request) (*Result, error) {
	result := &Result{}

	var (
		current  story.Candidate
		eval     story.Evaluation
		feedback string
		err      error
	)

	st := stateInitial

	for {
		switch st {
		case stateInitial:
			current, err = c.generator.Generate(ctx, req)
			if err != nil {
				return nil, &RequestError{Role: "storyteller", Revision: 0, Cause: err}
			}
			st = stateGenerated

		case stateRevising:
			prior := current
			current, err = c.generator.Revise(ctx, req, prior, feedback)
			if err != nil {
				return nil, &RequestError{Role: "storyteller", Revision: prior.Revision + 1, Cause: err}
			}
			st = stateGenerated

		case stateGenerated:
			eval, err = c.evaluator.Evaluate(ctx, current)
			if err != nil {
				return nil, &RequestError{Role: "judge", Revision: current.Revision, Cause: err}
			}
			result.Cycles = append(result.Cycles, story.RevisionCycle{
				Candidate:  current,
				Evaluation: eval,
			})
			st = stateJudged

		case stateJudged:
			aggregate := eval.Aggregate()
			c.logger.Info("candidate judged",
				"revision", current.Revision,
				"aggregate", aggregate,
				"threshold", c.threshold)

			switch {
			case aggregate >= c.threshold:
				st = stateAccepted
			case current.Revision < c.maxRev:
				feedback = c.guidance(eval)
				c.logger.Info("requesting revision",
					"revision", current.Revision,
					"next_revision", current.Revision+1)
				st = stateRevising
			default:
				c.logger.Warn("revision cap reached, accepting last candidate",
					"revision", current.Revision,
					"aggregate", aggregate,
					"threshold", c.threshold)
				st = stateCappedAccepted
			}

		case stateAccepted:
			result.Story = current
			result.Evaluation = eval
			result.Outcome = OutcomeAccepted
			return result, nil

		case stateCappedAccepted:
			result.Story = current
			result.Evaluation = eval
			result.Outcome = OutcomeCappedAccepted
			return result, nil
		}
	}
}
