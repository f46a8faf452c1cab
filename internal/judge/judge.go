package judge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotcommander/bedtime/internal/engine"
	"github.com/dotcommander/bedtime/internal/llm"
	"github.com/dotcommander/bedtime/internal/story"
)

// Judge evaluates story candidates on the five-dimension rubric. Sampling is
// configured cool: reproducibility matters more than creativity here.
type Judge struct {
	client      llm.Completer
	temperature float64
	logger      *slog.Logger
}

func New(client llm.Completer, temperature float64) *Judge {
	return &Judge{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "judge"),
	}
}

const evaluationSystemPrompt = `You are an expert children's literature critic specializing in bedtime stories for ages 5-10.

Evaluate the following story across these dimensions (1-10 scale):
1. Overall Quality: Story structure, flow, and overall appeal
2. Age Appropriateness: Language, themes, and content suitable for ages 5-10
3. Engagement Level: How captivating and interesting the story is for children
4. Educational Value: Moral lessons, learning opportunities, positive messages
5. Creativity: Originality, imagination, and unique elements

Also identify:
- Strengths: What the story does well (list 2-4 points)
- Areas for Improvement: What could be better (list 2-4 points)
- Specific Suggestions: Concrete recommendations for improvement (list 2-4 points)
- Needs Revision: Whether the story should be revised (true/false)

CRITICAL: Respond ONLY with a valid JSON object in this exact format:
{
    "overall_score": <number>,
    "age_appropriateness": <number>,
    "engagement_level": <number>,
    "educational_value": <number>,
    "creativity": <number>,
    "strengths": [<list of strings>],
    "areas_for_improvement": [<list of strings>],
    "suggestions": [<list of strings>],
    "needs_revision": <boolean>
}`

const strictFormatReminder = `

YOUR PREVIOUS RESPONSE COULD NOT BE PARSED. Respond with ONLY the JSON object described above: no prose, no markdown fences, no keys beyond the schema, and every score an integer between 1 and 10.`

// Evaluate scores one candidate. A malformed response is re-asked exactly
// once with a stricter formatting instruction; a second malformed response
// surfaces as ErrMalformedOutput, because an unparseable evaluation cannot
// be trusted for accept/revise decisions.
func (j *Judge) Evaluate(ctx context.Context, candidate story.Candidate) (story.Evaluation, error) {
	user := fmt.Sprintf("STORY TO EVALUATE:\nTitle: %s\nCategory: %s\nContent: %s\n\nPlease evaluate this story and respond with the JSON evaluation.",
		candidate.Title, candidate.Category, candidate.Text)

	j.logger.Info("evaluating story candidate",
		"title", candidate.Title,
		"revision", candidate.Revision,
		"word_count", candidate.WordCount())

	var lastParseErr error
	for attempt := 0; attempt < 2; attempt++ {
		system := evaluationSystemPrompt
		if attempt > 0 {
			system += strictFormatReminder
		}

		response, err := j.client.Complete(ctx, llm.Request{
			System:      system,
			User:        user,
			Temperature: j.temperature,
			ForceJSON:   true,
		})
		if err != nil {
			return story.Evaluation{}, fmt.Errorf("%w: judging story: %v", engine.ErrServiceUnavailable, err)
		}

		eval, parseErr := parseEvaluation(response)
		if parseErr == nil {
			j.logger.Info("evaluation parsed",
				"revision", candidate.Revision,
				"aggregate", eval.Aggregate(),
				"overall", eval.OverallScore,
				"needs_revision", eval.NeedsRevision,
				"retried", attempt > 0)
			return eval, nil
		}

		lastParseErr = parseErr
		j.logger.Warn("malformed evaluation response",
			"attempt", attempt,
			"error", parseErr,
			"response_preview", preview(response, 200))
	}

	return story.Evaluation{}, fmt.Errorf("%w: evaluation: %v", engine.ErrMalformedOutput, lastParseErr)
}

func parseEvaluation(response string) (story.Evaluation, error) {
	// Cheap structural probe before committing to the schema decode; models
	// sometimes reply with prose or a partial object.
	if !llm.ProbeJSON(response,
		"overall_score",
		"age_appropriateness",
		"engagement_level",
		"educational_value",
		"creativity") {
		return story.Evaluation{}, fmt.Errorf("response is missing required score fields")
	}

	var eval story.Evaluation
	if err := llm.ParseJSONResponse(response, &eval); err != nil {
		return story.Evaluation{}, fmt.Errorf("decoding evaluation: %w", err)
	}

	if !eval.Valid() {
		return story.Evaluation{}, fmt.Errorf("dimension score outside the 1-10 range")
	}

	return eval, nil
}

// RevisionGuidance renders the evaluation into feedback the storyteller can
// act on. Deterministic given the evaluation.
func RevisionGuidance(eval story.Evaluation) string {
	var parts []string

	if eval.OverallScore < 7 {
		parts = append(parts, "Focus on improving overall story structure and flow.")
	}
	if eval.AgeAppropriateness < 8 {
		parts = append(parts, "Ensure language and themes are fully appropriate for the target age group.")
	}
	if eval.EngagementLevel < 7 {
		parts = append(parts, "Make the story more engaging with vivid descriptions and compelling characters.")
	}
	if eval.EducationalValue < 7 {
		parts = append(parts, "Strengthen the moral lesson or educational value of the story.")
	}
	if eval.Creativity < 6 {
		parts = append(parts, "Add more creative and imaginative elements to make the story unique.")
	}

	if len(eval.Suggestions) > 0 {
		parts = append(parts, "Specific improvements to make:")
		for _, s := range eval.Suggestions {
			parts = append(parts, "- "+s)
		}
	}
	if len(eval.AreasForImprovement) > 0 {
		parts = append(parts, "Areas needing attention:")
		for _, a := range eval.AreasForImprovement {
			parts = append(parts, "- "+a)
		}
	}

	return strings.Join(parts, "\n")
}

const comparisonSystemPrompt = `You are evaluating whether a story revision successfully addressed the user's feedback.

Compare the original and revised versions and determine:
1. Was the user's feedback properly addressed?
2. Did the revision maintain story quality?
3. Is the revised version still age-appropriate?

Respond with JSON in this format:
{
    "feedback_addressed": true/false,
    "modification_quality": "excellent" | "good" | "fair" | "poor",
    "changes_made": ["list of specific changes made"],
    "story_quality_maintained": true/false,
    "evaluation_summary": "brief summary of the evaluation"
}`

// CompareModification judges an old vs new candidate pair against the
// requested change. The result only surfaces feedback to the user; it never
// gates the revision loop. Same single strict retry on malformed output.
func (j *Judge) CompareModification(ctx context.Context, original, revised story.Candidate, feedback string) (story.Comparison, error) {
	user := fmt.Sprintf(`USER FEEDBACK: %s

ORIGINAL STORY:
Title: %s
%s

REVISED STORY:
Title: %s
%s`, feedback, original.Title, original.Text, revised.Title, revised.Text)

	var lastParseErr error
	for attempt := 0; attempt < 2; attempt++ {
		system := comparisonSystemPrompt
		if attempt > 0 {
			system += strictFormatReminder
		}

		response, err := j.client.Complete(ctx, llm.Request{
			System:      system,
			User:        user,
			Temperature: j.temperature,
			ForceJSON:   true,
		})
		if err != nil {
			return story.Comparison{}, fmt.Errorf("%w: comparing stories: %v", engine.ErrServiceUnavailable, err)
		}

		if !llm.ProbeJSON(response, "feedback_addressed", "modification_quality") {
			lastParseErr = fmt.Errorf("response is missing comparison fields")
			j.logger.Warn("malformed comparison response",
				"attempt", attempt,
				"error", lastParseErr)
			continue
		}

		var cmp story.Comparison
		if err := llm.ParseJSONResponse(response, &cmp); err != nil {
			lastParseErr = err
			j.logger.Warn("malformed comparison response",
				"attempt", attempt,
				"error", lastParseErr)
			continue
		}

		cmp.WordDelta = revised.WordCount() - original.WordCount()
		j.logger.Info("modification compared",
			"feedback_addressed", cmp.FeedbackAddressed,
			"quality", cmp.Quality,
			"word_delta", cmp.WordDelta)
		return cmp, nil
	}

	return story.Comparison{}, fmt.Errorf("%w: comparison: %v", engine.ErrMalformedOutput, lastParseErr)
}

const quickCheckSystemPrompt = `You are a children's story quality checker.

Quickly assess if this bedtime story meets basic quality standards:
- Appropriate for ages 5-10
- Has a clear beginning, middle, and end
- Contains positive, comforting themes
- Uses age-appropriate language
- Has a satisfying, peaceful conclusion

Respond with only "PASS" or "FAIL" based on whether the story meets these basic standards.`

// QuickCheck is a cheap PASS/FAIL gate used by the one-shot command.
func (j *Judge) QuickCheck(ctx context.Context, candidate story.Candidate) (bool, error) {
	response, err := j.client.Complete(ctx, llm.Request{
		System:      quickCheckSystemPrompt,
		User:        fmt.Sprintf("Title: %s\n\nStory: %s", candidate.Title, candidate.Text),
		Temperature: j.temperature,
		MaxTokens:   8,
	})
	if err != nil {
		return false, fmt.Errorf("quick check: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(response), "PASS"), nil
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
