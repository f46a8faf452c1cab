package story

import (
	"strings"
)

// Category selects the generation strategy for a story request.
type Category string

const (
	CategoryAdventure   Category = "adventure"
	CategoryFriendship  Category = "friendship"
	CategoryMagical     Category = "magical"
	CategoryAnimal      Category = "animal"
	CategoryEducational Category = "educational"
	CategoryMystery     Category = "mystery"
	CategoryFamily      Category = "family"
)

// DefaultCategory is used whenever classification fails or is ambiguous.
const DefaultCategory = CategoryAdventure

// Categories lists every valid category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryAdventure,
		CategoryFriendship,
		CategoryMagical,
		CategoryAnimal,
		CategoryEducational,
		CategoryMystery,
		CategoryFamily,
	}
}

// ParseCategory maps a raw label to a Category. The second return value
// reports whether the label named a known category.
func ParseCategory(label string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(label)))
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return DefaultCategory, false
}

// Length is the user's target story length.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// ParseLength maps a raw value to a Length, defaulting to medium.
func ParseLength(value string) (Length, bool) {
	switch Length(strings.ToLower(strings.TrimSpace(value))) {
	case LengthShort:
		return LengthShort, true
	case LengthMedium:
		return LengthMedium, true
	case LengthLong:
		return LengthLong, true
	}
	return LengthMedium, false
}

// WordRange is the word-count band a Length maps to.
type WordRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Request is a classified story request. Immutable once classified for a
// given generation attempt.
type Request struct {
	RawText  string   `json:"raw_text"`
	Length   Length   `json:"length"`
	Category Category `json:"category"`
}

// Candidate is one generated story version. Revisions allocate new
// Candidates; a Candidate is never mutated after creation.
type Candidate struct {
	Title       string   `json:"title"`
	Text        string   `json:"text"`
	Category    Category `json:"category"`
	Revision    int      `json:"revision"`
	Temperature float64  `json:"temperature"`
	MoralLesson string   `json:"moral_lesson,omitempty"`
	Characters  []string `json:"characters,omitempty"`
}

// WordCount counts whitespace-separated words in the story text.
func (c Candidate) WordCount() int {
	return len(strings.Fields(c.Text))
}

// Evaluation is the judge's structured verdict on exactly one Candidate.
// Dimension scores are on a 1-10 scale.
type Evaluation struct {
	OverallScore        int      `json:"overall_score"`
	AgeAppropriateness  int      `json:"age_appropriateness"`
	EngagementLevel     int      `json:"engagement_level"`
	EducationalValue    int      `json:"educational_value"`
	Creativity          int      `json:"creativity"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	Suggestions         []string `json:"suggestions"`
	NeedsRevision       bool     `json:"needs_revision"`
}

// Aggregate weights. Overall quality, age fit and engagement gate the
// revision decision hardest, matching how the judge rubric is phrased.
const (
	weightOverall     = 0.30
	weightAge         = 0.25
	weightEngagement  = 0.20
	weightEducational = 0.15
	weightCreativity  = 0.10
)

// Aggregate returns the weighted mean of the five dimension scores.
// Deterministic given the scores.
func (e Evaluation) Aggregate() float64 {
	return weightOverall*float64(e.OverallScore) +
		weightAge*float64(e.AgeAppropriateness) +
		weightEngagement*float64(e.EngagementLevel) +
		weightEducational*float64(e.EducationalValue) +
		weightCreativity*float64(e.Creativity)
}

// Valid reports whether every dimension score is inside the 1-10 band.
func (e Evaluation) Valid() bool {
	for _, s := range []int{
		e.OverallScore,
		e.AgeAppropriateness,
		e.EngagementLevel,
		e.EducationalValue,
		e.Creativity,
	} {
		if s < 1 || s > 10 {
			return false
		}
	}
	return true
}

// RevisionCycle pairs one Candidate with its Evaluation.
type RevisionCycle struct {
	Candidate  Candidate  `json:"candidate"`
	Evaluation Evaluation `json:"evaluation"`
}

// IntentKind classifies a user's follow-up turn.
type IntentKind string

const (
	IntentModify IntentKind = "modify"
	IntentChat   IntentKind = "chat"
)

// Dimension names what a modification targets.
type Dimension string

const (
	DimensionLength  Dimension = "length"
	DimensionContent Dimension = "content"
	DimensionTone    Dimension = "tone"
)

// Instruction is the structured form of a modification request.
type Instruction struct {
	Dimension Dimension `json:"dimension"`
	Detail    string    `json:"detail"`
}

// FeedbackIntent is the router's classification of one follow-up turn.
// Transient; never persisted beyond the turn that produced it.
type FeedbackIntent struct {
	Kind        IntentKind  `json:"kind"`
	Instruction Instruction `json:"instruction,omitempty"`
}

// Comparison is the judge's verdict on a modification, old vs new.
// WordDelta is computed locally from the two candidates.
type Comparison struct {
	FeedbackAddressed bool     `json:"feedback_addressed"`
	Quality           string   `json:"modification_quality"`
	ChangesMade       []string `json:"changes_made"`
	QualityMaintained bool     `json:"story_quality_maintained"`
	Summary           string   `json:"evaluation_summary"`
	WordDelta         int      `json:"word_delta"`
}
