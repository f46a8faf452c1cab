package engine

import (
	"github.com/dotcommander/bedtime/internal/story"
)

// ConversationState tracks one user session. It is owned exclusively by the
// session loop and mutated only at acceptance and promotion points, so it
// needs no locking in the single-session design.
type ConversationState struct {
	request    story.Request
	current    *story.Candidate
	evaluation story.Evaluation
	cycles     []story.RevisionCycle
	history    []story.Candidate
	feedback   []story.FeedbackIntent
}

func NewConversationState() *ConversationState {
	return &ConversationState{}
}

// Accept installs the controller's result as the current story. Re-accepting
// the same candidate (same revision, same text) is a no-op, so re-evaluating
// an already accepted candidate cannot disturb the session.
func (s *ConversationState) Accept(req story.Request, result *Result) {
	if s.current != nil && s.current.Revision == result.Story.Revision && s.current.Text == result.Story.Text {
		return
	}
	if s.current != nil {
		s.history = append(s.history, *s.current)
	}
	candidate := result.Story
	s.request = req
	s.current = &candidate
	s.evaluation = result.Evaluation
	s.cycles = result.Cycles
}

// Promote replaces the current story with a confirmed modification. The
// prior version moves into history.
func (s *ConversationState) Promote(mod *Modification, eval story.Evaluation) {
	if s.current != nil {
		s.history = append(s.history, *s.current)
	}
	candidate := mod.Revised
	s.current = &candidate
	s.evaluation = eval
}

// RecordFeedback appends a routed intent to the session's feedback history.
func (s *ConversationState) RecordFeedback(intent story.FeedbackIntent) {
	s.feedback = append(s.feedback, intent)
}

// Current returns the accepted story, or nil before the first acceptance.
func (s *ConversationState) Current() *story.Candidate {
	return s.current
}

// Request returns the request the current story lineage belongs to.
func (s *ConversationState) Request() story.Request {
	return s.request
}

// Evaluation returns the current story's evaluation.
func (s *ConversationState) Evaluation() story.Evaluation {
	return s.evaluation
}

// Cycles returns the revision history of the current request.
func (s *ConversationState) Cycles() []story.RevisionCycle {
	return s.cycles
}

// History returns prior accepted story versions within the session.
func (s *ConversationState) History() []story.Candidate {
	return s.history
}

// Reset clears the state for a fresh story request within the same session.
func (s *ConversationState) Reset() {
	*s = ConversationState{}
}
