package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/bedtime/internal/story"
)

// Archive persists accepted stories and their evaluations under the archive
// directory. Artifact writes for one story run concurrently; this is the
// only concurrency in the program and never overlaps generation-service
// calls, which the session loop keeps strictly sequential.
type Archive struct {
	storage Storage
	logger  *slog.Logger
}

func NewArchive(storage Storage) *Archive {
	return &Archive{
		storage: storage,
		logger:  slog.Default().With("component", "archive"),
	}
}

// StoreAccepted writes story.md, evaluation.json and session.md for one
// accepted candidate. Returns the relative session directory.
func (a *Archive) StoreAccepted(ctx context.Context, sessionID string, req story.Request, candidate story.Candidate, eval story.Evaluation) (string, error) {
	dir := SessionPath(sessionID, req.RawText, time.Now())

	evalData, err := json.MarshalIndent(eval, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling evaluation: %w", err)
	}

	storyDoc := renderStoryMarkdown(candidate)
	sessionDoc := renderSessionMetadata(sessionID, req, candidate, eval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.storage.Save(gctx, filepath.Join(dir, "story.md"), []byte(storyDoc))
	})
	g.Go(func() error {
		return a.storage.Save(gctx, filepath.Join(dir, "evaluation.json"), evalData)
	})
	g.Go(func() error {
		return a.storage.Save(gctx, filepath.Join(dir, "session.md"), []byte(sessionDoc))
	})

	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("archiving story: %w", err)
	}

	a.logger.Info("story archived",
		"session_id", sessionID,
		"dir", dir,
		"title", candidate.Title)

	return dir, nil
}

// Sessions lists archived session directories.
func (a *Archive) Sessions(ctx context.Context) ([]string, error) {
	return a.storage.List(ctx, filepath.Join("sessions", "*"))
}

func renderStoryMarkdown(c story.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	b.WriteString(c.Text)
	b.WriteString("\n")
	if c.MoralLesson != "" {
		fmt.Fprintf(&b, "\n---\n*Lesson: %s*\n", c.MoralLesson)
	}
	return b.String()
}

func renderSessionMetadata(sessionID string, req story.Request, c story.Candidate, eval story.Evaluation) string {
	var b strings.Builder
	b.WriteString("# Session\n\n")
	fmt.Fprintf(&b, "**Session ID**: %s\n", sessionID)
	fmt.Fprintf(&b, "**Date**: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Request**: %s\n", req.RawText)
	fmt.Fprintf(&b, "**Category**: %s\n", c.Category)
	fmt.Fprintf(&b, "**Length**: %s (%d words)\n", req.Length, c.WordCount())
	fmt.Fprintf(&b, "**Revisions**: %d\n", c.Revision)
	fmt.Fprintf(&b, "**Aggregate score**: %.2f\n", eval.Aggregate())
	if len(c.Characters) > 0 {
		fmt.Fprintf(&b, "**Characters**: %s\n", strings.Join(c.Characters, ", "))
	}
	return b.String()
}
