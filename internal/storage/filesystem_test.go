package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestFileSystemSaveAndLoad(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	ctx := context.Background()

	path := filepath.Join("sessions", "test", "story.md")
	if err := fs.Save(ctx, path, []byte("# A Story\n")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := fs.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != "# A Story\n" {
		t.Errorf("loaded = %q", data)
	}
}

func TestFileSystemList(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	ctx := context.Background()

	for _, p := range []string{
		"sessions/2026-08-25_2100_fox_aaaa/story.md",
		"sessions/2026-08-26_2100_owl_bbbb/story.md",
	} {
		if err := fs.Save(ctx, p, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	matches, err := fs.List(ctx, "sessions/*")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("matches = %v, want 2 session dirs", matches)
	}
}

func TestFileSystemRejectsTraversal(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	ctx := context.Background()

	tests := []string{
		"../outside.txt",
		"sessions/../../outside.txt",
		"/etc/passwd",
	}

	for _, path := range tests {
		if err := fs.Save(ctx, path, []byte("x")); err == nil {
			t.Errorf("Save(%q) error = nil, want traversal rejection", path)
		}
		if _, err := fs.Load(ctx, path); err == nil {
			t.Errorf("Load(%q) error = nil, want traversal rejection", path)
		}
	}

	if _, err := fs.List(ctx, "../*"); err == nil {
		t.Error("List(../*) error = nil, want traversal rejection")
	}
}

func TestSessionPath(t *testing.T) {
	at := time.Date(2026, 8, 26, 21, 30, 0, 0, time.UTC)
	got := SessionPath("82f06b15-0000-0000-0000-000000000000", "A Brave Little Mouse!", at)

	want := filepath.Join("sessions", "2026-08-26_2130_a-brave-little-mouse_82f06b15")
	if got != want {
		t.Errorf("SessionPath = %q, want %q", got, want)
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A Brave Little Mouse", "a-brave-little-mouse"},
		{"what?!  about  dragons", "what-about-dragons"},
		{"path/with:chars.here", "path-with-chars-here"},
		{"", "story"},
		{"!!!", "story"},
		{"a very long request about a mouse and an owl and more", "a-very-long-request-about-a-mo"},
	}

	for _, tt := range tests {
		if got := sanitizeForFilename(tt.in, 30); got != tt.want {
			t.Errorf("sanitizeForFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	if NewSessionID() == NewSessionID() {
		t.Error("consecutive session IDs collide")
	}
}
