package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists session artifacts.
type Storage interface {
	Save(ctx context.Context, path string, data []byte) error
	Load(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, pattern string) ([]string, error)
}

type FileSystem struct {
	baseDir string
}

func NewFileSystem(baseDir string) *FileSystem {
	return &FileSystem{
		baseDir: baseDir,
	}
}

// sanitizePath validates and cleans the path to prevent directory traversal.
func (fs *FileSystem) sanitizePath(path string) (string, error) {
	cleaned := filepath.Clean(path)

	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains parent directory reference")
	}

	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid path: absolute paths not allowed")
	}

	fullPath := filepath.Join(fs.baseDir, cleaned)

	// Covers symlinks and other edge cases after joining.
	if !strings.HasPrefix(fullPath, fs.baseDir+string(filepath.Separator)) && fullPath != fs.baseDir {
		return "", fmt.Errorf("invalid path: outside base directory")
	}

	return fullPath, nil
}

func (fs *FileSystem) Save(ctx context.Context, path string, data []byte) error {
	fullPath, err := fs.sanitizePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

func (fs *FileSystem) Load(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := fs.sanitizePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return data, nil
}

func (fs *FileSystem) List(ctx context.Context, pattern string) ([]string, error) {
	cleaned := filepath.Clean(pattern)
	if strings.Contains(cleaned, "..") {
		return nil, fmt.Errorf("invalid pattern: contains parent directory reference")
	}
	if filepath.IsAbs(cleaned) {
		return nil, fmt.Errorf("invalid pattern: absolute paths not allowed")
	}

	fullPattern := filepath.Join(fs.baseDir, cleaned)

	matches, err := filepath.Glob(fullPattern)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	var results []string
	for _, match := range matches {
		if !strings.HasPrefix(match, fs.baseDir+string(filepath.Separator)) && match != fs.baseDir {
			continue
		}

		rel, err := filepath.Rel(fs.baseDir, match)
		if err != nil {
			continue
		}
		results = append(results, rel)
	}

	return results, nil
}
