package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const tagLayout = "20060102-150405"

// ArtifactStore persists generated quiz sets and summaries as flat files.
// Filenames embed a second-resolution tag, so sorting by name descending
// yields newest-first without any index.
type ArtifactStore struct {
	problemsDir  string
	summariesDir string
}

func NewArtifactStore(problemsDir, summariesDir string) *ArtifactStore {
	return &ArtifactStore{
		problemsDir:  problemsDir,
		summariesDir: summariesDir,
	}
}

// NowTag mints the filename tag shared by both files of one generation run.
// Two runs within the same second would collide; accepted for a single-user
// tool.
func NowTag() string {
	return time.Now().Format(tagLayout)
}

// SaveProblems writes the quiz JSON pretty-printed, preserving the payload
// byte-for-byte apart from indentation, and returns the filename.
func (s *ArtifactStore) SaveProblems(tag string, problems json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, problems, "", "  "); err != nil {
		return "", fmt.Errorf("indent problems json: %w", err)
	}

	name := fmt.Sprintf("problems_%s.json", tag)
	if err := os.WriteFile(filepath.Join(s.problemsDir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write problems file: %w", err)
	}
	return name, nil
}

// SaveSummary writes the raw summary Markdown and returns the filename.
func (s *ArtifactStore) SaveSummary(tag string, markdown string) (string, error) {
	name := fmt.Sprintf("summary_%s.md", tag)
	if err := os.WriteFile(filepath.Join(s.summariesDir, name), []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write summary file: %w", err)
	}
	return name, nil
}

// ListProblems returns stored problem filenames, newest first.
func (s *ArtifactStore) ListProblems() ([]string, error) {
	return listByPattern(s.problemsDir, "problems_", ".json")
}

// ListSummaries returns stored summary filenames, newest first.
func (s *ArtifactStore) ListSummaries() ([]string, error) {
	return listByPattern(s.summariesDir, "summary_", ".md")
}

func listByPattern(dir, prefix, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read artifact dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}

	// Filename order is timestamp order; descending means newest first.
	sort.Slice(names, func(i, j int) bool { return names[i] > names[j] })
	return names, nil
}

// ProblemPath resolves a stored problems filename to its on-disk path.
func (s *ArtifactStore) ProblemPath(name string) (string, error) {
	return safeJoin(s.problemsDir, name)
}

// SummaryPath resolves a stored summary filename to its on-disk path.
func (s *ArtifactStore) SummaryPath(name string) (string, error) {
	return safeJoin(s.summariesDir, name)
}

// safeJoin accepts bare filenames only, keeping every resolved path inside
// the artifact directory.
func safeJoin(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(dir, name), nil
}
