package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"study-ai/internal/db"
	"study-ai/internal/models"
	"study-ai/internal/services"
)

type stubExtractor struct {
	text  string
	pages int
	err   error
	calls int
}

func (s *stubExtractor) ExtractText(src io.ReaderAt, size int64) (string, int, error) {
	s.calls++
	if s.err != nil {
		return "", 0, s.err
	}
	return s.text, s.pages, nil
}

type stubGenerator struct {
	out     *models.ModelOutput
	err     error
	calls   int
	gotText string
}

func (s *stubGenerator) Generate(ctx context.Context, pdfText string) (*models.ModelOutput, error) {
	s.calls++
	s.gotText = pdfText
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

type studySetEnv struct {
	svc          *services.StudySetService
	history      *services.HistoryService
	problemsDir  string
	summariesDir string
}

func newStudySetEnv(t *testing.T, extractor services.TextExtractor, generator services.Generator) *studySetEnv {
	t.Helper()

	conn, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	problemsDir := t.TempDir()
	summariesDir := t.TempDir()
	store := services.NewArtifactStore(problemsDir, summariesDir)
	history := services.NewHistoryService(conn)

	return &studySetEnv{
		svc:          services.NewStudySetService(extractor, generator, store, history, "gpt-4o-mini"),
		history:      history,
		problemsDir:  problemsDir,
		summariesDir: summariesDir,
	}
}

func (e *studySetEnv) lastRecord(t *testing.T) models.GenerationRecord {
	t.Helper()

	records, err := e.history.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one history row, got %d", len(records))
	}
	return records[0]
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestStudySetServiceCreateFromPDF(t *testing.T) {
	problems := json.RawMessage(`{"basic": [{"question":"Q1","choices":["a","b","c","d"],"answer_index":0,"explanation":"E1"}, {"question":"Q2","choices":["a","b","c","d"],"answer_index":1,"explanation":"E2"}], "advanced": [{"question":"Q3","choices":["a","b","c","d"],"answer_index":2,"explanation":"E3"}]}`)

	extractor := &stubExtractor{text: "강의 내용 전체", pages: 3}
	generator := &stubGenerator{out: &models.ModelOutput{
		SummaryMarkdown: "# 강의 요약\n\n- 핵심",
		Problems:        problems,
	}}
	env := newStudySetEnv(t, extractor, generator)

	set, err := env.svc.CreateFromPDF(context.Background(), strings.NewReader("ignored"), 7, "lecture.pdf")
	if err != nil {
		t.Fatalf("CreateFromPDF: %v", err)
	}

	if generator.gotText != "강의 내용 전체" {
		t.Errorf("generator received %q, want the extracted text", generator.gotText)
	}

	if _, err := time.Parse("20060102-150405", set.Tag); err != nil {
		t.Errorf("tag %q does not match the timestamp layout: %v", set.Tag, err)
	}
	if set.ProblemsFile != "problems_"+set.Tag+".json" {
		t.Errorf("problems file %q does not share the tag %q", set.ProblemsFile, set.Tag)
	}
	if set.SummaryFile != "summary_"+set.Tag+".md" {
		t.Errorf("summary file %q does not share the tag %q", set.SummaryFile, set.Tag)
	}
	if string(set.Problems) != string(problems) {
		t.Errorf("problems payload modified:\n got %s\nwant %s", set.Problems, problems)
	}

	data, err := os.ReadFile(filepath.Join(env.problemsDir, set.ProblemsFile))
	if err != nil {
		t.Fatalf("read problems artifact: %v", err)
	}
	var got, want any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("problems artifact is not valid JSON: %v", err)
	}
	if err := json.Unmarshal(problems, &want); err != nil {
		t.Fatalf("unmarshal input problems: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("problems artifact differs from model output")
	}

	summary, err := os.ReadFile(filepath.Join(env.summariesDir, set.SummaryFile))
	if err != nil {
		t.Fatalf("read summary artifact: %v", err)
	}
	if string(summary) != "# 강의 요약\n\n- 핵심" {
		t.Errorf("summary artifact %q does not match model output", summary)
	}

	rec := env.lastRecord(t)
	if rec.Status != models.GenerationStatusOK {
		t.Errorf("unexpected status %q", rec.Status)
	}
	if rec.RequestID == "" {
		t.Error("missing request id")
	}
	if rec.SourceName != "lecture.pdf" {
		t.Errorf("unexpected source %q", rec.SourceName)
	}
	if rec.PageCount != 3 {
		t.Errorf("unexpected page count %d", rec.PageCount)
	}
	if want := len([]rune("강의 내용 전체")); rec.CharCount != want {
		t.Errorf("unexpected char count %d, want %d", rec.CharCount, want)
	}
	if rec.BasicCount != 2 || rec.AdvancedCount != 1 {
		t.Errorf("unexpected quiz counts: %d basic, %d advanced", rec.BasicCount, rec.AdvancedCount)
	}
	if rec.ProblemsFile != set.ProblemsFile || rec.SummaryFile != set.SummaryFile {
		t.Errorf("history row lost the artifact names: %q %q", rec.ProblemsFile, rec.SummaryFile)
	}
}

func TestStudySetServiceNoExtractableText(t *testing.T) {
	extractor := &stubExtractor{text: "", pages: 4}
	generator := &stubGenerator{}
	env := newStudySetEnv(t, extractor, generator)

	_, err := env.svc.CreateFromPDF(context.Background(), strings.NewReader("ignored"), 7, "scanned.pdf")
	if !errors.Is(err, services.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
	if generator.calls != 0 {
		t.Errorf("generator should not run without text, ran %d times", generator.calls)
	}
	if names := dirNames(t, env.problemsDir); len(names) != 0 {
		t.Errorf("no artifacts expected, found %v", names)
	}

	rec := env.lastRecord(t)
	if rec.Status != models.GenerationStatusError {
		t.Errorf("unexpected status %q", rec.Status)
	}
	if rec.Error != services.ErrNoText.Error() {
		t.Errorf("unexpected error message %q", rec.Error)
	}
	if rec.PageCount != 4 {
		t.Errorf("page count should be recorded even without text, got %d", rec.PageCount)
	}
}

func TestStudySetServiceGeneratorFailure(t *testing.T) {
	extractor := &stubExtractor{text: "본문", pages: 1}
	generator := &stubGenerator{err: errors.New("request openai generation: connection refused")}
	env := newStudySetEnv(t, extractor, generator)

	_, err := env.svc.CreateFromPDF(context.Background(), strings.NewReader("ignored"), 7, "lecture.pdf")
	if err == nil {
		t.Fatal("expected generation error, got nil")
	}

	if names := dirNames(t, env.problemsDir); len(names) != 0 {
		t.Errorf("failed generation must not leave problems artifacts, found %v", names)
	}
	if names := dirNames(t, env.summariesDir); len(names) != 0 {
		t.Errorf("failed generation must not leave summary artifacts, found %v", names)
	}

	rec := env.lastRecord(t)
	if rec.Status != models.GenerationStatusError {
		t.Errorf("unexpected status %q", rec.Status)
	}
	if rec.ProblemsFile != "" || rec.SummaryFile != "" {
		t.Errorf("failed attempt should keep empty file columns, got %q %q", rec.ProblemsFile, rec.SummaryFile)
	}
}

func TestStudySetServiceExtractorFailure(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("open pdf: malformed xref")}
	generator := &stubGenerator{}
	env := newStudySetEnv(t, extractor, generator)

	_, err := env.svc.CreateFromPDF(context.Background(), strings.NewReader("ignored"), 7, "broken.pdf")
	if err == nil {
		t.Fatal("expected extraction error, got nil")
	}
	if generator.calls != 0 {
		t.Errorf("generator should not run after extraction failure, ran %d times", generator.calls)
	}

	rec := env.lastRecord(t)
	if rec.Status != models.GenerationStatusError {
		t.Errorf("unexpected status %q", rec.Status)
	}
	if rec.PageCount != 0 {
		t.Errorf("no pages should be recorded, got %d", rec.PageCount)
	}
}

func TestStudySetServiceKeepsUndecodableProblems(t *testing.T) {
	// The problems payload is persisted verbatim even when it does not
	// decode into the expected quiz shape; only the counts stay zero.
	problems := json.RawMessage(`{"basic": "이상한 형식", "advanced": [{"answer_index": "둘"}]}`)

	extractor := &stubExtractor{text: "본문", pages: 1}
	generator := &stubGenerator{out: &models.ModelOutput{
		SummaryMarkdown: "요약",
		Problems:        problems,
	}}
	env := newStudySetEnv(t, extractor, generator)

	set, err := env.svc.CreateFromPDF(context.Background(), strings.NewReader("ignored"), 7, "odd.pdf")
	if err != nil {
		t.Fatalf("CreateFromPDF: %v", err)
	}
	if string(set.Problems) != string(problems) {
		t.Errorf("problems payload modified:\n got %s\nwant %s", set.Problems, problems)
	}
	if _, err := os.Stat(filepath.Join(env.problemsDir, set.ProblemsFile)); err != nil {
		t.Errorf("problems artifact missing: %v", err)
	}

	rec := env.lastRecord(t)
	if rec.Status != models.GenerationStatusOK {
		t.Errorf("unexpected status %q", rec.Status)
	}
	if rec.BasicCount != 0 || rec.AdvancedCount != 0 {
		t.Errorf("undecodable payload should leave zero counts, got %d %d", rec.BasicCount, rec.AdvancedCount)
	}
}
