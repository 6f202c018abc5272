package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"study-ai/internal/models"
)

// ErrNoText is returned when a PDF parses but yields no extractable text,
// typically a scanned image-only document.
var ErrNoText = errors.New("PDF에서 텍스트를 추출하지 못했습니다.")

// TextExtractor turns an uploaded PDF stream into plain text.
type TextExtractor interface {
	ExtractText(src io.ReaderAt, size int64) (text string, pages int, err error)
}

// Generator produces the summary and quiz set for extracted text.
type Generator interface {
	Generate(ctx context.Context, pdfText string) (*models.ModelOutput, error)
}

// StudySetService runs the generation pipeline: extract text, call the
// model, persist both artifacts under one shared tag, and log the attempt.
type StudySetService struct {
	extractor TextExtractor
	ai        Generator
	store     *ArtifactStore
	history   *HistoryService
	model     string
}

func NewStudySetService(
	extractor TextExtractor,
	ai Generator,
	store *ArtifactStore,
	history *HistoryService,
	model string,
) *StudySetService {
	return &StudySetService{
		extractor: extractor,
		ai:        ai,
		store:     store,
		history:   history,
		model:     model,
	}
}

// CreateFromPDF processes one uploaded PDF synchronously. Artifact files are
// written only after the model output validates; a failed attempt leaves no
// files, only a history row.
func (s *StudySetService) CreateFromPDF(ctx context.Context, src io.ReaderAt, size int64, sourceName string) (*models.StudySet, error) {
	started := time.Now()
	rec := models.GenerationRecord{
		RequestID:  uuid.NewString(),
		SourceName: sourceName,
		Model:      s.model,
		CreatedAt:  started.UTC(),
	}

	set, err := s.run(ctx, src, size, &rec)
	rec.DurationMS = time.Since(started).Milliseconds()
	if err != nil {
		rec.Status = models.GenerationStatusError
		rec.Error = err.Error()
		log.Printf("generation %s failed for %s: %v", rec.RequestID, sourceName, err)
	} else {
		rec.Status = models.GenerationStatusOK
		log.Printf("generation %s: %s -> %s (%d pages, %d chars) in %s",
			rec.RequestID, sourceName, set.Tag, rec.PageCount, rec.CharCount,
			time.Since(started).Round(time.Millisecond))
	}

	if s.history != nil {
		// Telemetry must not mask the pipeline outcome.
		if recErr := s.history.Record(ctx, rec); recErr != nil {
			log.Printf("record generation %s: %v", rec.RequestID, recErr)
		}
	}

	return set, err
}

func (s *StudySetService) run(ctx context.Context, src io.ReaderAt, size int64, rec *models.GenerationRecord) (*models.StudySet, error) {
	text, pages, err := s.extractor.ExtractText(src, size)
	if err != nil {
		return nil, err
	}
	rec.PageCount = pages
	rec.CharCount = len([]rune(text))

	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	out, err := s.ai.Generate(ctx, text)
	if err != nil {
		return nil, err
	}

	tag := NowTag()
	problemsFile, err := s.store.SaveProblems(tag, out.Problems)
	if err != nil {
		return nil, err
	}
	summaryFile, err := s.store.SaveSummary(tag, out.SummaryMarkdown)
	if err != nil {
		return nil, err
	}
	rec.ProblemsFile = problemsFile
	rec.SummaryFile = summaryFile

	// Counts are observational; an undecodable quiz payload still persists
	// untouched.
	var quiz models.QuizSet
	if err := json.Unmarshal(out.Problems, &quiz); err == nil {
		rec.BasicCount = len(quiz.Basic)
		rec.AdvancedCount = len(quiz.Advanced)
	}

	return &models.StudySet{
		Tag:             tag,
		ProblemsFile:    problemsFile,
		SummaryFile:     summaryFile,
		Problems:        out.Problems,
		SummaryMarkdown: out.SummaryMarkdown,
	}, nil
}
