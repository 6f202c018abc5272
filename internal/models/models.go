package models

import (
	"encoding/json"
	"time"
)

// QuizItem is the four-choice question shape the model is asked to produce.
// answer_index is expected to index into choices; the contract is requested
// through the prompt, not enforced on the response.
type QuizItem struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

// QuizSet groups generated questions by difficulty tier.
type QuizSet struct {
	Basic    []QuizItem `json:"basic"`
	Advanced []QuizItem `json:"advanced"`
}

// ModelOutput is the validated top-level shape of a generation response.
// Problems stays raw: whatever the model emitted under "problems" is
// persisted and returned untouched, malformed items included.
type ModelOutput struct {
	SummaryMarkdown string
	Problems        json.RawMessage
}

// Artifact is one stored file exposed through the list endpoints.
type Artifact struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// StudySet is the result of one successful generation run. Both files share
// the same timestamp tag.
type StudySet struct {
	Tag             string
	ProblemsFile    string
	SummaryFile     string
	Problems        json.RawMessage
	SummaryMarkdown string
}

const (
	GenerationStatusOK    = "ok"
	GenerationStatusError = "error"
)

// GenerationRecord is one row of the generation run log. Failed attempts
// keep empty file columns; the log never serves as an artifact index.
type GenerationRecord struct {
	ID            int64
	RequestID     string
	SourceName    string
	PageCount     int
	CharCount     int
	Model         string
	BasicCount    int
	AdvancedCount int
	ProblemsFile  string
	SummaryFile   string
	Status        string
	Error         string
	DurationMS    int64
	CreatedAt     time.Time
}
