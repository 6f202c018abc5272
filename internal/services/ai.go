package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"study-ai/internal/models"
)

var (
	// ErrAIUnavailable is returned when no OpenAI credential is configured.
	ErrAIUnavailable = errors.New("OPENAI_API_KEY not set")

	// ErrMissingOutputKeys is returned when the model response parses as
	// JSON but lacks summary_markdown or problems.
	ErrMissingOutputKeys = errors.New("model output missing required keys")
)

const systemPrompt = "You are a concise, accurate teaching assistant and exam writer."

const (
	generationTemperature = 0.4
	generationMaxTokens   = 7000
)

// AIService calls the OpenAI API to turn extracted PDF text into a summary
// and quiz set.
type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey, model string) *AIService {
	if apiKey == "" {
		return &AIService{model: model}
	}
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (s *AIService) disabled() bool {
	return s.client == nil || s.model == ""
}

// Generate sends one generation request and decodes the model's JSON reply.
// The call is not retried, and no extra deadline is layered on the caller's
// context; generation can legitimately take tens of seconds.
func (s *AIService) Generate(ctx context.Context, pdfText string) (*models.ModelOutput, error) {
	if s.disabled() {
		return nil, ErrAIUnavailable
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildGenerationPrompt(pdfText),
			},
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request openai generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	return DecodeModelOutput(resp.Choices[0].Message.Content)
}

// jsonBlockRe grabs the outermost {...} block closing at the end of the
// text, tolerating prose before the JSON.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}\s*$`)

// DecodeModelOutput extracts the generation JSON out of free-form model
// text. It first parses the end-anchored {...} block, then strips Markdown
// code fences and tries once more. The decoded object must carry both
// summary_markdown and problems; the problems payload is kept raw.
func DecodeModelOutput(raw string) (*models.ModelOutput, error) {
	out, err := parseModelJSON(extractJSONBlock(raw))
	if err == nil {
		return out, nil
	}
	if errors.Is(err, ErrMissingOutputKeys) {
		return nil, err
	}
	return parseModelJSON(extractJSONBlock(stripCodeFences(raw)))
}

func extractJSONBlock(text string) string {
	if block := jsonBlockRe.FindString(text); block != "" {
		return block
	}
	return text
}

// stripCodeFences drops fence lines (``` with an optional language tag) so
// fenced responses can be parsed on the retry pass.
func stripCodeFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func parseModelJSON(candidate string) (*models.ModelOutput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		if json.Valid([]byte(candidate)) {
			// Valid JSON that is not an object can never carry the keys.
			return nil, ErrMissingOutputKeys
		}
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	summaryRaw, okSummary := fields["summary_markdown"]
	problems, okProblems := fields["problems"]
	if !okSummary || !okProblems {
		return nil, ErrMissingOutputKeys
	}

	var summary string
	if err := json.Unmarshal(summaryRaw, &summary); err != nil {
		return nil, fmt.Errorf("decode summary_markdown: %w", err)
	}

	return &models.ModelOutput{SummaryMarkdown: summary, Problems: problems}, nil
}
