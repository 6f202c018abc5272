package services

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownService renders generated summaries to HTML for the browser view.
type MarkdownService struct {
	md goldmark.Markdown
}

func NewMarkdownService() *MarkdownService {
	return &MarkdownService{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			// Raw HTML in summaries passes through; local single-user tool.
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts summary Markdown to HTML with tables and fenced code
// blocks enabled.
func (s *MarkdownService) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
