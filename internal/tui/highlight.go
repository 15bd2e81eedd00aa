package tui

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
)

// SyntaxRenderer applies syntax highlighting to the detail pane based on
// the shape of the selected line.
type SyntaxRenderer struct {
	theme string
}

// NewSyntaxRenderer creates a renderer using the given chroma theme
func NewSyntaxRenderer(theme string) *SyntaxRenderer {
	if theme == "" {
		theme = "monokai"
	}
	return &SyntaxRenderer{theme: theme}
}

// Render highlights one line. JSON-shaped lines get the JSON lexer;
// everything else falls back to plain text unchanged.
func (r *SyntaxRenderer) Render(content string) string {
	trimmed := strings.TrimSpace(content)
	lexer := "plaintext"
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if lexers.Get("json") != nil {
			lexer = "json"
		}
	}
	if lexer == "plaintext" {
		return content
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, content, lexer, "terminal16m", r.theme); err != nil {
		return content
	}
	highlighted := buf.String()
	highlighted = strings.ReplaceAll(highlighted, "\n", "")
	return strings.ReplaceAll(highlighted, "\r", "")
}
