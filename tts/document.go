package tts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lekman/tts-code/internal/markdown"
)

// DocumentText returns the speakable text of a file named name. Markdown is
// converted to plain text; .txt files and files without an extension are
// used as they are. Other files fail with ErrUnsupportedDocument and blank
// documents with ErrEmptyDocument.
func DocumentText(name string, content []byte, includeCodeBlocks bool) (string, error) {
	var text string
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case markdown.IsMarkdownFile(name):
		text = markdown.ToPlainText(string(markdown.RemoveFrontmatter(content)), includeCodeBlocks)
	case ext == ".txt", ext == "":
		text = strings.ReplaceAll(string(content), "\r\n", "\n")
	default:
		return "", fmt.Errorf("%s: %w", filepath.Base(name), ErrUnsupportedDocument)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// ReadDocument reads path and returns its speakable text.
func ReadDocument(path string, includeCodeBlocks bool) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read document: %w", err)
	}
	return DocumentText(path, content, includeCodeBlocks)
}

// SelectLines returns lines from through to of text, counted from 1 and
// inclusive. Bounds are clamped to the text.
func SelectLines(text string, from, to int) (string, error) {
	lines := strings.Split(text, "\n")
	if from < 1 {
		from = 1
	}
	if to <= 0 || to > len(lines) {
		to = len(lines)
	}
	if from > to {
		return "", fmt.Errorf("invalid line range %d:%d", from, to)
	}
	sel := strings.Join(lines[from-1:to], "\n")
	if strings.TrimSpace(sel) == "" {
		return "", ErrEmptyDocument
	}
	return sel, nil
}
