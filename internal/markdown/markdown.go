// Package markdown turns markdown source into plain text for speech.
package markdown

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Extensions recognized by IsMarkdownFile.
var Extensions = []string{".md", ".markdown", ".mdown", ".mkd", ".mdx"}

var md = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Table, extension.Linkify),
)

var (
	tagRegex     = regexp.MustCompile(`<[^>]*>`)
	bracketRegex = regexp.MustCompile(`[<>]`)
	spaceRegex   = regexp.MustCompile(`[ \t]+`)
	blankRegex   = regexp.MustCompile(`\n{3,}`)
)

// IsMarkdownFile reports whether name has a markdown extension.
func IsMarkdownFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ToPlainText converts markdown to text suitable for speech. Headings end
// with a period, list items start with a bullet, images are read as their
// alt text and links as their label. Code blocks are dropped unless
// includeCodeBlocks is set, in which case each is replaced by a short
// description. The result contains no HTML.
func ToPlainText(source string, includeCodeBlocks bool) string {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	w := walker{source: src, includeCode: includeCodeBlocks}
	return cleanup(w.blocks(doc))
}

type walker struct {
	source      []byte
	includeCode bool
}

// blocks renders the block children of parent. Blocks that were separated
// by a blank line in the source stay separated by one.
func (w *walker) blocks(parent ast.Node) string {
	var buf strings.Builder
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		s := strings.TrimSpace(w.block(c))
		if s == "" {
			continue
		}
		if buf.Len() > 0 {
			if c.HasBlankPreviousLines() {
				buf.WriteString("\n\n")
			} else {
				buf.WriteString("\n")
			}
		}
		buf.WriteString(s)
	}
	return buf.String()
}

func (w *walker) block(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Heading:
		s := strings.TrimSpace(w.inline(n))
		if s == "" || strings.ContainsAny(s[len(s)-1:], ".!?:") {
			return s
		}
		return s + "."

	case *ast.Paragraph, *ast.TextBlock:
		return w.inline(n)

	case *ast.FencedCodeBlock:
		if !w.includeCode {
			return ""
		}
		if lang := string(n.Language(w.source)); lang != "" {
			return "[Code block in " + lang + "]"
		}
		return "[Code block]"

	case *ast.CodeBlock:
		if !w.includeCode {
			return ""
		}
		return "[Code block]"

	case *ast.HTMLBlock:
		var buf strings.Builder
		for i := 0; i < n.Lines().Len(); i++ {
			line := n.Lines().At(i)
			buf.Write(line.Value(w.source))
		}
		if n.HasClosure() {
			buf.Write(n.ClosureLine.Value(w.source))
		}
		return stripTags(buf.String())

	case *ast.List:
		var buf strings.Builder
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			s := strings.TrimSpace(w.blocks(item))
			if s == "" {
				continue
			}
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString("• ")
			buf.WriteString(s)
		}
		return buf.String()

	case *ast.ThematicBreak:
		return ""

	case *east.Table:
		var rows []string
		for row := n.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				if s := strings.TrimSpace(w.inline(cell)); s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, ", ")+".")
			}
		}
		return strings.Join(rows, "\n")
	}

	if node.Type() == ast.TypeBlock {
		return w.blocks(node)
	}
	return w.inline(node)
}

// inline renders the inline children of parent.
func (w *walker) inline(parent ast.Node) string {
	var buf strings.Builder
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		w.writeInline(&buf, c)
	}
	return buf.String()
}

func (w *walker) writeInline(buf *strings.Builder, node ast.Node) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(w.source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteString("\n")
		}
		return

	case *ast.String:
		buf.Write(n.Value)
		return

	case *ast.RawHTML:
		return

	case *ast.AutoLink:
		buf.Write(n.Label(w.source))
		return

	case *ast.Image:
		alt := strings.TrimSpace(w.inline(n))
		if alt == "" {
			alt = "untitled"
		}
		buf.WriteString("Image: " + alt + ".")
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.writeInline(buf, c)
	}
}

// stripTags removes tags until none are left, then any stray angle
// brackets.
func stripTags(s string) string {
	for {
		next := tagRegex.ReplaceAllString(s, "")
		next = bracketRegex.ReplaceAllString(next, "")
		if next == s {
			return s
		}
		s = next
	}
}

func cleanup(s string) string {
	s = stripTags(s)
	s = spaceRegex.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRegex.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

var frontmatterRegex = regexp.MustCompile(`(?s)\A---\r?\n.*?\r?\n---\r?\n`)

// RemoveFrontmatter strips a leading YAML frontmatter block.
func RemoveFrontmatter(content []byte) []byte {
	if loc := frontmatterRegex.FindIndex(content); loc != nil {
		return content[loc[1]:]
	}
	return content
}
