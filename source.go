package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/lekman/tts-code/internal/markdown"
	"github.com/lekman/tts-code/tts"
)

// document is a source resolved to the text that will be spoken.
type document struct {
	path      string // local file, watched by the reader; empty otherwise
	uri       string // identifies the document in cache keys
	note      string // shown in the status bar
	source    []byte // raw content, for previews
	markdown  bool
	text      string
	selection bool
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// loadDocument resolves the command arguments and flags to a document.
func loadDocument(ctx context.Context, args []string) (document, error) {
	doc, err := readSource(ctx, args)
	if err != nil {
		return doc, err
	}

	doc.text, err = tts.DocumentText(doc.name(), doc.source, ttsConfig.IncludeCodeBlocks)
	if err != nil {
		return doc, err
	}

	if lines != "" {
		from, to, err := parseLines(lines)
		if err != nil {
			return doc, err
		}
		doc.text, err = tts.SelectLines(doc.text, from, to)
		if err != nil {
			return doc, err
		}
		doc.selection = true
		doc.note = fmt.Sprintf("%s:%s", doc.note, lines)
	}

	log.Debug("Loaded document", "uri", doc.uri, "chars", len(doc.text), "selection", doc.selection)
	return doc, nil
}

// name returns a file name whose extension selects the text conversion.
func (d document) name() string {
	if d.markdown {
		return d.note + ".md"
	}
	return d.note
}

func readSource(ctx context.Context, args []string) (document, error) {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	if fromClipboard {
		if arg != "" {
			return document{}, errors.New("cannot use a file argument with --clipboard")
		}
		s, err := clipboard.ReadAll()
		if err != nil {
			return document{}, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return document{uri: "clipboard", note: "clipboard", source: []byte(s)}, nil
	}

	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if arg == "" || arg == "-" {
		if arg == "" {
			pipe, err := stdinIsPipe()
			if err != nil {
				return document{}, err
			}
			if !pipe {
				return document{}, errors.New("missing document: pass a markdown or text file, a URL or - for stdin")
			}
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return document{}, fmt.Errorf("unable to read from reader: %w", err)
		}
		return document{uri: "stdin", note: "stdin", source: b, markdown: true}, nil
	}

	// HTTP(S) URLs:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") {
		if u.Scheme != "http" && u.Scheme != "https" {
			return document{}, fmt.Errorf("%s is not a supported protocol", u.Scheme)
		}
		b, err := fetch(ctx, u.String())
		if err != nil {
			return document{}, err
		}
		note := path.Base(u.Path)
		if note == "/" || note == "." {
			note = u.Host
		}
		// Remote documents without an extension are read as markdown.
		isMarkdown := path.Ext(u.Path) == "" || markdown.IsMarkdownFile(u.Path)
		if isMarkdown {
			note = strings.TrimSuffix(note, path.Ext(note))
		}
		return document{uri: u.String(), note: note, source: b, markdown: isMarkdown}, nil
	}

	abs, err := filepath.Abs(arg)
	if err != nil {
		return document{}, fmt.Errorf("unable to get absolute path: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return document{}, fmt.Errorf("unable to open file: %w", err)
	}
	if st.IsDir() {
		return document{}, fmt.Errorf("%s is a directory", arg)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return document{}, fmt.Errorf("unable to read file: %w", err)
	}
	return document{
		path:   abs,
		uri:    (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		note:   filepath.Base(abs),
		source: b,
	}, nil
}

func fetch(ctx context.Context, u string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to get url: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to get url: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read from reader: %w", err)
	}
	return b, nil
}

// parseLines parses FROM:TO, FROM: or :TO. A single number selects one
// line.
func parseLines(s string) (int, int, error) {
	fromStr, toStr, found := strings.Cut(s, ":")
	if !found {
		toStr = fromStr
	}

	parse := func(v string) (int, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("invalid line range %q: lines are positive numbers", s)
		}
		return n, nil
	}

	from, err := parse(fromStr)
	if err != nil {
		return 0, 0, err
	}
	to, err := parse(toStr)
	if err != nil {
		return 0, 0, err
	}
	if from == 0 && to == 0 {
		return 0, 0, fmt.Errorf("invalid line range %q", s)
	}
	return from, to, nil
}
