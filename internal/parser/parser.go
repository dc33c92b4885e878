// Package parser extracts [[links]], highlight spans and frontmatter from note text.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var linkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// StyleLink marks a [[link]] marker in highlight output.
const StyleLink = "link"

// Span is a styled byte range [Start, End) of the source text.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Style string `json:"style"`
}

// Links returns the distinct inner texts of every [[...]] marker in content,
// in first-seen order. Labels are kept verbatim: no trimming, no alias
// handling, no case folding.
func Links(content string) []string {
	matches := linkRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		label := m[1]
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// Highlight returns one span per [[...]] marker, covering the brackets.
func Highlight(content string) []Span {
	locs := linkRe.FindAllStringIndex(content, -1)
	out := make([]Span, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Span{Start: loc[0], End: loc[1], Style: StyleLink})
	}
	return out
}

// Document is a Markdown file split into note fields.
type Document struct {
	Title     string
	Category  string
	Content   string
	CreatedAt time.Time
}

type frontmatter struct {
	Title    string    `yaml:"title"`
	Category string    `yaml:"category"`
	Created  time.Time `yaml:"created"`
}

// ParseDocument reads an optional YAML frontmatter block followed by the body.
// The title falls back to the first H1 heading and then to the file stem of
// name. Invalid frontmatter is treated as part of the body.
func ParseDocument(name string, data []byte) Document {
	fm, body := splitFrontmatter(data)

	doc := Document{
		Title:     fm.Title,
		Category:  fm.Category,
		Content:   body,
		CreatedAt: fm.Created,
	}
	if doc.Title == "" {
		doc.Title = firstHeading(body)
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return doc
}

func splitFrontmatter(data []byte) (frontmatter, string) {
	const delim = "---"
	var fm frontmatter

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data)
	}
	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	if err := yaml.Unmarshal(block, &fm); err != nil {
		return frontmatter{}, string(data)
	}
	return fm, body
}

var (
	markdown     goldmark.Markdown
	markdownOnce sync.Once
)

func md() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// firstHeading returns the plain text of the first level-1 heading.
func firstHeading(body string) string {
	src := []byte(body)
	doc := md().Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(inlineText(h, src))
		return ast.WalkStop, nil
	})
	return title
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

var mdEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// RenderHTML converts note content to HTML. Each [[label]] becomes a link to
// the fragment #label so a client can resolve it against its own notes.
func RenderHTML(content string) (string, error) {
	src := linkRe.ReplaceAllStringFunc(content, func(m string) string {
		label := m[2 : len(m)-2]
		return fmt.Sprintf("[%s](#%s)", mdEscaper.Replace(label), url.PathEscape(label))
	})
	var buf bytes.Buffer
	if err := md().Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("parser: render html: %w", err)
	}
	return buf.String(), nil
}
