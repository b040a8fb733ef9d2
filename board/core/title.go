// ABOUTME: Title extraction from a card's markdown body and slug generation for card file names.
// ABOUTME: Uses goldmark's parser so headings inside code fences or with inline markup are handled correctly.
package core

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const maxSlugLength = 50

var markdown = goldmark.New()

// Title returns the text of the first level-1 heading in content. Without one
// it falls back to the first non-blank line, with any leading '#' removed.
func Title(content string) string {
	src := []byte(content)
	doc := markdown.Parser().Parse(text.NewReader(src))

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
	if title != "" {
		return title
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			return line
		}
	}
	return ""
}

// inlineText concatenates the literal text of every inline descendant.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// Slugify turns a title into a lowercase, dash-separated file name fragment.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
		// never cut a multi-byte rune in half
		for len(slug) > 0 && !utf8.ValidString(slug) {
			slug = slug[:len(slug)-1]
		}
		slug = strings.TrimRight(slug, "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}
