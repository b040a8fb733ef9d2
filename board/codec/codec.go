// ABOUTME: Converts a card to and from its file form: a YAML header block, a markdown body, and comment sections.
// ABOUTME: Decoding is a strict mapping into the Card shape; comment sections are recognized one at a time by content.
package codec

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/kanbanfs/board/core"
)

// SectionDelimiter separates the body from comment sections, and a comment
// header from its text.
const SectionDelimiter = "\n---\n"

const commentMarker = "comment: true"

var headerBlock = regexp.MustCompile(`^---\n(?:([\s\S]*?)\n)?---[ \t]*(?:\n|$)`)

// Decode parses a card file. It returns nil when the file has no header block
// or the header is not a YAML mapping; callers skip such files.
func Decode(contents, path string) *core.Card {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")
	m := headerBlock.FindStringSubmatchIndex(contents)
	if m == nil {
		return nil
	}
	header := ""
	if m[2] >= 0 {
		header = contents[m[2]:m[3]]
	}
	fields, ok := parseMapping(header)
	if !ok {
		return nil
	}

	card := &core.Card{
		Labels:      []string{},
		Attachments: []string{},
		Comments:    []core.Comment{},
		FilePath:    path,
	}
	applyHeader(card, fields)
	if card.ID == "" {
		card.ID = IDFromFilename(path)
	}

	rest := strings.TrimPrefix(contents[m[1]:], "\n")
	splitSections(card, rest)
	return card
}

// Encode renders a card in its file form.
func Encode(card *core.Card) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(encodeHeader(card))
	b.WriteString("---\n\n")
	b.WriteString(card.Content)
	b.WriteString("\n")
	for _, c := range card.Comments {
		b.WriteString(SectionDelimiter)
		b.WriteString(encodeCommentHeader(c))
		b.WriteString(SectionDelimiter)
		b.WriteString(c.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// splitSections walks the text after the header one section at a time. Only
// a section that starts with the comment marker opens a comment; its text is
// the section right after it. Any other section is glued back, delimiter
// included, onto whatever precedes it: the body, or the last comment.
func splitSections(card *core.Card, rest string) {
	sections := strings.Split(rest, SectionDelimiter)
	var body strings.Builder
	body.WriteString(sections[0])

	for i := 1; i < len(sections); i++ {
		s := sections[i]
		if isCommentHeader(s) {
			if c, ok := decodeCommentHeader(s); ok {
				if i+1 < len(sections) {
					c.Content = sections[i+1]
					i++
				}
				card.Comments = append(card.Comments, c)
				continue
			}
		}
		if n := len(card.Comments); n > 0 {
			card.Comments[n-1].Content += SectionDelimiter + s
		} else {
			body.WriteString(SectionDelimiter)
			body.WriteString(s)
		}
	}

	card.Content = strings.TrimSuffix(body.String(), "\n")
	for i := range card.Comments {
		card.Comments[i].Content = strings.TrimSuffix(card.Comments[i].Content, "\n")
	}
}

func isCommentHeader(section string) bool {
	return strings.HasPrefix(strings.TrimLeft(section, " \t\n"), commentMarker)
}

func decodeCommentHeader(section string) (core.Comment, bool) {
	fields, ok := parseMapping(section)
	if !ok {
		return core.Comment{}, false
	}
	marker, ok := fields["comment"]
	if !ok || marker.Kind != yaml.ScalarNode || marker.Value != "true" {
		return core.Comment{}, false
	}
	var c core.Comment
	c.ID, _ = scalar(fields["id"])
	c.Author, _ = scalar(fields["author"])
	c.Created, _ = scalar(fields["created"])
	return c, true
}

// parseMapping parses src as a YAML mapping and returns its values by key.
// An empty document is an empty mapping.
func parseMapping(src string) (map[string]*yaml.Node, bool) {
	fields := map[string]*yaml.Node{}
	if strings.TrimSpace(src) == "" {
		return fields, true
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, false
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if key.Kind != yaml.ScalarNode {
			continue
		}
		fields[key.Value] = root.Content[i+1]
	}
	return fields, true
}

// applyHeader maps header values onto the fixed card shape. A value whose
// shape doesn't fit its field is dropped; only metadata may nest.
func applyHeader(card *core.Card, fields map[string]*yaml.Node) {
	if v, ok := scalar(fields["version"]); ok {
		card.Version, _ = strconv.Atoi(v)
	}
	card.ID, _ = scalar(fields["id"])
	card.Status, _ = scalar(fields["status"])
	if p, ok := scalar(fields["priority"]); ok {
		card.Priority = core.Priority(p)
	}
	card.Assignee = optionalScalar(fields["assignee"])
	card.DueDate = optionalScalar(fields["dueDate"])
	card.Created, _ = scalar(fields["created"])
	card.Modified, _ = scalar(fields["modified"])
	card.CompletedAt = optionalScalar(fields["completedAt"])
	card.Order, _ = scalar(fields["order"])

	if l, ok := scalarList(fields["labels"]); ok {
		card.Labels = l
	}
	if a, ok := scalarList(fields["attachments"]); ok {
		card.Attachments = a
	}
	if a, ok := scalarList(fields["actions"]); ok && len(a) > 0 {
		card.Actions = a
	}

	if md := fields["metadata"]; md != nil && md.Kind == yaml.MappingNode {
		var m map[string]any
		if err := md.Decode(&m); err == nil && len(m) > 0 {
			card.Metadata = m
		}
	}
}

// scalar returns a non-null scalar value.
func scalar(n *yaml.Node) (string, bool) {
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return "", false
	}
	return n.Value, true
}

func optionalScalar(n *yaml.Node) *string {
	v, ok := scalar(n)
	if !ok || v == "" {
		return nil
	}
	return &v
}

// scalarList accepts a sequence of scalars or null (an empty list).
func scalarList(n *yaml.Node) ([]string, bool) {
	if n == nil {
		return nil, false
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return []string{}, true
	}
	if n.Kind != yaml.SequenceNode {
		return nil, false
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		v, ok := scalar(item)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func encodeHeader(card *core.Card) string {
	version := card.Version
	if version == 0 {
		version = core.CardFormatVersion
	}
	m := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content,
		key("version"), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(version)},
		key("id"), quoted(card.ID),
		key("status"), quoted(card.Status),
		key("priority"), quoted(string(card.Priority)),
		key("assignee"), nullable(card.Assignee),
		key("dueDate"), nullable(card.DueDate),
		key("created"), quoted(card.Created),
		key("modified"), quoted(card.Modified),
		key("completedAt"), nullable(card.CompletedAt),
		key("labels"), inlineList(card.Labels),
		key("attachments"), inlineList(card.Attachments),
		key("order"), quoted(card.Order),
	)
	if len(card.Actions) > 0 {
		m.Content = append(m.Content, key("actions"), inlineList(card.Actions))
	}
	if len(card.Metadata) > 0 {
		var md yaml.Node
		if err := md.Encode(card.Metadata); err == nil {
			m.Content = append(m.Content, key("metadata"), &md)
		}
	}
	return marshal(m)
}

func encodeCommentHeader(c core.Comment) string {
	m := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content,
		key("comment"), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"},
		key("id"), quoted(c.ID),
		key("author"), quoted(c.Author),
		key("created"), quoted(c.Created),
	)
	return strings.TrimSuffix(marshal(m), "\n")
}

func marshal(n *yaml.Node) string {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return ""
	}
	_ = enc.Close()
	return buf.String()
}

func key(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

func quoted(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle}
}

func nullable(v *string) *yaml.Node {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	return quoted(*v)
}

func inlineList(items []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, it := range items {
		seq.Content = append(seq.Content, quoted(it))
	}
	return seq
}
