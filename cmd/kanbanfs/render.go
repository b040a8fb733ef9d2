// ABOUTME: Terminal rendering for CLI output using lipgloss styles.
// ABOUTME: Columns take their configured color; priorities map to fixed badge colors.
package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/webhook"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Width(6)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func priorityStyle(p core.Priority) lipgloss.Style {
	switch p {
	case core.PriorityCritical:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	case core.PriorityHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	case core.PriorityLow:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	}
}

// renderBoard groups cards under their column headers, in column order.
// Cards in statuses that are not columns are listed after them.
func renderBoard(board core.BoardConfig, cards []core.Card) string {
	byStatus := map[string][]core.Card{}
	var extra []string
	for _, c := range cards {
		if _, seen := byStatus[c.Status]; !seen && !board.HasColumn(c.Status) {
			extra = append(extra, c.Status)
		}
		byStatus[c.Status] = append(byStatus[c.Status], c)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(board.Name))
	b.WriteString("\n")
	for _, col := range board.Columns {
		writeColumn(&b, col, byStatus[col.ID])
	}
	for _, status := range extra {
		writeColumn(&b, core.Column{ID: status, Name: status}, byStatus[status])
	}
	return b.String()
}

func writeColumn(b *strings.Builder, col core.Column, cards []core.Card) {
	style := headerStyle
	if col.Color != "" {
		style = style.Foreground(lipgloss.Color(col.Color))
	}
	fmt.Fprintf(b, "\n%s %s\n", style.Render(col.Name), dimStyle.Render(fmt.Sprintf("(%d)", len(cards))))
	for _, c := range cards {
		line := idStyle.Render("#"+c.ID) + " " + c.Title()
		line += " " + priorityStyle(c.Priority).Render(string(c.Priority))
		if len(c.Labels) > 0 {
			line += " " + labelStyle.Render("["+strings.Join(c.Labels, ", ")+"]")
		}
		if c.Assignee != nil {
			line += " " + dimStyle.Render("@"+*c.Assignee)
		}
		b.WriteString("  " + line + "\n")
	}
}

// renderCard shows one card with its header fields, body and comments.
func renderCard(c core.Card) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("#"+c.ID+" "+c.Title()) + "\n")
	field := func(name, value string) {
		fmt.Fprintf(&b, "%s %s\n", dimStyle.Render(fmt.Sprintf("%-10s", name)), value)
	}
	field("status", c.Status)
	field("priority", priorityStyle(c.Priority).Render(string(c.Priority)))
	if c.Assignee != nil {
		field("assignee", *c.Assignee)
	}
	if c.DueDate != nil {
		field("due", *c.DueDate)
	}
	field("created", c.Created)
	field("modified", c.Modified)
	if c.CompletedAt != nil {
		field("completed", *c.CompletedAt)
	}
	if len(c.Labels) > 0 {
		field("labels", labelStyle.Render(strings.Join(c.Labels, ", ")))
	}
	if len(c.Attachments) > 0 {
		field("files", strings.Join(c.Attachments, ", "))
	}
	if c.FilePath != "" {
		field("path", c.FilePath)
	}
	if strings.TrimSpace(c.Content) != "" {
		b.WriteString("\n" + cardStyle.Render(c.Content) + "\n")
	}
	for _, cm := range c.Comments {
		fmt.Fprintf(&b, "\n%s %s\n%s\n", headerStyle.Render(cm.Author), dimStyle.Render(cm.ID+" "+cm.Created), cm.Content)
	}
	return b.String()
}

func renderFailures(failures []webhook.Failure) string {
	if len(failures) == 0 {
		return dimStyle.Render("no dead letters") + "\n"
	}
	var b strings.Builder
	for _, f := range failures {
		status := "-"
		if f.StatusCode != 0 {
			status = fmt.Sprintf("%d", f.StatusCode)
		}
		fmt.Fprintf(&b, "%s %s %s %s %s\n",
			dimStyle.Render(f.At.Format("2006-01-02 15:04:05")),
			f.Event, f.URL, status, errorStyle.Render(f.Err))
	}
	return b.String()
}

// renderEvents lists replayed journal events, oldest first.
func renderEvents(events []core.Event) string {
	if len(events) == 0 {
		return dimStyle.Render("no events") + "\n"
	}
	var b strings.Builder
	for _, ev := range events {
		line := dimStyle.Render(ev.Timestamp.Format("2006-01-02 15:04:05")) + " " + headerStyle.Render(ev.Type)
		if ev.BoardID != "" {
			line += " " + ev.BoardID
		}
		if id := eventCardID(ev.Data); id != "" {
			line += " " + idStyle.UnsetWidth().Render("#"+id)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// eventCardID digs the card id out of replayed event data.
func eventCardID(data any) string {
	m, ok := data.(map[string]any)
	if !ok {
		return ""
	}
	if id, ok := m["cardId"].(string); ok {
		return id
	}
	if card, ok := m["card"].(map[string]any); ok {
		if id, ok := card["id"].(string); ok {
			return id
		}
	}
	return ""
}
