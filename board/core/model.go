// ABOUTME: Board-level configuration types: boards, columns, labels, webhooks and display settings.
// ABOUTME: All of them live in one JSON document that is rewritten as a whole on every change.
package core

// WildcardEvent subscribes a webhook to every event.
const WildcardEvent = "*"

// Column is a status lane. Its ID is the status value stored on cards.
type Column struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// BoardConfig describes one board.
type BoardConfig struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Columns         []Column `json:"columns"`
	NextCardID      int      `json:"nextCardId"`
	DefaultStatus   string   `json:"defaultStatus"`
	DefaultPriority Priority `json:"defaultPriority"`
	FinalStatus     string   `json:"finalStatus,omitempty"`
}

// ColumnIndex returns the position of the column with the given id, or -1.
func (b *BoardConfig) ColumnIndex(id string) int {
	for i, c := range b.Columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// HasColumn reports whether id names one of the board's columns.
func (b *BoardConfig) HasColumn(id string) bool {
	return b.ColumnIndex(id) >= 0
}

// Final returns the status that marks a card as completed. An explicit
// FinalStatus wins when it still names a column; otherwise the last column is
// final. Returns "" for a board without columns.
func (b *BoardConfig) Final() string {
	if b.FinalStatus != "" && b.HasColumn(b.FinalStatus) {
		return b.FinalStatus
	}
	if len(b.Columns) == 0 {
		return ""
	}
	return b.Columns[len(b.Columns)-1].ID
}

// LabelDefinition styles a label string. Labels on cards without a
// definition are rendered with a default style.
type LabelDefinition struct {
	Color string `json:"color"`
	Group string `json:"group,omitempty"`
}

// Webhook is an outbound delivery registration.
type Webhook struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
	Active bool     `json:"active"`
}

// Subscribes reports whether the webhook wants the named event.
func (w *Webhook) Subscribes(event string) bool {
	for _, e := range w.Events {
		if e == WildcardEvent || e == event {
			return true
		}
	}
	return false
}

// DisplaySettings are presentation preferences consumed by front-ends.
type DisplaySettings struct {
	ShowPriorityBadges bool   `json:"showPriorityBadges"`
	ShowAssignee       bool   `json:"showAssignee"`
	ShowDueDate        bool   `json:"showDueDate"`
	ShowLabels         bool   `json:"showLabels"`
	CompactMode        bool   `json:"compactMode"`
	ShowFileName       bool   `json:"showFileName"`
	DefaultSort        string `json:"defaultSort,omitempty"`
}

// Config is the whole board configuration document.
type Config struct {
	Version           int                        `json:"version"`
	Boards            map[string]*BoardConfig    `json:"boards"`
	DefaultBoard      string                     `json:"defaultBoard"`
	Labels            map[string]LabelDefinition `json:"labels"`
	Webhooks          []Webhook                  `json:"webhooks"`
	DisplaySettings   DisplaySettings            `json:"displaySettings"`
	FeaturesDirectory string                     `json:"featuresDirectory"`
}

// DefaultColumns is the column set of a freshly created board.
func DefaultColumns() []Column {
	return []Column{
		{ID: "backlog", Name: "Backlog", Color: "#6b7280"},
		{ID: "todo", Name: "To Do", Color: "#3b82f6"},
		{ID: "in-progress", Name: "In Progress", Color: "#f59e0b"},
		{ID: "review", Name: "Review", Color: "#8b5cf6"},
		{ID: "done", Name: "Done", Color: "#22c55e"},
	}
}

// DefaultConfig is used when no configuration document exists yet.
func DefaultConfig() *Config {
	return &Config{
		Version: 2,
		Boards: map[string]*BoardConfig{
			"default": {
				Name:            "Default",
				Columns:         DefaultColumns(),
				NextCardID:      1,
				DefaultStatus:   "backlog",
				DefaultPriority: PriorityMedium,
				FinalStatus:     "done",
			},
		},
		DefaultBoard: "default",
		Labels:       map[string]LabelDefinition{},
		Webhooks:     []Webhook{},
		DisplaySettings: DisplaySettings{
			ShowPriorityBadges: true,
			ShowAssignee:       true,
			ShowDueDate:        true,
			ShowLabels:         true,
		},
		FeaturesDirectory: ".kanban",
	}
}
