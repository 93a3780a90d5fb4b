package board

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a mutation targets a card id that is not
// present in the collection.
var ErrNotFound = errors.New("card not found")

// DateLayout is the wire format for startDate and dueDate. An empty string
// means the date is unset.
const DateLayout = "2006-01-02"

// Statuses is the fixed set of column titles, in display order. The set does
// not change at runtime; the columns of a Board are derived from it.
var Statuses = []string{"To Do", "In Progress", "Review", "Done"}

// Priority levels derived from the card's date range.
const (
	PriorityUnknown = "Unknown"
	PriorityUrgent  = "Urgent"
	PriorityHigh    = "High"
	PriorityMedium  = "Medium"
	PriorityLow     = "Low"
)

// LabelPalette is the fixed set of colors a label may carry.
var LabelPalette = []string{"green", "yellow", "orange", "red", "purple", "blue"}

// Label is a colored tag on a card.
type Label struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// ChecklistItem is one entry of a card's checklist.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task is a single card. Status always equals the title of the column that
// contains it. Priority is derived from the dates, never stored
// authoritatively. The checklist is serialized as "tasks" to match the
// spreadsheet rows.
type Task struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	StartDate   string          `json:"startDate"`
	DueDate     string          `json:"dueDate"`
	Priority    string          `json:"priority"`
	Labels      []Label         `json:"labels"`
	Checklist   []ChecklistItem `json:"tasks"`
}

// ValidStatus reports whether s is one of the fixed column titles.
func ValidStatus(s string) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// ValidLabelColor reports whether c belongs to the label palette.
func ValidLabelColor(c string) bool {
	for _, p := range LabelPalette {
		if p == c {
			return true
		}
	}
	return false
}

// DerivePriority computes the priority from the card's date range. The
// difference is counted inclusively: a card starting and due on the same day
// has a difference of one. A card with no due date, or with an unparsable
// date, has Unknown priority.
func DerivePriority(startDate, dueDate string) string {
	if dueDate == "" {
		return PriorityUnknown
	}
	due, err := time.Parse(DateLayout, dueDate)
	if err != nil {
		return PriorityUnknown
	}
	if startDate == "" {
		return PriorityUnknown
	}
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return PriorityUnknown
	}
	diff := int(due.Sub(start).Hours()/24) + 1
	switch {
	case diff <= 3:
		return PriorityUrgent
	case diff <= 7:
		return PriorityHigh
	case diff <= 14:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// clone returns a deep copy of the task so callers can hand cards out
// without aliasing the board's slices.
func (t Task) clone() Task {
	c := t
	if t.Labels != nil {
		c.Labels = append([]Label(nil), t.Labels...)
	}
	if t.Checklist != nil {
		c.Checklist = append([]ChecklistItem(nil), t.Checklist...)
	}
	return c
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.clone()
	}
	return out
}
