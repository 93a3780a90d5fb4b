package board

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultQuietPeriod is the trailing-edge debounce window for editor saves.
const DefaultQuietPeriod = 500 * time.Millisecond

// Editor holds the local draft of one card while it is being edited. Field
// changes land in the draft immediately; a save is scheduled with
// trailing-edge debouncing, so only the latest draft within a burst of
// edits reaches the sink. Flush is synchronous and must be called before
// the editor is discarded so that no edit is silently dropped.
type Editor struct {
	mu    sync.Mutex
	draft Task
	dirty bool
	quiet time.Duration
	timer *time.Timer
	sink  func(Task)
}

// NewEditor opens an editor over a copy of card. Every flushed draft is
// handed to sink. A non-positive quiet period falls back to the default.
func NewEditor(card Task, quiet time.Duration, sink func(Task)) *Editor {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Editor{draft: card.clone(), quiet: quiet, sink: sink}
}

// Draft returns a copy of the current draft.
func (e *Editor) Draft() Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.clone()
}

// Apply mutates the draft and schedules a debounced save.
func (e *Editor) Apply(mutate func(*Task)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mutate(&e.draft)
	e.draft.Priority = DerivePriority(e.draft.StartDate, e.draft.DueDate)
	e.touch()
}

// Replace swaps in a whole new draft, keeping the card id, and schedules a
// debounced save.
func (e *Editor) Replace(card Task) {
	e.Apply(func(d *Task) {
		id := d.ID
		*d = card.clone()
		d.ID = id
	})
}

// SetTitle updates the draft title.
func (e *Editor) SetTitle(title string) {
	e.Apply(func(d *Task) { d.Title = title })
}

// SetDescription updates the draft description.
func (e *Editor) SetDescription(desc string) {
	e.Apply(func(d *Task) { d.Description = desc })
}

// SetDates updates the date range. The priority re-derivation rides the
// same scheduled save; it never adds a write of its own.
func (e *Editor) SetDates(startDate, dueDate string) {
	e.Apply(func(d *Task) {
		d.StartDate = startDate
		d.DueDate = dueDate
	})
}

// AddChecklistItem appends a checklist entry with a fresh id.
func (e *Editor) AddChecklistItem(text string) ChecklistItem {
	item := ChecklistItem{ID: uuid.NewString(), Text: text}
	e.Apply(func(d *Task) { d.Checklist = append(d.Checklist, item) })
	return item
}

// ToggleChecklistItem flips the completed flag of one checklist entry.
func (e *Editor) ToggleChecklistItem(id string) {
	e.Apply(func(d *Task) {
		for i := range d.Checklist {
			if d.Checklist[i].ID == id {
				d.Checklist[i].Completed = !d.Checklist[i].Completed
			}
		}
	})
}

// RemoveChecklistItem deletes a checklist entry. The removal is immediate;
// any exit transition is the renderer's concern, not the data layer's.
func (e *Editor) RemoveChecklistItem(id string) {
	e.Apply(func(d *Task) {
		for i := range d.Checklist {
			if d.Checklist[i].ID == id {
				d.Checklist = append(d.Checklist[:i], d.Checklist[i+1:]...)
				return
			}
		}
	})
}

// AddLabel appends a label, forcing an off-palette color to the first
// palette entry.
func (e *Editor) AddLabel(text, color string) {
	if !ValidLabelColor(color) {
		color = LabelPalette[0]
	}
	e.Apply(func(d *Task) { d.Labels = append(d.Labels, Label{Text: text, Color: color}) })
}

// RemoveLabel deletes the first label with the given text.
func (e *Editor) RemoveLabel(text string) {
	e.Apply(func(d *Task) {
		for i := range d.Labels {
			if d.Labels[i].Text == text {
				d.Labels = append(d.Labels[:i], d.Labels[i+1:]...)
				return
			}
		}
	})
}

// touch marks the draft dirty and resets the debounce timer. Caller holds
// the lock.
func (e *Editor) touch() {
	e.dirty = true
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.quiet, e.flushExpired)
}

func (e *Editor) flushExpired() {
	e.mu.Lock()
	draft, ok := e.takeLocked()
	e.mu.Unlock()
	if ok {
		e.sink(draft)
	}
}

// Flush sends any pending draft to the sink immediately. It is safe to call
// from a teardown path; a clean editor flushes nothing.
func (e *Editor) Flush() {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	draft, ok := e.takeLocked()
	e.mu.Unlock()
	if ok {
		e.sink(draft)
	}
}

// Close flushes and is the required last call on an editor.
func (e *Editor) Close() {
	e.Flush()
}

// takeLocked claims the pending draft, if any. Caller holds the lock; the
// sink is invoked outside it so a sink may call back into the editor.
func (e *Editor) takeLocked() (Task, bool) {
	if !e.dirty {
		return Task{}, false
	}
	e.dirty = false
	return e.draft.clone(), true
}
