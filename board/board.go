package board

import (
	"github.com/google/uuid"
)

// Column is one status bucket of the board.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cards []Task `json:"cards"`
}

// Board is the ordered set of columns. Every card lives in exactly one
// column and its Status field equals that column's title; the mutation
// methods maintain this invariant since nothing enforces it structurally.
type Board struct {
	Columns []Column
}

// New returns an empty board with one column per fixed status.
func New() *Board {
	b := &Board{Columns: make([]Column, len(Statuses))}
	for i, s := range Statuses {
		b.Columns[i] = Column{ID: s, Title: s}
	}
	return b
}

// FromTasks rebuilds a board from a flat task list, grouping cards by status
// in list order. Cards carrying a status outside the fixed set are placed in
// the first column and their status corrected to match it.
func FromTasks(tasks []Task) *Board {
	b := New()
	for _, t := range tasks {
		c := t.clone()
		col := b.column(c.Status)
		if col == nil {
			col = &b.Columns[0]
			c.Status = col.Title
		}
		col.Cards = append(col.Cards, c)
	}
	return b
}

// Tasks flattens the board back into a single list, column by column.
func (b *Board) Tasks() []Task {
	var out []Task
	for _, col := range b.Columns {
		for _, c := range col.Cards {
			out = append(out, c.clone())
		}
	}
	return out
}

func (b *Board) column(title string) *Column {
	for i := range b.Columns {
		if b.Columns[i].Title == title {
			return &b.Columns[i]
		}
	}
	return nil
}

// find locates a card by id, returning its column and index.
func (b *Board) find(id string) (*Column, int) {
	for i := range b.Columns {
		for j := range b.Columns[i].Cards {
			if b.Columns[i].Cards[j].ID == id {
				return &b.Columns[i], j
			}
		}
	}
	return nil, -1
}

// Find returns a copy of the card with the given id.
func (b *Board) Find(id string) (Task, bool) {
	col, i := b.find(id)
	if col == nil {
		return Task{}, false
	}
	return col.Cards[i].clone(), true
}

// AddCard appends a card to the column matching its status. A card with no
// id gets a freshly generated one; an unknown status lands it in the first
// column. The stored card, with id and derived priority filled in, is
// returned.
func (b *Board) AddCard(t Task) Task {
	c := t.clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Priority = DerivePriority(c.StartDate, c.DueDate)
	col := b.column(c.Status)
	if col == nil {
		col = &b.Columns[0]
		c.Status = col.Title
	}
	col.Cards = append(col.Cards, c.clone())
	return c
}

// EditCard replaces the card with the same id. A status change moves the
// card to the end of its new column; otherwise it keeps its position.
// Priority is re-derived from the dates.
func (b *Board) EditCard(t Task) error {
	col, i := b.find(t.ID)
	if col == nil {
		return ErrNotFound
	}
	c := t.clone()
	c.Priority = DerivePriority(c.StartDate, c.DueDate)
	if c.Status == col.Title {
		col.Cards[i] = c
		return nil
	}
	dest := b.column(c.Status)
	if dest == nil {
		// Unknown destination status: keep the card where it is.
		c.Status = col.Title
		col.Cards[i] = c
		return nil
	}
	col.Cards = append(col.Cards[:i], col.Cards[i+1:]...)
	dest.Cards = append(dest.Cards, c)
	return nil
}

// UpdateStatus moves the card with the given id to the end of the column
// named by status, keeping card.Status consistent with its column.
func (b *Board) UpdateStatus(id, status string) error {
	col, i := b.find(id)
	if col == nil {
		return ErrNotFound
	}
	dest := b.column(status)
	if dest == nil {
		return ErrNotFound
	}
	if dest == col {
		return nil
	}
	c := col.Cards[i]
	col.Cards = append(col.Cards[:i], col.Cards[i+1:]...)
	c.Status = dest.Title
	dest.Cards = append(dest.Cards, c)
	return nil
}

// DeleteCard removes the card with the given id. When the id is absent the
// board is left unchanged and ErrNotFound is returned.
func (b *Board) DeleteCard(id string) error {
	col, i := b.find(id)
	if col == nil {
		return ErrNotFound
	}
	col.Cards = append(col.Cards[:i], col.Cards[i+1:]...)
	return nil
}
