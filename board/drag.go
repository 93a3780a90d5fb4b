package board

// DragLocation names one end of a drag gesture: a column title and a card
// index within that column.
type DragLocation struct {
	Column string `json:"column"`
	Index  int    `json:"index"`
}

// Drag describes a completed drag gesture. A nil Destination means the card
// was dropped outside any column and the gesture is a no-op.
type Drag struct {
	CardID      string        `json:"cardId"`
	Source      DragLocation  `json:"source"`
	Destination *DragLocation `json:"destination"`
}

// DragResult reports what a drag did to the board. RemoteWrite is set only
// for cross-column moves: intra-column order is display-only and never
// persisted remotely, but a status change must be written through.
type DragResult struct {
	Moved       bool
	RemoteWrite bool
	Card        Task
}

// ApplyDrag reconciles a drag gesture into board mutations. Within one
// column the card is removed at the source index and reinserted at the
// destination index. Across columns the card additionally takes the
// destination column's title as its status. Out-of-range destination
// indices are clamped; a source that does not hold the dragged card yields
// ErrNotFound.
func (b *Board) ApplyDrag(d Drag) (DragResult, error) {
	if d.Destination == nil {
		return DragResult{}, nil
	}
	src := b.column(d.Source.Column)
	if src == nil || d.Source.Index < 0 || d.Source.Index >= len(src.Cards) {
		return DragResult{}, ErrNotFound
	}
	if src.Cards[d.Source.Index].ID != d.CardID {
		return DragResult{}, ErrNotFound
	}
	dest := b.column(d.Destination.Column)
	if dest == nil {
		return DragResult{}, ErrNotFound
	}

	card := src.Cards[d.Source.Index]
	src.Cards = append(src.Cards[:d.Source.Index], src.Cards[d.Source.Index+1:]...)

	cross := dest != src
	if cross {
		card.Status = dest.Title
	}

	idx := d.Destination.Index
	if idx < 0 {
		idx = 0
	}
	if idx > len(dest.Cards) {
		idx = len(dest.Cards)
	}
	dest.Cards = append(dest.Cards, Task{})
	copy(dest.Cards[idx+1:], dest.Cards[idx:])
	dest.Cards[idx] = card

	return DragResult{Moved: true, RemoteWrite: cross, Card: card.clone()}, nil
}
