package services

import (
	"sync"
	"time"

	"sheetboard/board"
)

// EditorPool coalesces the per-card edit stream arriving over the
// websocket. Each card gets one debounced editor; bursts of edits collapse
// into a single flush carrying the latest draft. Closing an editor, or
// shutting the pool down, flushes synchronously so no edit is dropped.
type EditorPool struct {
	mu      sync.Mutex
	editors map[string]*board.Editor
	quiet   time.Duration
	flush   func(board.Task)
}

// NewEditorPool builds a pool whose editors flush into the given sink
// after the quiet period.
func NewEditorPool(quiet time.Duration, flush func(board.Task)) *EditorPool {
	return &EditorPool{
		editors: make(map[string]*board.Editor),
		quiet:   quiet,
		flush:   flush,
	}
}

// Edit routes one draft to the card's editor, opening one if needed.
func (p *EditorPool) Edit(card board.Task) {
	p.mu.Lock()
	ed, ok := p.editors[card.ID]
	if !ok {
		ed = board.NewEditor(card, p.quiet, p.flush)
		p.editors[card.ID] = ed
	}
	p.mu.Unlock()
	ed.Replace(card)
}

// CloseEditor flushes any pending draft for the card and discards its
// editor.
func (p *EditorPool) CloseEditor(id string) {
	p.mu.Lock()
	ed, ok := p.editors[id]
	if ok {
		delete(p.editors, id)
	}
	p.mu.Unlock()
	if ok {
		ed.Close()
	}
}

// FlushAll closes every open editor, used on shutdown.
func (p *EditorPool) FlushAll() {
	p.mu.Lock()
	editors := make([]*board.Editor, 0, len(p.editors))
	for id, ed := range p.editors {
		editors = append(editors, ed)
		delete(p.editors, id)
	}
	p.mu.Unlock()
	for _, ed := range editors {
		ed.Close()
	}
}
