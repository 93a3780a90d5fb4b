package board

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// flushRecorder collects every draft the editor sends.
type flushRecorder struct {
	mu     sync.Mutex
	drafts []Task
}

func (r *flushRecorder) sink(t Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, t)
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

func (r *flushRecorder) last() Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drafts[len(r.drafts)-1]
}

const testQuiet = 30 * time.Millisecond

func TestEditorCoalescesBurstIntoLatestDraft(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), testQuiet, rec.sink)

	ed.SetTitle("first")
	ed.SetTitle("second")
	ed.SetTitle("third")

	time.Sleep(4 * testQuiet)

	require.Equal(t, 1, rec.count(), "a burst of edits must produce exactly one write")
	require.Equal(t, "third", rec.last().Title)
}

func TestEditorFlushOnCloseNeverDropsAnEdit(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), time.Hour, rec.sink)

	ed.SetDescription("typed right before close")
	ed.Close()

	require.Equal(t, 1, rec.count())
	require.Equal(t, "typed right before close", rec.last().Description)
}

func TestEditorCleanCloseFlushesNothing(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), testQuiet, rec.sink)
	ed.Close()
	require.Zero(t, rec.count())
}

func TestEditorFlushIsIdempotent(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), time.Hour, rec.sink)

	ed.SetTitle("once")
	ed.Flush()
	ed.Flush()
	ed.Close()

	require.Equal(t, 1, rec.count())
}

func TestEditorDateChangeDerivesPriorityWithoutExtraWrite(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), time.Hour, rec.sink)

	ed.SetDates("2024-01-01", "2024-01-10")
	require.Equal(t, PriorityMedium, ed.Draft().Priority)
	ed.Close()

	require.Equal(t, 1, rec.count(), "priority derivation must ride the normal debounce")
	require.Equal(t, PriorityMedium, rec.last().Priority)
}

func TestEditorChecklistEditsRideTheNextFlush(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), time.Hour, rec.sink)

	item := ed.AddChecklistItem("write tests")
	require.NotEmpty(t, item.ID)
	ed.AddChecklistItem("ship it")
	ed.ToggleChecklistItem(item.ID)
	ed.Close()

	require.Equal(t, 1, rec.count())
	got := rec.last()
	require.Len(t, got.Checklist, 2)
	require.True(t, got.Checklist[0].Completed)
	require.False(t, got.Checklist[1].Completed)
}

func TestEditorRemovesChecklistItemImmediately(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), time.Hour, rec.sink)

	item := ed.AddChecklistItem("temp")
	ed.RemoveChecklistItem(item.ID)

	require.Empty(t, ed.Draft().Checklist)
}

func TestEditorLabels(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), time.Hour, rec.sink)

	ed.AddLabel("bug", "red")
	ed.AddLabel("weird", "magenta") // off-palette color is coerced
	require.Equal(t, []Label{
		{Text: "bug", Color: "red"},
		{Text: "weird", Color: LabelPalette[0]},
	}, ed.Draft().Labels)

	ed.RemoveLabel("bug")
	require.Equal(t, []Label{{Text: "weird", Color: LabelPalette[0]}}, ed.Draft().Labels)
}

func TestEditorTwoBurstsProduceTwoWrites(t *testing.T) {
	rec := &flushRecorder{}
	ed := NewEditor(card("1", "start", "To Do"), testQuiet, rec.sink)

	ed.SetTitle("burst one")
	time.Sleep(4 * testQuiet)
	ed.SetTitle("burst two")
	time.Sleep(4 * testQuiet)

	require.Equal(t, 2, rec.count())
	require.Equal(t, "burst two", rec.last().Title)
}
