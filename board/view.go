package board

import (
	"sort"
	"strings"
)

// Sort orders for the board view.
const (
	SortNone      = "none"
	SortTitleAsc  = "titleAsc"
	SortTitleDesc = "titleDesc"
	SortDateAsc   = "dateAsc"
	SortDateDesc  = "dateDesc"
)

// ViewOptions selects and orders cards for display. Zero values mean
// passthrough: no status filter, no search, no reordering.
type ViewOptions struct {
	Status string
	Search string
	Sort   string
}

// Project applies the display pipeline to a card sequence: status filter,
// then case-insensitive substring match on the title, then sort. It never
// mutates its input; the result is a fresh slice. Cards with no due date
// always sort after cards with one, regardless of direction.
func Project(cards []Task, opts ViewOptions) []Task {
	out := make([]Task, 0, len(cards))
	needle := strings.ToLower(opts.Search)
	for _, c := range cards {
		if opts.Status != "" && c.Status != opts.Status {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(c.Title), needle) {
			continue
		}
		out = append(out, c.clone())
	}

	switch opts.Sort {
	case SortTitleAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case SortTitleDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title > out[j].Title })
	case SortDateAsc:
		sort.SliceStable(out, func(i, j int) bool { return dateLess(out[i].DueDate, out[j].DueDate, false) })
	case SortDateDesc:
		sort.SliceStable(out, func(i, j int) bool { return dateLess(out[i].DueDate, out[j].DueDate, true) })
	}
	return out
}

// dateLess orders date strings, keeping empty dates last either way.
func dateLess(a, b string, desc bool) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	if desc {
		return a > b
	}
	return a < b
}
