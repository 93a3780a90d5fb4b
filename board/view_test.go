package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectStatusFilter(t *testing.T) {
	cards := []Task{
		card("1", "a", "To Do"),
		card("2", "b", "Done"),
	}
	got := Project(cards, ViewOptions{Status: "Done"})
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].Title)

	// Passthrough when no filter is set.
	require.Len(t, Project(cards, ViewOptions{}), 2)
}

func TestProjectSearchIsCaseInsensitiveSubstring(t *testing.T) {
	cards := []Task{
		card("1", "Fix Login Bug", "To Do"),
		card("2", "write docs", "To Do"),
		card("3", "login page polish", "To Do"),
	}
	got := Project(cards, ViewOptions{Search: "LOGIN"})
	require.Equal(t, []string{"Fix Login Bug", "login page polish"}, titles(got))
}

func TestProjectSortTitle(t *testing.T) {
	cards := []Task{
		card("1", "banana", "To Do"),
		card("2", "apple", "To Do"),
		card("3", "cherry", "To Do"),
	}
	require.Equal(t, []string{"apple", "banana", "cherry"},
		titles(Project(cards, ViewOptions{Sort: SortTitleAsc})))
	require.Equal(t, []string{"cherry", "banana", "apple"},
		titles(Project(cards, ViewOptions{Sort: SortTitleDesc})))
}

func TestProjectSortDateAscPutsMissingDatesLast(t *testing.T) {
	cards := []Task{
		{ID: "1", Title: "none", Status: "To Do"},
		{ID: "2", Title: "later", Status: "To Do", DueDate: "2024-01-01"},
		{ID: "3", Title: "earlier", Status: "To Do", DueDate: "2023-01-01"},
	}
	got := Project(cards, ViewOptions{Sort: SortDateAsc})
	require.Equal(t, []string{"2023-01-01", "2024-01-01", ""}, []string{got[0].DueDate, got[1].DueDate, got[2].DueDate})
}

func TestProjectSortDateDescStillPutsMissingDatesLast(t *testing.T) {
	cards := []Task{
		{ID: "1", Title: "none", Status: "To Do"},
		{ID: "2", Title: "later", Status: "To Do", DueDate: "2024-01-01"},
		{ID: "3", Title: "earlier", Status: "To Do", DueDate: "2023-01-01"},
	}
	got := Project(cards, ViewOptions{Sort: SortDateDesc})
	require.Equal(t, []string{"2024-01-01", "2023-01-01", ""}, []string{got[0].DueDate, got[1].DueDate, got[2].DueDate})
}

func TestProjectNoneIsStable(t *testing.T) {
	cards := []Task{
		card("1", "z", "To Do"),
		card("2", "a", "To Do"),
		card("3", "m", "To Do"),
	}
	require.Equal(t, []string{"z", "a", "m"}, titles(Project(cards, ViewOptions{Sort: SortNone})))
}

func TestProjectNeverMutatesInput(t *testing.T) {
	cards := []Task{
		card("1", "banana", "To Do"),
		card("2", "apple", "To Do"),
	}
	_ = Project(cards, ViewOptions{Sort: SortTitleAsc})
	require.Equal(t, []string{"banana", "apple"}, titles(cards))
}
