package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sheetboard/board"
	"sheetboard/cache"
	"sheetboard/sheet"
)

// fakeWebapp is a tiny in-memory rendition of the spreadsheet webapp: it
// speaks the action protocol and keeps its own task list so refreshes
// after writes return the written state.
type fakeWebapp struct {
	mu    sync.Mutex
	tasks []board.Task
	fail  bool
}

func (f *fakeWebapp) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Action  string          `json:"action"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail {
			http.Error(w, "sheet quota exceeded", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch req.Action {
		case sheet.ActionGet:
			json.NewEncoder(w).Encode(map[string]any{"tasks": f.tasks})
		case sheet.ActionAdd:
			var card board.Task
			json.Unmarshal(req.Payload, &card)
			f.tasks = append(f.tasks, card)
			w.Write([]byte(`{"ok":true}`))
		case sheet.ActionUpdate:
			var card board.Task
			json.Unmarshal(req.Payload, &card)
			for i := range f.tasks {
				if f.tasks[i].ID == card.ID {
					if card.Title != "" {
						f.tasks[i] = card
					} else {
						f.tasks[i].Status = card.Status
					}
				}
			}
			w.Write([]byte(`{"ok":true}`))
		case sheet.ActionDelete:
			var req2 struct {
				ID string `json:"id"`
			}
			json.Unmarshal(req.Payload, &req2)
			for i := range f.tasks {
				if f.tasks[i].ID == req2.ID {
					f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
					break
				}
			}
			w.Write([]byte(`{"ok":true}`))
		default:
			w.Write([]byte(`{"echo":"` + req.Action + `"}`))
		}
	}
}

type fixture struct {
	webapp *fakeWebapp
	cache  *cache.Cache
	router *mux.Router
}

func newFixture(t *testing.T, seed []board.Task) *fixture {
	webapp := &fakeWebapp{tasks: board.CloneTasks(seed)}
	srv := httptest.NewServer(webapp.handler())
	t.Cleanup(srv.Close)

	log := zap.NewNop()
	remote := sheet.NewClient(srv.URL, log)
	boardCache := cache.New(remote, nil, log)
	boardCache.Seed(seed)

	h := NewBoardHandler(boardCache, remote, sheet.Confirmed{}, nil, nil, log)

	r := mux.NewRouter()
	r.HandleFunc("/api/board", h.GetBoard).Methods("GET")
	r.HandleFunc("/api/board/view", h.BoardView).Methods("GET")
	r.HandleFunc("/api/addTask", h.AddTask).Methods("POST")
	r.HandleFunc("/api/updateTask", h.UpdateTask).Methods("POST")
	r.HandleFunc("/api/editTask", h.EditTask).Methods("POST")
	r.HandleFunc("/api/moveTask", h.MoveTask).Methods("POST")
	r.HandleFunc("/api/deleteTask", h.DeleteTask).Methods("POST")
	r.HandleFunc("/api/sheet", h.SheetProxy).Methods("POST")

	return &fixture{webapp: webapp, cache: boardCache, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func seedTasks() []board.Task {
	return []board.Task{
		{ID: "1", Title: "write spec", Status: "To Do"},
		{ID: "2", Title: "review spec", Status: "In Progress"},
		{ID: "3", Title: "ship", Status: "Done", DueDate: "2024-02-01"},
	}
}

func TestGetBoard(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodGet, "/api/board", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Tasks []board.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Tasks, 3)
}

func TestGetBoardEmptyIsNotNull(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/api/board", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tasks":[]`)
}

func TestAddTask(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/addTask", map[string]any{
		"card": board.Task{Title: "new card", Status: "Review", StartDate: "2024-01-01", DueDate: "2024-01-02"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":true`)

	tasks := f.cache.Tasks()
	require.Len(t, tasks, 4)
	added := tasks[3]
	require.NotEmpty(t, added.ID)
	require.Equal(t, board.PriorityUrgent, added.Priority)

	// The write reached the sheet too.
	f.webapp.mu.Lock()
	defer f.webapp.mu.Unlock()
	require.Len(t, f.webapp.tasks, 4)
}

func TestAddTaskUpstreamFailure(t *testing.T) {
	f := newFixture(t, seedTasks())
	f.webapp.mu.Lock()
	f.webapp.fail = true
	f.webapp.mu.Unlock()

	rec := f.do(t, http.MethodPost, "/api/addTask", map[string]any{
		"card": board.Task{Title: "doomed", Status: "To Do"},
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "quota exceeded")
}

func TestUpdateTaskStatus(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/updateTask", map[string]string{"id": "1", "status": "Done"})

	require.Equal(t, http.StatusOK, rec.Code)
	for _, task := range f.cache.Tasks() {
		if task.ID == "1" {
			require.Equal(t, "Done", task.Status)
		}
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/updateTask", map[string]string{"id": "ghost", "status": "Done"})

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Task not found")
}

func TestUpdateTaskRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/updateTask", map[string]string{"id": "1", "status": "Limbo"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditTask(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/editTask", map[string]any{
		"card": board.Task{ID: "2", Title: "review spec carefully", Status: "In Progress", StartDate: "2024-01-01", DueDate: "2024-01-20"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	for _, task := range f.cache.Tasks() {
		if task.ID == "2" {
			require.Equal(t, "review spec carefully", task.Title)
			require.Equal(t, board.PriorityLow, task.Priority)
		}
	}
}

func TestEditTaskNotFound(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/editTask", map[string]any{
		"card": board.Task{ID: "ghost", Title: "x", Status: "Done"},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoveTaskCrossColumn(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/moveTask", board.Drag{
		CardID:      "1",
		Source:      board.DragLocation{Column: "To Do", Index: 0},
		Destination: &board.DragLocation{Column: "Done", Index: 0},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	b := board.FromTasks(f.cache.Tasks())
	require.Len(t, b.Tasks(), 3)
	for _, task := range f.cache.Tasks() {
		if task.ID == "1" {
			require.Equal(t, "Done", task.Status)
		}
	}
}

func TestMoveTaskSameColumnSkipsRemoteWrite(t *testing.T) {
	seed := []board.Task{
		{ID: "1", Title: "a", Status: "To Do"},
		{ID: "2", Title: "b", Status: "To Do"},
	}
	f := newFixture(t, seed)

	// A failing sheet does not matter for a pure reorder.
	f.webapp.mu.Lock()
	f.webapp.fail = true
	f.webapp.mu.Unlock()

	rec := f.do(t, http.MethodPost, "/api/moveTask", board.Drag{
		CardID:      "1",
		Source:      board.DragLocation{Column: "To Do", Index: 0},
		Destination: &board.DragLocation{Column: "To Do", Index: 1},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	tasks := f.cache.Tasks()
	require.Equal(t, "2", tasks[0].ID)
	require.Equal(t, "1", tasks[1].ID)
}

func TestMoveTaskWithoutDestination(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/moveTask", map[string]any{
		"cardId": "1",
		"source": map[string]any{"column": "To Do", "index": 0},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.cache.Tasks(), 3)
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/deleteTask", map[string]string{"id": "3"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.cache.Tasks(), 2)
}

func TestDeleteTaskNotFoundLeavesBoardUnchanged(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/deleteTask", map[string]string{"id": "ghost"})

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, f.cache.Tasks(), 3)
}

func TestSheetProxyPassthrough(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodPost, "/api/sheet", map[string]any{
		"action":  "archive",
		"payload": map[string]string{"week": "2024-W05"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"echo":"archive"`)
}

func TestSheetProxyUpstreamFailure(t *testing.T) {
	f := newFixture(t, seedTasks())
	f.webapp.mu.Lock()
	f.webapp.fail = true
	f.webapp.mu.Unlock()

	rec := f.do(t, http.MethodPost, "/api/sheet", map[string]any{"action": "get"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Sheet proxy failed", got["error"])
	require.NotEmpty(t, got["details"])
}

func TestBoardView(t *testing.T) {
	seed := []board.Task{
		{ID: "1", Title: "banana", Status: "To Do"},
		{ID: "2", Title: "apple", Status: "To Do"},
		{ID: "3", Title: "done thing", Status: "Done"},
	}
	f := newFixture(t, seed)

	rec := f.do(t, http.MethodGet, "/api/board/view?sort=titleAsc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Columns []board.Column `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Columns, len(board.Statuses))
	require.Equal(t, "apple", got.Columns[0].Cards[0].Title)
	require.Equal(t, "banana", got.Columns[0].Cards[1].Title)
}

func TestBoardViewSearch(t *testing.T) {
	f := newFixture(t, seedTasks())
	rec := f.do(t, http.MethodGet, "/api/board/view?search=spec", nil)

	var got struct {
		Columns []board.Column `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	total := 0
	for _, col := range got.Columns {
		total += len(col.Cards)
	}
	require.Equal(t, 2, total)
}
