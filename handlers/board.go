package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sheetboard/board"
	"sheetboard/cache"
	"sheetboard/database"
	"sheetboard/services"
	"sheetboard/sheet"
)

// BoardHandler handles the board endpoints. Mutations apply to the cache
// first (so reads after the response always see them), then go through the
// write strategy to the spreadsheet.
type BoardHandler struct {
	cache     *cache.Cache
	remote    *sheet.Client
	writes    sheet.WriteStrategy
	hub       *services.Hub
	snapshots *database.SnapshotStore
	log       *zap.Logger
}

func NewBoardHandler(c *cache.Cache, remote *sheet.Client, writes sheet.WriteStrategy, hub *services.Hub, snapshots *database.SnapshotStore, log *zap.Logger) *BoardHandler {
	return &BoardHandler{
		cache:     c,
		remote:    remote,
		writes:    writes,
		hub:       hub,
		snapshots: snapshots,
		log:       log,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// writeThrough runs a remote write under the configured strategy and, when
// the strategy confirms success, re-pulls the snapshot so the cache stays
// authoritative. A failed refresh only logs: the cache already carries the
// local mutation.
func (h *BoardHandler) writeThrough(ctx context.Context, name string, op func(context.Context) error) error {
	if err := h.writes.Write(ctx, name, op); err != nil {
		return err
	}
	if h.writes.Confirms() {
		_ = h.cache.Refresh(ctx)
	}
	return nil
}

func (h *BoardHandler) broadcast(eventType string, data any) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(eventType, data)
}

// GetBoard returns the cached task list.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	tasks := h.cache.Tasks()
	if tasks == nil {
		tasks = []board.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// BoardView returns the cards grouped into columns, with the display
// projection (filter, search, sort) applied to each column.
func (h *BoardHandler) BoardView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := board.ViewOptions{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}

	b := board.FromTasks(h.cache.Tasks())
	for i := range b.Columns {
		b.Columns[i].Cards = board.Project(b.Columns[i].Cards, opts)
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": b.Columns})
}

// AddTask creates a card. A card arriving without an id gets a fresh one;
// an unknown status lands it in the first column.
func (h *BoardHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Card board.Task `json:"card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	card := req.Card
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if !board.ValidStatus(card.Status) {
		card.Status = board.Statuses[0]
	}
	card.Priority = board.DerivePriority(card.StartDate, card.DueDate)

	h.cache.Add(card)
	if err := h.writeThrough(r.Context(), "addTask", func(ctx context.Context) error {
		return h.remote.Add(ctx, card)
	}); err != nil {
		h.log.Error("add task remote write failed", zap.String("id", card.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save task: "+err.Error())
		return
	}

	h.broadcast(services.EventTaskAdded, card)
	writeSuccess(w)
}

// UpdateTask accepts either the minimal {id, status} move payload or a
// full {card} replacement.
func (h *BoardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string      `json:"id"`
		Status string      `json:"status"`
		Card   *board.Task `json:"card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Card != nil {
		h.editTask(w, r, *req.Card)
		return
	}

	if !board.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if err := h.cache.UpdateStatus(req.ID, req.Status); err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.writeThrough(r.Context(), "updateTask", func(ctx context.Context) error {
		return h.remote.UpdateStatus(ctx, req.ID, req.Status)
	}); err != nil {
		h.log.Error("update task remote write failed", zap.String("id", req.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update task: "+err.Error())
		return
	}

	h.broadcast(services.EventTaskUpdated, map[string]string{"id": req.ID, "status": req.Status})
	writeSuccess(w)
}

// EditTask replaces a card wholesale.
func (h *BoardHandler) EditTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Card board.Task `json:"card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	h.editTask(w, r, req.Card)
}

func (h *BoardHandler) editTask(w http.ResponseWriter, r *http.Request, card board.Task) {
	card.Priority = board.DerivePriority(card.StartDate, card.DueDate)
	if err := h.cache.Edit(card); err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.writeThrough(r.Context(), "editTask", func(ctx context.Context) error {
		return h.remote.Update(ctx, card)
	}); err != nil {
		h.log.Error("edit task remote write failed", zap.String("id", card.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to edit task: "+err.Error())
		return
	}

	h.broadcast(services.EventTaskUpdated, card)
	writeSuccess(w)
}

// MoveTask reconciles a drag gesture. Same-column reorders stay local;
// only a cross-column move reaches the spreadsheet.
func (h *BoardHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	var drag board.Drag
	if err := json.NewDecoder(r.Body).Decode(&drag); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	b := board.FromTasks(h.cache.Tasks())
	result, err := b.ApplyDrag(drag)
	if err != nil {
		if errors.Is(err, board.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !result.Moved {
		// Dropped outside any column.
		writeSuccess(w)
		return
	}

	h.cache.Replace(b.Tasks())

	if result.RemoteWrite {
		if err := h.writeThrough(r.Context(), "moveTask", func(ctx context.Context) error {
			return h.remote.UpdateStatus(ctx, result.Card.ID, result.Card.Status)
		}); err != nil {
			h.log.Error("move task remote write failed", zap.String("id", result.Card.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to move task: "+err.Error())
			return
		}
	}

	h.broadcast(services.EventTaskMoved, result.Card)
	writeSuccess(w)
}

// DeleteTask removes a card by id.
func (h *BoardHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := h.cache.Delete(req.ID); err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.writeThrough(r.Context(), "deleteTask", func(ctx context.Context) error {
		return h.remote.Delete(ctx, req.ID)
	}); err != nil {
		h.log.Error("delete task remote write failed", zap.String("id", req.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete task: "+err.Error())
		return
	}

	h.broadcast(services.EventTaskDeleted, map[string]string{"id": req.ID})
	writeSuccess(w)
}

// SheetProxy forwards a raw action request to the spreadsheet webapp and
// passes the response through untouched.
func (h *BoardHandler) SheetProxy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string          `json:"action"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	data, err := h.remote.Do(r.Context(), req.Action, req.Payload)
	if err != nil {
		h.log.Error("sheet proxy failed", zap.String("action", req.Action), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Sheet proxy failed",
			"details": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetTheme returns the stored theme flag.
func (h *BoardHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.snapshots.LoadTheme()
	if err != nil {
		h.log.Error("load theme failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load theme")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": theme})
}

// SetTheme stores the theme flag.
func (h *BoardHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Theme == "" {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if err := h.snapshots.SaveTheme(req.Theme); err != nil {
		h.log.Error("save theme failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save theme")
		return
	}
	writeSuccess(w)
}

// HandleWebSocket upgrades the HTTP connection to a WebSocket connection.
func (h *BoardHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &services.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
