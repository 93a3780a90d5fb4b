package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"sheetboard/board"
	"sheetboard/cache"
	"sheetboard/database"
	"sheetboard/handlers"
	"sheetboard/services"
	"sheetboard/sheet"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}

	// Local durable cache: last-known board snapshot plus the theme flag.
	db, err := database.InitDB(cfg.SnapshotPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	snapshots := database.NewSnapshotStore(db)

	remote := sheet.NewClient(cfg.SheetWebappURL, log)
	writes := &sheet.Optimistic{Log: log}

	boardCache := cache.New(remote, snapshots, log)

	// Initial fill: the spreadsheet when reachable, otherwise the last
	// durable snapshot.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := boardCache.Refresh(ctx); err != nil {
		tasks, loadErr := snapshots.LoadTasks()
		if loadErr != nil {
			log.Warn("snapshot fallback failed", zap.Error(loadErr))
		} else {
			log.Info("serving last durable snapshot", zap.Int("tasks", len(tasks)))
			boardCache.Seed(tasks)
		}
	}
	cancel()

	authService := services.NewAuthService(cfg.BoardPassword, cfg.JWTSecret)

	hub := services.NewHub(log)

	// Edits streaming in over the websocket are debounced per card, then
	// written through like any other mutation.
	editors := services.NewEditorPool(board.DefaultQuietPeriod, func(card board.Task) {
		card.Priority = board.DerivePriority(card.StartDate, card.DueDate)
		if err := boardCache.Edit(card); err != nil {
			log.Warn("editor flush for unknown card", zap.String("id", card.ID))
			return
		}
		_ = writes.Write(context.Background(), "editTask", func(ctx context.Context) error {
			return remote.Update(ctx, card)
		})
		hub.Broadcast(services.EventTaskUpdated, card)
	})
	defer editors.FlushAll()
	hub.SetEditSink(editors)
	go hub.Run()

	// Connected boards reload whenever the periodic refresh lands new data.
	boardCache.SetOnRefresh(func(tasks []board.Task) {
		hub.Broadcast(services.EventBoardRefresh, map[string]any{"tasks": tasks})
	})
	boardCache.Start(cfg.RefreshInterval)
	defer boardCache.Stop()

	boardHandler := handlers.NewBoardHandler(boardCache, remote, writes, hub, snapshots, log)
	authHandler := handlers.NewAuthHandler(authService, log)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	r := mux.NewRouter()

	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/api/board", boardHandler.GetBoard).Methods("GET")
	r.HandleFunc("/api/board/view", boardHandler.BoardView).Methods("GET")
	r.HandleFunc("/api/theme", boardHandler.GetTheme).Methods("GET")
	r.HandleFunc("/api/ws", boardHandler.HandleWebSocket)

	// Mutations sit behind the optional board password.
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware.Auth)
	protected.HandleFunc("/addTask", boardHandler.AddTask).Methods("POST")
	protected.HandleFunc("/updateTask", boardHandler.UpdateTask).Methods("POST")
	protected.HandleFunc("/editTask", boardHandler.EditTask).Methods("POST")
	protected.HandleFunc("/moveTask", boardHandler.MoveTask).Methods("POST")
	protected.HandleFunc("/deleteTask", boardHandler.DeleteTask).Methods("POST")
	protected.HandleFunc("/sheet", boardHandler.SheetProxy).Methods("POST")
	protected.HandleFunc("/theme", boardHandler.SetTheme).Methods("POST")

	// Static file server for frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web")))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
