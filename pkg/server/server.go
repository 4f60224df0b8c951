// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the daemon's loopback HTTP surface. Write
// endpoints enqueue ingest items; read endpoints serve derived views
// from the daily log, the to-do store and the insight engine. The
// listener binds 127.0.0.1 only and carries no authentication.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AustinWp/soul-agent/pkg/capture"
	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/ingest"
	"github.com/AustinWp/soul-agent/pkg/insight"
	"github.com/AustinWp/soul-agent/pkg/todo"
	"github.com/AustinWp/soul-agent/pkg/vault"
)

// DefaultPort is the loopback port the daemon listens on.
const DefaultPort = 8330

const maxBodyBytes = 1 << 20

// searchDirs are the vault directories covered by GET /search.
var searchDirs = []string{"logs", "classified", "notes", "todos/active"}

// Deps are the components the HTTP surface reads from and writes to.
type Deps struct {
	Queue    *ingest.Queue
	Terminal *capture.TerminalBuffer
	Vault    *vault.Store
	Todos    *todo.Store
	Insights *insight.Engine
}

// Server is the loopback HTTP front of the daemon.
type Server struct {
	deps    Deps
	port    int
	logger  *slog.Logger
	started time.Time
	httpSrv *http.Server

	mu         sync.Mutex
	components map[string]string
}

// New builds a server on the given port. Port 0 falls back to
// DefaultPort.
func New(port int, deps Deps, logger *slog.Logger) *Server {
	if port <= 0 {
		port = DefaultPort
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deps:       deps,
		port:       port,
		logger:     logger,
		started:    time.Now(),
		components: make(map[string]string),
	}
}

// SetComponent records a component's health string for /service/status.
func (s *Server) SetComponent(name, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components[name] = state
}

// Handler returns the routed handler. Exposed so tests can drive the
// mux without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /note", s.handleNote)
	mux.HandleFunc("POST /terminal/cmd", s.handleTerminalCmd)
	mux.HandleFunc("POST /ingest/claudecode", s.handleClaudeCode)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /recall", s.handleRecall)
	mux.HandleFunc("GET /insight", s.handleInsight)
	mux.HandleFunc("POST /compact", s.handleCompact)
	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /todo/list", s.handleTodoList)
	mux.HandleFunc("POST /todo/add", s.handleTodoAdd)
	mux.HandleFunc("POST /todo/done", s.handleTodoDone)
	mux.HandleFunc("POST /todo/rm", s.handleTodoRemove)
	mux.HandleFunc("GET /todo/progress/{id}", s.handleTodoProgress)
	mux.HandleFunc("GET /core", s.handleCoreRead)
	mux.HandleFunc("POST /core", s.handleCoreWrite)
	mux.HandleFunc("GET /service/status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.start", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server.shutdown.error", "error", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind string, err error) {
	if status >= 500 {
		s.logger.Warn("server.request.error", "kind", kind, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

type noteRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("text is required"))
		return
	}
	queued := s.deps.Queue.Put(ingest.NewItem(req.Text, ingest.SourceNote, time.Now()))
	writeJSON(w, http.StatusOK, map[string]bool{"queued": queued})
}

type terminalCmdRequest struct {
	Session  string `json:"session"`
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Duration int    `json:"duration"`
}

func (s *Server) handleTerminalCmd(w http.ResponseWriter, r *http.Request) {
	var req terminalCmdRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("command is required"))
		return
	}
	s.deps.Terminal.Add(req.Session, capture.Command{
		Command:  req.Command,
		ExitCode: req.ExitCode,
		Duration: req.Duration,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"buffered": true})
}

func (s *Server) handleClaudeCode(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("text is required"))
		return
	}
	queued := s.deps.Queue.Put(ingest.NewItem(req.Text, ingest.SourceClaudeCode, time.Now()))
	writeJSON(w, http.StatusOK, map[string]bool{"queued": queued})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("q is required"))
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = n
	}
	results := s.deps.Vault.Search(query, searchDirs, limit)
	if results == nil {
		results = []vault.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Insights.Recall(r.URL.Query().Get("period"), time.Now())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date := time.Now()
	if raw != "" && raw != "today" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("date must be YYYY-MM-DD or today"))
			return
		}
		date = parsed
	}

	report, err := s.deps.Insights.Load(date)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if report == "" {
		report, err = s.deps.Insights.Generate(r.Context(), date)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "internal", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"date":   date.Format("2006-01-02"),
		"report": report,
	})
}

type compactRequest struct {
	Scope string `json:"scope"`
}

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	var req compactRequest
	if !s.decode(w, r, &req) {
		return
	}

	var (
		report string
		err    error
	)
	switch req.Scope {
	case "month":
		report, err = s.deps.Insights.CompactMonth(r.Context(), time.Now())
	case "week", "":
		req.Scope = "week"
		report, err = s.deps.Insights.CompactWeek(r.Context(), time.Now())
	default:
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("scope must be week or month"))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scope":         req.Scope,
		"report":        report,
		"report_length": len(report),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = insight.PeriodToday
	}
	if period != insight.PeriodToday && period != insight.PeriodWeek {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("period must be today or week"))
		return
	}
	view, err := s.deps.Insights.Recall(period, time.Now())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	var entries []dailylog.Entry
	for _, day := range view.Days {
		entries = append(entries, day.Entries...)
	}
	stats := insight.Allocation(entries)
	if stats == nil {
		stats = []insight.CategoryStat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":     period,
		"allocation": stats,
	})
}

func (s *Server) handleTodoList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = todo.StatusActive
	}

	var (
		items []*todo.Item
		err   error
	)
	switch status {
	case "stalled":
		items, err = s.deps.Todos.Stalled(todo.DefaultStaleDays)
	case todo.StatusActive, todo.StatusAll:
		items, err = s.deps.Todos.List(status)
	default:
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("status must be active, stalled or all"))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if items == nil {
		items = []*todo.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"todos":  items,
	})
}

type todoAddRequest struct {
	Text     string `json:"text"`
	Priority string `json:"priority"`
}

func (s *Server) handleTodoAdd(w http.ResponseWriter, r *http.Request) {
	var req todoAddRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("text is required"))
		return
	}
	if req.Priority == "" {
		req.Priority = "P2"
	}
	id, err := s.deps.Todos.Create(req.Text, req.Priority, false)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

type todoIDRequest struct {
	TodoID string `json:"todo_id"`
}

func (s *Server) handleTodoDone(w http.ResponseWriter, r *http.Request) {
	var req todoIDRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TodoID) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("todo_id is required"))
		return
	}
	found, err := s.deps.Todos.Complete(req.TodoID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("todo %s not found", req.TodoID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": req.TodoID, "done": true})
}

func (s *Server) handleTodoRemove(w http.ResponseWriter, r *http.Request) {
	var req todoIDRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TodoID) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("todo_id is required"))
		return
	}
	found, err := s.deps.Todos.Remove(req.TodoID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("todo %s not found", req.TodoID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": req.TodoID, "removed": true})
}

func (s *Server) handleTodoProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := s.deps.Todos.Get(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("todo %s not found", id))
		return
	}
	activity := item.Activity
	if activity == nil {
		activity = []vault.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       item.ID,
		"text":     item.Text,
		"status":   item.Status,
		"activity": activity,
	})
}

func (s *Server) handleCoreRead(w http.ResponseWriter, r *http.Request) {
	content, err := s.deps.Vault.Read("core", "MEMORY.md")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if content == nil {
		s.writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("core memory not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": string(content)})
}

type coreWriteRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCoreWrite(w http.ResponseWriter, r *http.Request) {
	var req coreWriteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Errorf("content is required"))
		return
	}
	if err := s.deps.Vault.Write("core", "MEMORY.md", []byte(req.Content)); err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	components := make(map[string]string, len(s.components))
	for name, state := range s.components {
		components[name] = state
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"queue_pending":  s.deps.Queue.PendingCount(),
		"vault_path":     s.deps.Vault.Root(),
		"components":     components,
	})
}
