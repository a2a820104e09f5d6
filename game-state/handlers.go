package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/emanna1/blackjack-game/internal/deck"
	"github.com/emanna1/blackjack-game/internal/ledger"
	"github.com/emanna1/blackjack-game/internal/round"
)

// historySource is the read side of the ledger.
type historySource interface {
	History(ctx context.Context, tableID string, limit int) ([]ledger.Transaction, error)
}

// eventCounter reports how many round events reached Redis.
type eventCounter interface {
	Counts() (published, dropped int64)
}

type server struct {
	registry *Registry
	history  historySource
	events   eventCounter
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	mux.HandleFunc("GET /tables", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.registry.List())
	})
	mux.HandleFunc("POST /tables", func(w http.ResponseWriter, r *http.Request) {
		t := s.registry.GetOrCreate("table-" + uuid.NewString())
		writeJSON(w, http.StatusCreated, t.GetState())
	})

	mux.HandleFunc("GET /tables/{id}", s.withTable(func(w http.ResponseWriter, r *http.Request, t *Table) {
		writeJSON(w, http.StatusOK, t.GetState())
	}))
	mux.HandleFunc("POST /tables/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		t := s.registry.GetOrCreate(r.PathValue("id"))
		writeJSON(w, http.StatusOK, t.GetState())
	})
	mux.HandleFunc("GET /tables/{id}/stream", s.withTable(sseHandler))
	mux.HandleFunc("POST /tables/{id}/action", s.withTable(actionHandler))
	mux.HandleFunc("GET /tables/{id}/stats", s.withTable(func(w http.ResponseWriter, r *http.Request, t *Table) {
		writeJSON(w, http.StatusOK, t.Stats())
	}))
	mux.HandleFunc("GET /tables/{id}/transactions", s.withTable(s.transactionsHandler))

	return corsMiddleware(mux)
}

func (s *server) withTable(h func(http.ResponseWriter, *http.Request, *Table)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := s.registry.Get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "table not found")
			return
		}
		h(w, r, t)
	}
}

// ── Health ────────────────────────────────────────────────────────────────────

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "healthy",
		"service": "game-state",
		"tables":  len(s.registry.List()),
		"ledger":  s.history != nil,
		"events":  s.events != nil,
	}
	if s.events != nil {
		published, dropped := s.events.Counts()
		body["events_published"] = published
		body["events_dropped"] = dropped
	}
	writeJSON(w, http.StatusOK, body)
}

// ── Actions ───────────────────────────────────────────────────────────────────

func actionHandler(w http.ResponseWriter, r *http.Request, t *Table) {
	var req PlayerActionRequest
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON")
		return
	}

	resp, err := t.Apply(req)
	if err != nil {
		log.Printf("[game-state] action rejected: table=%s action=%s: %v", t.ID(), req.Action, err)
		writeActionError(w, err)
		return
	}
	log.Printf("[game-state] action: table=%s action=%s phase=%s", t.ID(), req.Action, resp.State.Phase)
	writeJSON(w, http.StatusOK, resp)
}

func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, round.ErrInvalidBet):
		writeError(w, http.StatusBadRequest, "invalid_bet", "Please enter a valid bet amount.")
	case errors.Is(err, round.ErrIllegalAction):
		writeError(w, http.StatusConflict, "illegal_action", err.Error())
	case errors.Is(err, errUnknownAction):
		writeError(w, http.StatusBadRequest, "unknown_action", err.Error())
	case errors.Is(err, deck.ErrEmptyDeck):
		writeError(w, http.StatusInternalServerError, "deck_exhausted", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// ── Transactions ──────────────────────────────────────────────────────────────

func (s *server) transactionsHandler(w http.ResponseWriter, r *http.Request, t *Table) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger_disabled", "transaction ledger is not configured")
		return
	}
	limit := ledger.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	txns, err := s.history.History(r.Context(), t.ID(), limit)
	if err != nil {
		log.Printf("[game-state] transactions: %v", err)
		writeError(w, http.StatusInternalServerError, "db_error", "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tableId":      t.ID(),
		"transactions": txns,
	})
}

// ── SSE ───────────────────────────────────────────────────────────────────────

func sseHandler(w http.ResponseWriter, r *http.Request, t *Table) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ch := t.Subscribe()
	defer t.Unsubscribe(ch)

	// Send current state immediately on connect
	sendSSEEvent(w, flusher, "game_state", t.GetState())

	for {
		select {
		case state, ok := <-ch:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "game_state", state)
		case <-r.Context().Done():
			return
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, state GameState) {
	evt := SSEEvent{Type: eventType, Data: state}
	data, _ := json.Marshal(evt)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
	flusher.Flush()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func parseBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
