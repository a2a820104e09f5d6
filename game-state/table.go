package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/emanna1/blackjack-game/internal/round"
	"github.com/emanna1/blackjack-game/internal/stats"
)

// ── Wire types ────────────────────────────────────────────────────────────────

type PlayerState struct {
	Chips      int    `json:"chips"`
	CurrentBet int    `json:"currentBet"`
	Hand       []Card `json:"hand"`
	HandValue  int    `json:"handValue"`
	IsSoftHand bool   `json:"isSoftHand"`
	Status     string `json:"status"`
}

type DealerState struct {
	Hand      []Card `json:"hand"`
	HandValue int    `json:"handValue"`
}

type GameState struct {
	TableID   string        `json:"tableId"`
	RoundID   string        `json:"roundId,omitempty"`
	Phase     string        `json:"phase"`
	Player    PlayerState   `json:"player"`
	Dealer    DealerState   `json:"dealer"`
	Outcome   string        `json:"outcome"`
	Result    string        `json:"result"`
	GameOver  bool          `json:"gameOver"`
	Stats     stats.Summary `json:"stats"`
	HandledBy string        `json:"handledBy"`
	Timestamp string        `json:"timestamp"`
}

type SSEEvent struct {
	Type string    `json:"type"`
	Data GameState `json:"data"`
}

// PlayerActionRequest is the body of POST /tables/{id}/action. Amount may be
// a JSON number or a string typed by the player.
type PlayerActionRequest struct {
	Action string          `json:"action"`
	Amount json.RawMessage `json:"amount,omitempty"`
}

type ActionResponse struct {
	State      GameState `json:"state"`
	Suggestion string    `json:"suggestion,omitempty"`
}

const suggestionUnavailable = "Cannot suggest a move at this time."

var errUnknownAction = errors.New("unknown action")

func viewOf(snap round.Snapshot, st stats.Summary) GameState {
	return GameState{
		TableID: snap.TableID,
		RoundID: snap.RoundID,
		Phase:   snap.State.String(),
		Player: PlayerState{
			Chips:      snap.Balance,
			CurrentBet: snap.Bet,
			Hand:       displayHand(snap.PlayerHand),
			HandValue:  snap.PlayerScore,
			IsSoftHand: snap.PlayerSoft,
			Status:     playerStatus(snap),
		},
		Dealer: DealerState{
			Hand:      displayHand(snap.DealerHand),
			HandValue: snap.DealerScore,
		},
		Outcome:   snap.Outcome.String(),
		Result:    snap.ResultText,
		GameOver:  snap.GameOver,
		Stats:     st,
		HandledBy: hostname(),
		Timestamp: now(),
	}
}

func playerStatus(snap round.Snapshot) string {
	switch snap.State {
	case round.AwaitingBet:
		return "betting"
	case round.PlayerTurn:
		return "playing"
	case round.DealerTurn:
		return "standing"
	}
	switch snap.Outcome {
	case round.PlayerBust:
		return "bust"
	case round.DealerBust, round.PlayerWin:
		return "won"
	case round.Push:
		return "push"
	case round.Aborted:
		return "refunded"
	default:
		return "lost"
	}
}

// ── Table ─────────────────────────────────────────────────────────────────────

// Table serializes access to one controller and fans its state out to SSE
// subscribers. It also owns the post-round auto-reset timer.
type Table struct {
	mu         sync.Mutex
	game       *round.Controller
	clients    map[chan GameState]struct{}
	resetDelay time.Duration
	resetTimer *time.Timer
}

// NewTable wraps a controller. A resetDelay of zero disables auto-reset.
func NewTable(game *round.Controller, resetDelay time.Duration) *Table {
	return &Table{
		game:       game,
		clients:    make(map[chan GameState]struct{}),
		resetDelay: resetDelay,
	}
}

func (t *Table) ID() string { return t.game.TableID() }

func (t *Table) Subscribe() chan GameState {
	ch := make(chan GameState, 16)
	t.mu.Lock()
	t.clients[ch] = struct{}{}
	t.mu.Unlock()
	return ch
}

func (t *Table) Unsubscribe(ch chan GameState) {
	t.mu.Lock()
	delete(t.clients, ch)
	t.mu.Unlock()
	close(ch)
}

// broadcast must be called with t.mu held.
func (t *Table) broadcast(state GameState) {
	for ch := range t.clients {
		select {
		case ch <- state:
		default:
			// slow client, drop rather than block the table
		}
	}
}

func (t *Table) GetState() GameState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Table) Stats() stats.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.game.Stats()
}

func (t *Table) stateLocked() GameState {
	return viewOf(t.game.Snapshot(), t.game.Stats())
}

// Apply runs one player action. The resulting state is broadcast even when
// the action fails, since an aborted round still changes the table.
func (t *Table) Apply(req PlayerActionRequest) (ActionResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		resp ActionResponse
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "bet":
		var amount int
		amount, err = round.ParseBet(strings.Trim(string(req.Amount), `"`))
		if err == nil {
			_, err = t.game.PlaceBet(amount)
		}
	case "hit":
		_, err = t.game.Hit()
	case "stand":
		_, err = t.game.Stand()
	case "double", "double_down":
		_, err = t.game.DoubleDown()
	case "suggest":
		resp.Suggestion = suggestionUnavailable
		if a, serr := t.game.Suggestion(); serr == nil {
			resp.Suggestion = a.String()
		}
	case "reset":
		if st := t.game.State(); st != round.Resolved && st != round.AwaitingBet {
			err = &round.IllegalActionError{Action: "reset", State: st, Reason: "round in progress"}
			break
		}
		t.stopResetLocked()
		t.game.Reset()
	default:
		return ActionResponse{State: t.stateLocked()}, fmt.Errorf("%w %q", errUnknownAction, req.Action)
	}

	if t.game.State() == round.Resolved {
		t.scheduleResetLocked()
	}
	resp.State = t.stateLocked()
	t.broadcast(resp.State)
	return resp, err
}

func (t *Table) scheduleResetLocked() {
	if t.resetDelay <= 0 || t.resetTimer != nil {
		return
	}
	t.resetTimer = time.AfterFunc(t.resetDelay, t.autoReset)
}

func (t *Table) stopResetLocked() {
	if t.resetTimer != nil {
		t.resetTimer.Stop()
		t.resetTimer = nil
	}
}

func (t *Table) autoReset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetTimer = nil
	if t.game.State() != round.Resolved {
		return
	}
	t.game.Reset()
	t.broadcast(t.stateLocked())
}

// ── Table Registry ─────────────────────────────────────────────────────────────

type Registry struct {
	mu       sync.RWMutex
	tables   map[string]*Table
	newTable func(id string) *Table
}

func NewRegistry(newTable func(id string) *Table) *Registry {
	return &Registry{tables: make(map[string]*Table), newTable: newTable}
}

func (r *Registry) Get(id string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	return t, ok
}

func (r *Registry) GetOrCreate(id string) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[id]; ok {
		return t
	}
	t := r.newTable(id)
	r.tables[id] = t
	return t
}

func (r *Registry) List() []GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make([]GameState, 0, len(r.tables))
	for _, t := range r.tables {
		states = append(states, t.GetState())
	}
	return states
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "game-state"
	}
	return h
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
