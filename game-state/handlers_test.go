package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emanna1/blackjack-game/internal/deck"
	"github.com/emanna1/blackjack-game/internal/ledger"
	"github.com/emanna1/blackjack-game/internal/round"
)

const testTable = "t1"

func stackedRegistry(resetDelay time.Duration, values ...int) *Registry {
	return NewRegistry(func(id string) *Table {
		game := round.New(
			round.WithTableID(id),
			round.WithDeckFactory(func() *deck.Deck { return deck.FromValues(values...) }),
		)
		return NewTable(game, resetDelay)
	})
}

func newTestServer(t *testing.T, history historySource, values ...int) *httptest.Server {
	t.Helper()
	reg := stackedRegistry(0, values...)
	reg.GetOrCreate(testTable)
	ts := httptest.NewServer((&server{registry: reg, history: history}).routes())
	t.Cleanup(ts.Close)
	return ts
}

func postAction(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/tables/"+testTable+"/action", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["ledger"])
	assert.Equal(t, false, body["events"])
	assert.EqualValues(t, 1, body["tables"])
}

type fakeCounter struct{}

func (fakeCounter) Counts() (int64, int64) { return 7, 2 }

func TestHealth_EventCounters(t *testing.T) {
	reg := stackedRegistry(0)
	ts := httptest.NewServer((&server{registry: reg, events: fakeCounter{}}).routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["events"])
	assert.EqualValues(t, 7, body["events_published"])
	assert.EqualValues(t, 2, body["events_dropped"])
}

func TestAction_BetAndStand(t *testing.T) {
	ts := newTestServer(t, nil, 1, 10, 9, 9)

	resp, body := postAction(t, ts, `{"action":"bet","amount":100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := body["state"].(map[string]any)
	assert.Equal(t, "player_turn", state["phase"])
	player := state["player"].(map[string]any)
	assert.EqualValues(t, 900, player["chips"])
	assert.EqualValues(t, 20, player["handValue"])
	assert.Equal(t, true, player["isSoftHand"])

	resp, body = postAction(t, ts, `{"action":"stand"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = body["state"].(map[string]any)
	assert.Equal(t, "resolved", state["phase"])
	assert.Equal(t, "Player wins!", state["result"])
	assert.Equal(t, true, state["gameOver"])
	player = state["player"].(map[string]any)
	assert.EqualValues(t, 1100, player["chips"])
	assert.Equal(t, "won", player["status"])
	st := state["stats"].(map[string]any)
	assert.EqualValues(t, 1, st["gamesPlayed"])
	assert.EqualValues(t, 1, st["gamesWon"])
}

func TestAction_BetAmountAsString(t *testing.T) {
	ts := newTestServer(t, nil, 2, 3, 4)
	resp, _ := postAction(t, ts, `{"action":"bet","amount":"50"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAction_InvalidBets(t *testing.T) {
	ts := newTestServer(t, nil, 2, 3, 4)
	for _, body := range []string{
		`{"action":"bet","amount":0}`,
		`{"action":"bet","amount":-5}`,
		`{"action":"bet","amount":1001}`,
		`{"action":"bet","amount":"abc"}`,
		`{"action":"bet"}`,
	} {
		resp, out := postAction(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "invalid_bet", errorCode(out), body)
	}

	resp, err := http.Get(ts.URL + "/tables/" + testTable)
	require.NoError(t, err)
	defer resp.Body.Close()
	var state GameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, 1000, state.Player.Chips)
	assert.Equal(t, "awaiting_bet", state.Phase)
}

func TestAction_IllegalAndUnknown(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, out := postAction(t, ts, `{"action":"hit"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "illegal_action", errorCode(out))

	resp, out = postAction(t, ts, `{"action":"split"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown_action", errorCode(out))

	resp, out = postAction(t, ts, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", errorCode(out))
}

func TestAction_DeckExhausted(t *testing.T) {
	ts := newTestServer(t, nil, 10, 10)
	resp, out := postAction(t, ts, `{"action":"bet","amount":100}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "deck_exhausted", errorCode(out))
}

func TestAction_Suggest(t *testing.T) {
	ts := newTestServer(t, nil, 5, 10, 6)

	_, out := postAction(t, ts, `{"action":"suggest"}`)
	assert.Equal(t, suggestionUnavailable, out["suggestion"])

	postAction(t, ts, `{"action":"bet","amount":10}`)
	_, out = postAction(t, ts, `{"action":"suggest"}`)
	assert.Equal(t, "Double Down if allowed, otherwise Hit", out["suggestion"])
}

func TestTableNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/tables/nope", "/tables/nope/stats", "/tables/nope/transactions"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestJoinAndCreate(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/tables/new-one/join", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/tables", "application/json", nil)
	require.NoError(t, err)
	var created GameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, strings.HasPrefix(created.TableID, "table-"))

	resp, err = http.Get(ts.URL + "/tables")
	require.NoError(t, err)
	var all []GameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	resp.Body.Close()
	assert.Len(t, all, 3)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, nil, 10, 7, 10, 5)
	postAction(t, ts, `{"action":"bet","amount":100}`)
	postAction(t, ts, `{"action":"hit"}`)

	resp, err := http.Get(ts.URL + "/tables/" + testTable + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var st map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.EqualValues(t, 1, st["gamesPlayed"])
	assert.EqualValues(t, 0, st["gamesWon"])
	assert.EqualValues(t, 0, st["winRatePercent"])
}

type fakeHistory struct {
	tableID string
	limit   int
	err     error
}

func (f *fakeHistory) History(ctx context.Context, tableID string, limit int) ([]ledger.Transaction, error) {
	f.tableID, f.limit = tableID, limit
	if f.err != nil {
		return nil, f.err
	}
	return []ledger.Transaction{{ID: "x", Type: "bet", Amount: 100}}, nil
}

func TestTransactions(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, nil)
		resp, err := http.Get(ts.URL + "/tables/" + testTable + "/transactions")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("enabled", func(t *testing.T) {
		h := &fakeHistory{}
		ts := newTestServer(t, h)
		resp, err := http.Get(ts.URL + "/tables/" + testTable + "/transactions?limit=5")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, testTable, h.tableID)
		assert.Equal(t, 5, h.limit)
	})

	t.Run("bad limit", func(t *testing.T) {
		ts := newTestServer(t, &fakeHistory{})
		resp, err := http.Get(ts.URL + "/tables/" + testTable + "/transactions?limit=-1")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("db error", func(t *testing.T) {
		ts := newTestServer(t, &fakeHistory{err: errors.New("boom")})
		resp, err := http.Get(ts.URL + "/tables/" + testTable + "/transactions")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestStream_SendsStateOnConnect(t *testing.T) {
	ts := newTestServer(t, nil, 2, 3, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/tables/"+testTable+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: game_state\n", line)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var evt SSEEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
	assert.Equal(t, "game_state", evt.Type)
	assert.Equal(t, testTable, evt.Data.TableID)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/tables/"+testTable+"/action", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
