package round

import "time"

// EventKind names a balance-affecting step of a round.
type EventKind string

const (
	BetPlaced     EventKind = "bet_placed"
	DoubledDown   EventKind = "doubled_down"
	RoundResolved EventKind = "round_resolved"
	RoundAborted  EventKind = "round_aborted"
)

// Event is emitted to every Recorder after the controller has applied it.
// Amount is the chips moved by this step: the stake taken for BetPlaced and
// DoubledDown, the payout or refund returned otherwise.
type Event struct {
	Kind        EventKind `json:"kind"`
	TableID     string    `json:"tableId"`
	RoundID     string    `json:"roundId"`
	Amount      int       `json:"amount"`
	Bet         int       `json:"bet"`
	Balance     int       `json:"balance"`
	Outcome     Outcome   `json:"outcome"`
	PlayerScore int       `json:"playerScore"`
	DealerScore int       `json:"dealerScore"`
	At          time.Time `json:"at"`
}

// Recorder observes round events. Implementations must not call back into
// the controller and should not block for long.
type Recorder interface {
	Record(Event)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Event)

func (f RecorderFunc) Record(ev Event) { f(ev) }
