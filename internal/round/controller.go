// Package round drives a single-player blackjack round: betting, the
// player's turn, dealer auto-play and settlement.
//
// A Controller is not safe for concurrent use. Callers that share one
// across goroutines (the HTTP table does) must serialize access.
package round

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emanna1/blackjack-game/internal/deck"
	"github.com/emanna1/blackjack-game/internal/hand"
	"github.com/emanna1/blackjack-game/internal/stats"
	"github.com/emanna1/blackjack-game/internal/strategy"
)

const (
	DefaultStartingBalance = 1000

	// DealerStandsOn is the score at which the dealer stops drawing. Soft
	// totals count, so the dealer stands on soft 17.
	DealerStandsOn = 17
)

// Snapshot is everything the presentation layer needs to draw the table.
type Snapshot struct {
	TableID     string      `json:"tableId"`
	RoundID     string      `json:"roundId,omitempty"`
	State       State       `json:"state"`
	PlayerHand  []deck.Card `json:"playerHand"`
	DealerHand  []deck.Card `json:"dealerHand"`
	PlayerScore int         `json:"playerScore"`
	DealerScore int         `json:"dealerScore"`
	PlayerSoft  bool        `json:"isSoftHand"`
	Balance     int         `json:"balance"`
	Bet         int         `json:"currentBet"`
	Outcome     Outcome     `json:"outcome"`
	ResultText  string      `json:"resultText"`
	GameOver    bool        `json:"gameOver"`
}

// Controller owns the bankroll, session stats and the round in progress.
type Controller struct {
	id        string
	newDeck   func() *deck.Deck
	recorders []Recorder
	now       func() time.Time

	balance int
	stats   stats.Session

	state   State
	roundID string
	deck    *deck.Deck
	player  hand.Hand
	dealer  hand.Hand
	bet     int
	outcome Outcome
}

// Option configures a Controller.
type Option func(*Controller)

// WithTableID labels snapshots and events.
func WithTableID(id string) Option {
	return func(c *Controller) { c.id = id }
}

// WithBalance sets the starting bankroll.
func WithBalance(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.balance = n
		}
	}
}

// WithSource draws every round's fresh deck with src.
func WithSource(src deck.Source) Option {
	return func(c *Controller) {
		c.newDeck = func() *deck.Deck { return deck.New(src) }
	}
}

// WithDeckFactory replaces how each round's deck is built.
func WithDeckFactory(f func() *deck.Deck) Option {
	return func(c *Controller) { c.newDeck = f }
}

// WithRecorder adds an event observer.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorders = append(c.recorders, r)
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller awaiting the first bet.
func New(opts ...Option) *Controller {
	c := &Controller{
		balance: DefaultStartingBalance,
		newDeck: func() *deck.Deck { return deck.New(nil) },
		now:     time.Now,
		state:   AwaitingBet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlaceBet takes the stake and deals player, dealer, player. The dealer's
// second card is not drawn until the dealer plays.
func (c *Controller) PlaceBet(amount int) (Snapshot, error) {
	if c.state != AwaitingBet {
		return c.Snapshot(), c.illegal("bet", "a round is already in progress")
	}
	if amount <= 0 || amount > c.balance {
		return c.Snapshot(), &InvalidBetError{Amount: amount, Balance: c.balance}
	}

	c.deck = c.newDeck()
	c.player, c.dealer = hand.Hand{}, hand.Hand{}
	c.balance -= amount
	c.bet = amount
	c.outcome = Pending
	c.roundID = uuid.NewString()
	c.state = PlayerTurn
	c.emit(BetPlaced, amount)

	for _, h := range []*hand.Hand{&c.player, &c.dealer, &c.player} {
		if err := c.deal(h); err != nil {
			return c.abort(err)
		}
	}
	return c.Snapshot(), nil
}

// Hit deals the player one card and settles immediately on a bust.
func (c *Controller) Hit() (Snapshot, error) {
	if c.state != PlayerTurn {
		return c.Snapshot(), c.illegal("hit", "")
	}
	return c.hit()
}

// Stand hands over to the dealer and settles the round.
func (c *Controller) Stand() (Snapshot, error) {
	if c.state != PlayerTurn {
		return c.Snapshot(), c.illegal("stand", "")
	}
	return c.playDealer()
}

// DoubleDown doubles the bet, takes exactly one card and stands. It is only
// allowed on the first two cards with enough balance to match the bet.
func (c *Controller) DoubleDown() (Snapshot, error) {
	switch {
	case c.state != PlayerTurn:
		return c.Snapshot(), c.illegal("double", "")
	case len(c.player) != 2:
		return c.Snapshot(), c.illegal("double", "only allowed on the first two cards")
	case c.balance < c.bet:
		return c.Snapshot(), c.illegal("double", "balance does not cover the bet")
	}

	extra := c.bet
	c.balance -= extra
	c.bet += extra
	c.emit(DoubledDown, extra)

	snap, err := c.hit()
	if err != nil || c.state == Resolved {
		return snap, err
	}
	return c.playDealer()
}

// Suggestion asks the strategy advisor for the player's next move.
func (c *Controller) Suggestion() (strategy.Action, error) {
	if c.state != PlayerTurn || len(c.player) < 2 {
		return 0, ErrSuggestionUnavailable
	}
	a, err := strategy.Recommend(c.player, c.dealer)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSuggestionUnavailable, err)
	}
	return a, nil
}

// Reset clears the table for the next bet. Balance and stats carry over.
func (c *Controller) Reset() {
	c.state = AwaitingBet
	c.roundID = ""
	c.deck = nil
	c.player, c.dealer = nil, nil
	c.bet = 0
	c.outcome = Pending
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Balance() int { return c.balance }

func (c *Controller) TableID() string { return c.id }

// Stats returns the session counters.
func (c *Controller) Stats() stats.Summary { return c.stats.Summary() }

// Snapshot copies the current table.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		TableID:     c.id,
		RoundID:     c.roundID,
		State:       c.state,
		PlayerHand:  append([]deck.Card{}, c.player...),
		DealerHand:  append([]deck.Card{}, c.dealer...),
		PlayerScore: c.player.Score(),
		DealerScore: c.dealer.Score(),
		PlayerSoft:  c.player.IsSoft(),
		Balance:     c.balance,
		Bet:         c.bet,
		Outcome:     c.outcome,
		ResultText:  c.outcome.Text(),
		GameOver:    c.state == Resolved,
	}
}

func (c *Controller) hit() (Snapshot, error) {
	if err := c.deal(&c.player); err != nil {
		return c.abort(err)
	}
	if c.player.IsBust() {
		c.resolve(PlayerBust)
	}
	return c.Snapshot(), nil
}

func (c *Controller) playDealer() (Snapshot, error) {
	c.state = DealerTurn
	for c.dealer.Score() < DealerStandsOn {
		if err := c.deal(&c.dealer); err != nil {
			return c.abort(err)
		}
	}
	c.resolve(c.judge())
	return c.Snapshot(), nil
}

func (c *Controller) judge() Outcome {
	p, d := c.player.Score(), c.dealer.Score()
	switch {
	case d > hand.BustThreshold:
		return DealerBust
	case p > d:
		return PlayerWin
	case d > p:
		return DealerWin
	default:
		return Push
	}
}

func (c *Controller) resolve(o Outcome) {
	payout := o.payout(c.bet)
	c.balance += payout
	c.outcome = o
	c.state = Resolved
	c.stats.RecordRound(o.Won())
	c.emit(RoundResolved, payout)
}

// abort ends a round that cannot continue. The stake is refunded and the
// round is not counted.
func (c *Controller) abort(cause error) (Snapshot, error) {
	refund := Aborted.payout(c.bet)
	c.balance += refund
	c.outcome = Aborted
	c.state = Resolved
	c.emit(RoundAborted, refund)
	return c.Snapshot(), fmt.Errorf("round %s aborted: %w", c.roundID, cause)
}

func (c *Controller) deal(h *hand.Hand) error {
	card, err := c.deck.Draw()
	if err != nil {
		return err
	}
	h.Add(card)
	return nil
}

func (c *Controller) illegal(action, reason string) error {
	return &IllegalActionError{Action: action, State: c.state, Reason: reason}
}

func (c *Controller) emit(kind EventKind, amount int) {
	if len(c.recorders) == 0 {
		return
	}
	ev := Event{
		Kind:        kind,
		TableID:     c.id,
		RoundID:     c.roundID,
		Amount:      amount,
		Bet:         c.bet,
		Balance:     c.balance,
		Outcome:     c.outcome,
		PlayerScore: c.player.Score(),
		DealerScore: c.dealer.Score(),
		At:          c.now().UTC(),
	}
	for _, r := range c.recorders {
		r.Record(ev)
	}
}
