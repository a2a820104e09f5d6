// Package strategy is the basic-strategy advisor: a fixed table from the
// player's score and the dealer's upcard to a recommended move.
package strategy

import (
	"errors"

	"github.com/emanna1/blackjack-game/internal/deck"
	"github.com/emanna1/blackjack-game/internal/hand"
)

// Bucket bounds. Scores and upcards outside them are clamped.
const (
	MinPlayerBucket = 5
	MaxPlayerBucket = 17
	MinDealerBucket = 2
	MaxDealerBucket = 11
)

// ErrUnavailable means there is no dealer upcard to advise against.
var ErrUnavailable = errors.New("strategy: no dealer upcard")

// Action is a recommended move.
type Action int

const (
	Stand Action = iota
	Hit
	DoubleDownOrHit
)

func (a Action) String() string {
	switch a {
	case Stand:
		return "Stand"
	case Hit:
		return "Hit"
	case DoubleDownOrHit:
		return "Double Down if allowed, otherwise Hit"
	default:
		return "Unknown"
	}
}

const (
	st = Stand
	ht = Hit
	dd = DoubleDownOrHit
)

// table is keyed by player bucket; columns are dealer upcards 2..11.
var table = map[int][MaxDealerBucket - MinDealerBucket + 1]Action{
	5:  {ht, ht, ht, ht, ht, ht, ht, ht, ht, ht},
	6:  {ht, ht, ht, ht, ht, ht, ht, ht, ht, ht},
	7:  {ht, ht, ht, ht, ht, ht, ht, ht, ht, ht},
	8:  {ht, ht, ht, ht, ht, ht, ht, ht, ht, ht},
	9:  {ht, dd, dd, dd, dd, ht, ht, ht, ht, ht},
	10: {dd, dd, dd, dd, dd, dd, dd, dd, ht, ht},
	11: {dd, dd, dd, dd, dd, dd, dd, dd, dd, dd},
	12: {ht, ht, st, st, st, ht, ht, ht, ht, ht},
	13: {st, st, st, st, st, ht, ht, ht, ht, ht},
	14: {st, st, st, st, st, ht, ht, ht, ht, ht},
	15: {st, st, st, st, st, ht, ht, ht, ht, ht},
	16: {st, st, st, st, st, ht, ht, ht, ht, ht},
	17: {st, st, st, st, st, st, st, st, st, st},
}

// Lookup returns the table entry for a player score and a dealer upcard
// bucket (2..10, 11 for an Ace). Both are clamped first.
func Lookup(playerScore, dealerUpcard int) Action {
	p := clamp(playerScore, MinPlayerBucket, MaxPlayerBucket)
	d := clamp(dealerUpcard, MinDealerBucket, MaxDealerBucket)
	return table[p][d-MinDealerBucket]
}

// UpcardBucket maps the dealer's visible card to its table column.
func UpcardBucket(c deck.Card) int {
	if c.IsAce() {
		return MaxDealerBucket
	}
	v := c.Value
	if v > 10 {
		v = 10
	}
	return clamp(v, MinDealerBucket, MaxDealerBucket)
}

// Recommend advises the player against the dealer's first card.
func Recommend(player, dealer hand.Hand) (Action, error) {
	if len(dealer) == 0 {
		return 0, ErrUnavailable
	}
	return Lookup(player.Score(), UpcardBucket(dealer[0])), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
