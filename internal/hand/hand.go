// Package hand scores an ordered sequence of cards.
package hand

import "github.com/emanna1/blackjack-game/internal/deck"

// BustThreshold is the highest score that does not bust.
const BustThreshold = 21

// Hand is the cards held by one party, in deal order.
type Hand []deck.Card

// Add appends a card.
func (h *Hand) Add(c deck.Card) { *h = append(*h, c) }

// Score returns the hand value with Aces counted as 11 while that keeps
// the total at or below 21.
func (h Hand) Score() int {
	total := h.sum()
	aces := h.aces()
	for total <= 11 && aces > 0 {
		total += 10
		aces--
	}
	return total
}

// IsBust reports a score over 21.
func (h Hand) IsBust() bool { return h.Score() > BustThreshold }

// IsSoft reports whether an Ace is being counted as 11.
func (h Hand) IsSoft() bool { return h.Score() != h.sum() }

// IsNatural is a two-card 21. It pays the same as any other win.
func (h Hand) IsNatural() bool { return len(h) == 2 && h.Score() == BustThreshold }

func (h Hand) sum() int {
	total := 0
	for _, c := range h {
		total += c.Value
	}
	return total
}

func (h Hand) aces() int {
	n := 0
	for _, c := range h {
		if c.IsAce() {
			n++
		}
	}
	return n
}
