package main

import "github.com/emanna1/blackjack-game/internal/deck"

// ── Card display ──────────────────────────────────────────────────────────────
// The core only knows values and an opaque ID. Suit and rank exist for
// rendering and are recovered from the ID here.

var (
	suits = []string{"hearts", "clubs", "diamonds", "spades"}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

type Card struct {
	ID    int    `json:"id"`
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

func displayCard(c deck.Card) Card {
	if c.ID < 0 || c.ID >= deck.Size {
		return Card{ID: c.ID, Suit: "unknown", Rank: "?", Value: c.Value}
	}
	return Card{
		ID:    c.ID,
		Suit:  suits[c.ID/len(ranks)],
		Rank:  ranks[c.ID%len(ranks)],
		Value: c.Value,
	}
}

func displayHand(cards []deck.Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, displayCard(c))
	}
	return out
}

var suitSymbols = map[string]string{
	"hearts":   "♥",
	"clubs":    "♣",
	"diamonds": "♦",
	"spades":   "♠",
}

func (c Card) String() string {
	if s, ok := suitSymbols[c.Suit]; ok {
		return c.Rank + s
	}
	return c.Rank
}
