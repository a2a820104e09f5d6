// Package deck holds the card values a round draws from.
//
// A Card only carries what scoring needs: its value (Ace = 1, faces = 10)
// and an opaque ID the presentation layer can map back to a suit and rank.
package deck

import (
	"errors"
	"math/rand"
	"time"
)

const (
	// Size is the number of cards in a fresh deck.
	Size = 52

	ranksPerSuit = 13
)

// ErrEmptyDeck is returned by Draw once every card has been dealt.
var ErrEmptyDeck = errors.New("deck: no cards remaining")

// Card is a single drawn card.
type Card struct {
	ID    int `json:"id"`    // 0..51, suit = ID/13, rank index = ID%13
	Value int `json:"value"` // 1..10
}

// IsAce reports whether the card scores as 1 or 11.
func (c Card) IsAce() bool { return c.Value == 1 }

// Source picks which remaining card is drawn. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Deck is a multiset of cards drawn without replacement.
type Deck struct {
	cards []Card
	src   Source
}

// New returns a full 52-card deck. A nil src uses a time-seeded generator.
func New(src Source) *Deck {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cards := make([]Card, 0, Size)
	for id := 0; id < Size; id++ {
		cards = append(cards, Card{ID: id, Value: valueOf(id)})
	}
	return &Deck{cards: cards, src: src}
}

// FromValues returns a deck that deals the given values in order.
// IDs are assigned from the first matching slot of a standard deck so
// display mapping still works.
func FromValues(values ...int) *Deck {
	used := make(map[int]bool, len(values))
	cards := make([]Card, 0, len(values))
	for _, v := range values {
		c := Card{ID: -1, Value: v}
		for id := 0; id < Size; id++ {
			if !used[id] && valueOf(id) == v {
				c.ID = id
				used[id] = true
				break
			}
		}
		cards = append(cards, c)
	}
	return &Deck{cards: cards, src: topSource{}}
}

// Draw removes and returns one card chosen by the deck's source.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	i := d.src.Intn(len(d.cards))
	c := d.cards[i]
	d.cards = append(d.cards[:i], d.cards[i+1:]...)
	return c, nil
}

// Len is the number of cards left.
func (d *Deck) Len() int { return len(d.cards) }

func valueOf(id int) int {
	rank := id%ranksPerSuit + 1
	if rank > 10 {
		return 10
	}
	return rank
}

// topSource always deals the next card in order.
type topSource struct{}

func (topSource) Intn(int) int { return 0 }
