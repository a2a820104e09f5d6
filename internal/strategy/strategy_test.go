package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emanna1/blackjack-game/internal/deck"
	"github.com/emanna1/blackjack-game/internal/hand"
)

func TestLookup_ElevenAlwaysDoubles(t *testing.T) {
	for up := MinDealerBucket; up <= MaxDealerBucket; up++ {
		assert.Equal(t, DoubleDownOrHit, Lookup(11, up), "upcard %d", up)
	}
}

func TestLookup_SeventeenPlusStands(t *testing.T) {
	for score := 17; score <= 30; score++ {
		for up := MinDealerBucket; up <= MaxDealerBucket; up++ {
			assert.Equal(t, Stand, Lookup(score, up), "score %d upcard %d", score, up)
		}
	}
}

func TestLookup_Rows(t *testing.T) {
	tests := []struct {
		score, up int
		want      Action
	}{
		{8, 6, Hit},
		{9, 2, Hit},
		{9, 3, DoubleDownOrHit},
		{9, 7, Hit},
		{10, 9, DoubleDownOrHit},
		{10, 10, Hit},
		{10, 11, Hit},
		{12, 3, Hit},
		{12, 4, Stand},
		{12, 7, Hit},
		{13, 2, Stand},
		{16, 6, Stand},
		{16, 7, Hit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Lookup(tt.score, tt.up), "score %d upcard %d", tt.score, tt.up)
	}
}

func TestLookup_Clamps(t *testing.T) {
	assert.Equal(t, Lookup(5, 2), Lookup(2, 0))
	assert.Equal(t, Lookup(16, 11), Lookup(16, 15))
}

func TestLookup_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Lookup(9, 4), Lookup(9, 4))
	}
}

func TestUpcardBucket(t *testing.T) {
	assert.Equal(t, 11, UpcardBucket(deck.Card{Value: 1}))
	assert.Equal(t, 10, UpcardBucket(deck.Card{Value: 10}))
	assert.Equal(t, 2, UpcardBucket(deck.Card{Value: 2}))
}

func TestRecommend(t *testing.T) {
	player := hand.Hand{{ID: 4, Value: 5}, {ID: 5, Value: 6}}
	dealer := hand.Hand{{ID: 22, Value: 10}}

	a, err := Recommend(player, dealer)
	require.NoError(t, err)
	assert.Equal(t, DoubleDownOrHit, a)
	assert.Equal(t, "Double Down if allowed, otherwise Hit", a.String())

	_, err = Recommend(player, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "Stand", Stand.String())
	assert.Equal(t, "Hit", Hit.String())
}
