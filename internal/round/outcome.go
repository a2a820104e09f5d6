package round

// State is where a round is in its lifecycle.
type State int

const (
	AwaitingBet State = iota
	PlayerTurn
	DealerTurn
	Resolved
)

func (s State) String() string {
	switch s {
	case AwaitingBet:
		return "awaiting_bet"
	case PlayerTurn:
		return "player_turn"
	case DealerTurn:
		return "dealer_turn"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Outcome is how a round ended.
type Outcome int

const (
	Pending Outcome = iota
	PlayerBust
	DealerBust
	PlayerWin
	DealerWin
	Push
	Aborted
)

// Text is the result line shown to the player.
func (o Outcome) Text() string {
	switch o {
	case PlayerBust:
		return "Player busts! Dealer wins."
	case DealerBust:
		return "Dealer busts! Player wins!"
	case PlayerWin:
		return "Player wins!"
	case DealerWin:
		return "Dealer wins!"
	case Push:
		return "It's a tie!"
	case Aborted:
		return "Round aborted: the deck ran out of cards. Your bet has been returned."
	default:
		return ""
	}
}

// Result is the settlement class used by the ledger: win, loss, push or refund.
func (o Outcome) Result() string {
	switch o {
	case DealerBust, PlayerWin:
		return "win"
	case PlayerBust, DealerWin:
		return "loss"
	case Push:
		return "push"
	case Aborted:
		return "refund"
	default:
		return ""
	}
}

// Won reports whether the round counts as a win for the player.
func (o Outcome) Won() bool { return o == DealerBust || o == PlayerWin }

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case PlayerBust:
		return "player_bust"
	case DealerBust:
		return "dealer_bust"
	case PlayerWin:
		return "player_win"
	case DealerWin:
		return "dealer_win"
	case Push:
		return "push"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// payout is what goes back to the balance for a settled bet.
func (o Outcome) payout(bet int) int {
	switch o {
	case DealerBust, PlayerWin:
		return bet * 2
	case Push, Aborted:
		return bet
	default:
		return 0
	}
}
