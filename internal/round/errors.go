package round

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidBet is matched by every *InvalidBetError.
	ErrInvalidBet = errors.New("invalid bet")
	// ErrIllegalAction is matched by every *IllegalActionError.
	ErrIllegalAction = errors.New("illegal action")
	// ErrSuggestionUnavailable is returned outside the player's turn.
	ErrSuggestionUnavailable = errors.New("suggestion unavailable")
)

// InvalidBetError rejects a bet that is not positive or exceeds the balance.
type InvalidBetError struct {
	Amount  int
	Balance int
	Input   string

	unparsed bool
}

func (e *InvalidBetError) Error() string {
	if e.unparsed {
		return fmt.Sprintf("invalid bet %q: not a whole number", e.Input)
	}
	return fmt.Sprintf("invalid bet %d: must be between 1 and %d", e.Amount, e.Balance)
}

func (e *InvalidBetError) Is(target error) bool { return target == ErrInvalidBet }

// IllegalActionError rejects an action the current state does not allow.
// The controller is left exactly as it was.
type IllegalActionError struct {
	Action string
	State  State
	Reason string
}

func (e *IllegalActionError) Error() string {
	msg := fmt.Sprintf("illegal action %s in state %s", e.Action, e.State)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *IllegalActionError) Is(target error) bool { return target == ErrIllegalAction }

// ParseBet reads a bet typed by the player. Range checks happen in PlaceBet.
func ParseBet(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &InvalidBetError{Input: s, unparsed: true}
	}
	return n, nil
}
