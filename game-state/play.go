package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emanna1/blackjack-game/internal/deck"
	"github.com/emanna1/blackjack-game/internal/round"
)

const playHelp = `commands: bet <amount> | hit | stand | double | suggest | stats | help | quit`

// runPlay is a line-oriented presentation layer over one controller. It
// returns nil on quit or end of input, and an error only when a round had
// to be aborted.
func runPlay(in io.Reader, out io.Writer, game *round.Controller) error {
	sc := bufio.NewScanner(in)
	fmt.Fprintf(out, "Balance: $%d\n%s\n> ", game.Balance(), playHelp)

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			fmt.Fprint(out, "> ")
			continue
		}

		var (
			snap round.Snapshot
			err  error
		)
		switch cmd := strings.ToLower(fields[0]); cmd {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, playHelp)
			fmt.Fprint(out, "> ")
			continue
		case "stats":
			fmt.Fprintln(out, game.Stats())
			fmt.Fprint(out, "> ")
			continue
		case "suggest":
			if a, serr := game.Suggestion(); serr == nil {
				fmt.Fprintf(out, "Suggested move: %s\n", a)
			} else {
				fmt.Fprintln(out, suggestionUnavailable)
			}
			fmt.Fprint(out, "> ")
			continue
		case "bet":
			arg := ""
			if len(fields) > 1 {
				arg = fields[1]
			}
			var amount int
			if amount, err = round.ParseBet(arg); err == nil {
				snap, err = game.PlaceBet(amount)
			}
		case "hit":
			snap, err = game.Hit()
		case "stand":
			snap, err = game.Stand()
		case "double":
			snap, err = game.DoubleDown()
		default:
			fmt.Fprintf(out, "unknown command %q\n%s\n> ", cmd, playHelp)
			continue
		}

		switch {
		case errors.Is(err, round.ErrInvalidBet):
			fmt.Fprintln(out, "Invalid Bet: Please enter a valid bet amount.")
		case errors.Is(err, round.ErrIllegalAction):
			fmt.Fprintln(out, "That move is not available right now.")
		case errors.Is(err, deck.ErrEmptyDeck):
			printTable(out, snap)
			return err
		case err != nil:
			return err
		default:
			printTable(out, snap)
		}

		if game.State() == round.Resolved {
			game.Reset()
			fmt.Fprintf(out, "Balance: $%d\n", game.Balance())
		}
		fmt.Fprint(out, "> ")
	}
	return sc.Err()
}

func printTable(out io.Writer, snap round.Snapshot) {
	fmt.Fprintf(out, "Dealer: %s (Score: %d)\n", handString(snap.DealerHand), snap.DealerScore)
	fmt.Fprintf(out, "Player: %s (Score: %d)\n", handString(snap.PlayerHand), snap.PlayerScore)
	if snap.ResultText != "" {
		fmt.Fprintln(out, snap.ResultText)
	}
}

func handString(cards []deck.Card) string {
	parts := make([]string, 0, len(cards))
	for _, c := range displayHand(cards) {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}
