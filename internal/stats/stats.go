// Package stats keeps the running win/loss counters for one session.
package stats

import "fmt"

// Session counts concluded rounds. The zero value is ready to use.
type Session struct {
	gamesPlayed int
	gamesWon    int
}

// Summary is a read-only view of the counters.
type Summary struct {
	GamesPlayed    int     `json:"gamesPlayed"`
	GamesWon       int     `json:"gamesWon"`
	WinRatePercent float64 `json:"winRatePercent"`
}

// RecordRound counts one concluded round; won is false for losses and pushes.
func (s *Session) RecordRound(won bool) {
	s.gamesPlayed++
	if won {
		s.gamesWon++
	}
}

// WinRate is gamesWon/gamesPlayed as a percentage, 0 before any round.
func (s *Session) WinRate() float64 {
	if s.gamesPlayed == 0 {
		return 0
	}
	return float64(s.gamesWon) / float64(s.gamesPlayed) * 100
}

func (s *Session) Summary() Summary {
	return Summary{
		GamesPlayed:    s.gamesPlayed,
		GamesWon:       s.gamesWon,
		WinRatePercent: s.WinRate(),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("Games Played: %d\nGames Won: %d\nWin Rate: %.2f%%",
		s.GamesPlayed, s.GamesWon, s.WinRatePercent)
}
