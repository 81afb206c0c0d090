package models

import "time"

type BracketType string

const (
	BracketWinners     BracketType = "winners"
	BracketLosers      BracketType = "losers"
	BracketConsolation BracketType = "consolation"
)

type BracketStatus string

const (
	BracketStatusPending   BracketStatus = "pending"
	BracketStatusActive    BracketStatus = "active"
	BracketStatusCompleted BracketStatus = "completed"
)

// Bracket is one round of a tournament; it owns the matches of that round.
type Bracket struct {
	ID             int           `json:"id" db:"id"`
	TournamentID   int           `json:"tournament_id" db:"tournament_id"`
	RoundNumber    int           `json:"round_number" db:"round_number"`
	RoundName      string        `json:"round_name" db:"round_name"`
	BracketType    BracketType   `json:"bracket_type" db:"bracket_type"`
	MatchesInRound int           `json:"matches_in_round" db:"matches_in_round"`
	Status         BracketStatus `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}

// StatusFor derives the bracket status from its matches.
func StatusFor(matches []Match) BracketStatus {
	if len(matches) == 0 {
		return BracketStatusPending
	}
	terminal, started := 0, 0
	for _, m := range matches {
		if m.Status.IsTerminal() {
			terminal++
		}
		if m.Status != MatchStatusPending {
			started++
		}
	}
	switch {
	case terminal == len(matches):
		return BracketStatusCompleted
	case started > 0:
		return BracketStatusActive
	}
	return BracketStatusPending
}
