package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusReady      MatchStatus = "ready"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusForfeit    MatchStatus = "forfeit"
	MatchStatusBye        MatchStatus = "bye"
)

// IsTerminal reports whether the match can no longer change result.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusForfeit || s == MatchStatusBye
}

const (
	Slot1 = 1
	Slot2 = 2
)

// Match is a single contest inside a bracket round.
type Match struct {
	ID                   int         `json:"id" db:"id"`
	TournamentID         int         `json:"tournament_id" db:"tournament_id"`
	BracketID            int         `json:"bracket_id" db:"bracket_id"`
	MatchNumber          int         `json:"match_number" db:"match_number"`
	Team1ID              *int        `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID              *int        `json:"team2_id,omitempty" db:"team2_id"`
	Team1SeedID          *int        `json:"team1_seed_id,omitempty" db:"team1_seed_id"`
	Team2SeedID          *int        `json:"team2_seed_id,omitempty" db:"team2_seed_id"`
	Team1Score           *int        `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score           *int        `json:"team2_score,omitempty" db:"team2_score"`
	WinnerTeamID         *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	LoserTeamID          *int        `json:"loser_team_id,omitempty" db:"loser_team_id"`
	NextMatchID          *int        `json:"next_match_id,omitempty" db:"next_match_id"`
	NextMatchSlot        *int        `json:"next_match_slot,omitempty" db:"next_match_slot"`
	ConsolationMatchID   *int        `json:"consolation_match_id,omitempty" db:"consolation_match_id"`
	ConsolationMatchSlot *int        `json:"consolation_match_slot,omitempty" db:"consolation_match_slot"`
	ExpectedEntrants     int         `json:"expected_entrants" db:"expected_entrants"`
	VenueID              *int        `json:"venue_id,omitempty" db:"venue_id"`
	TableNumber          *string     `json:"table_number,omitempty" db:"table_number"`
	ScheduledAt          *time.Time  `json:"scheduled_at,omitempty" db:"scheduled_at"`
	StartedAt            *time.Time  `json:"started_at,omitempty" db:"started_at"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	Status               MatchStatus `json:"status" db:"status"`
	ForfeitReason        *string     `json:"forfeit_reason,omitempty" db:"forfeit_reason"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
}

// IsReady is true when both team slots are populated.
func (m *Match) IsReady() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

func (m *Match) IsDraw() bool {
	return m.Status == MatchStatusCompleted && m.WinnerTeamID == nil && m.Team1Score != nil && m.Team2Score != nil
}

// FilledSlots counts populated team slots.
func (m *Match) FilledSlots() int {
	n := 0
	if m.Team1ID != nil {
		n++
	}
	if m.Team2ID != nil {
		n++
	}
	return n
}

// TeamInSlot returns the team id placed in slot 1 or 2.
func (m *Match) TeamInSlot(slot int) *int {
	if slot == Slot1 {
		return m.Team1ID
	}
	return m.Team2ID
}

// HasTeam reports whether teamID occupies either slot.
func (m *Match) HasTeam(teamID int) bool {
	return (m.Team1ID != nil && *m.Team1ID == teamID) || (m.Team2ID != nil && *m.Team2ID == teamID)
}

// Opponent returns the other team of teamID, or nil when it is not known.
func (m *Match) Opponent(teamID int) *int {
	if m.Team1ID != nil && *m.Team1ID == teamID {
		return m.Team2ID
	}
	if m.Team2ID != nil && *m.Team2ID == teamID {
		return m.Team1ID
	}
	return nil
}

// MatchResult is the outcome from one team's point of view.
type MatchResult string

const (
	ResultWin  MatchResult = "win"
	ResultDraw MatchResult = "draw"
	ResultLoss MatchResult = "loss"
)

func (r MatchResult) IsValid() bool {
	return r == ResultWin || r == ResultDraw || r == ResultLoss
}

// Inverse is the same result seen from the opponent.
func (r MatchResult) Inverse() MatchResult {
	switch r {
	case ResultWin:
		return ResultLoss
	case ResultLoss:
		return ResultWin
	}
	return ResultDraw
}

// ResultFromScores derives the outcome for the side scoring pointsFor.
func ResultFromScores(pointsFor, pointsAgainst int) MatchResult {
	switch {
	case pointsFor > pointsAgainst:
		return ResultWin
	case pointsFor < pointsAgainst:
		return ResultLoss
	}
	return ResultDraw
}
