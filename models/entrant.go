package models

import "time"

// Entrant is a team registered for a tournament (tournament_teams row).
// Stats are a snapshot of the team profile taken at registration.
type Entrant struct {
	ID            int       `json:"id" db:"id"`
	TournamentID  int       `json:"tournament_id" db:"tournament_id"`
	TeamID        int       `json:"team_id" db:"team_id"`
	Region        string    `json:"region" db:"region"`
	EloRating     float64   `json:"elo_rating" db:"elo_rating"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	MatchesWon    int       `json:"matches_won" db:"matches_won"`
	MatchesLost   int       `json:"matches_lost" db:"matches_lost"`
	PointsFor     int       `json:"points_for" db:"points_for"`
	PointsAgainst int       `json:"points_against" db:"points_against"`
	ManualSeed    *int      `json:"manual_seed,omitempty" db:"manual_seed"`
	RegisteredAt  time.Time `json:"registered_at" db:"registered_at"`
}

func (e *Entrant) MatchesDrawn() int {
	d := e.MatchesPlayed - e.MatchesWon - e.MatchesLost
	if d < 0 {
		return 0
	}
	return d
}

func (e *Entrant) PointDifferential() int {
	return e.PointsFor - e.PointsAgainst
}

// TeamProfile is the read-only view of a team supplied by the team registry.
type TeamProfile struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	SchoolName    string  `json:"school_name"`
	Region        string  `json:"region"`
	EloRating     float64 `json:"elo_rating"`
	MatchesPlayed int     `json:"matches_played"`
	MatchesWon    int     `json:"matches_won"`
	MatchesLost   int     `json:"matches_lost"`
	PointsFor     int     `json:"points_for"`
	PointsAgainst int     `json:"points_against"`
}

// Category is a competition category (e.g. junior line-follower).
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}
