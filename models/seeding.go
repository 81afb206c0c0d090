package models

import "time"

const DefaultEloRating = 1500.0

// Seeding is a team's seed within a tournament plus its running stats.
type Seeding struct {
	ID            int       `json:"id" db:"id"`
	TournamentID  int       `json:"tournament_id" db:"tournament_id"`
	TeamID        int       `json:"team_id" db:"team_id"`
	SeedNumber    int       `json:"seed_number" db:"seed_number"`
	SeedingScore  float64   `json:"seeding_score" db:"seeding_score"`
	EloRating     float64   `json:"elo_rating" db:"elo_rating"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	MatchesWon    int       `json:"matches_won" db:"matches_won"`
	MatchesLost   int       `json:"matches_lost" db:"matches_lost"`
	PointsFor     int       `json:"points_for" db:"points_for"`
	PointsAgainst int       `json:"points_against" db:"points_against"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (s *Seeding) PointDifferential() int {
	return s.PointsFor - s.PointsAgainst
}
