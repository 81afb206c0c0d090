package models

import "time"

// TournamentStatus mirrors the tournament_status enum in the database.
type TournamentStatus string

const (
	StatusSetup        TournamentStatus = "setup"
	StatusRegistration TournamentStatus = "registration"
	StatusSeeding      TournamentStatus = "seeding"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
)

// tournamentStatusOrder is the only path a tournament may take.
var tournamentStatusOrder = []TournamentStatus{
	StatusSetup,
	StatusRegistration,
	StatusSeeding,
	StatusActive,
	StatusCompleted,
}

func (s TournamentStatus) IsValid() bool {
	return s.position() >= 0
}

func (s TournamentStatus) position() int {
	for i, st := range tournamentStatusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether next is the immediate successor of s.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	cur, nxt := s.position(), next.position()
	if cur < 0 || nxt < 0 {
		return false
	}
	return nxt == cur+1
}

type TournamentFormat string

const (
	FormatElimination       TournamentFormat = "elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
	FormatRoundRobin        TournamentFormat = "round_robin"
	FormatSwiss             TournamentFormat = "swiss"
)

func (f TournamentFormat) IsValid() bool {
	switch f {
	case FormatElimination, FormatDoubleElimination, FormatRoundRobin, FormatSwiss:
		return true
	}
	return false
}

// AllowsDraws is false for knockout formats: an equal score cannot decide who advances.
func (f TournamentFormat) AllowsDraws() bool {
	return f == FormatRoundRobin || f == FormatSwiss
}

// UsesStandings is true for league-style formats that keep a points table.
func (f TournamentFormat) UsesStandings() bool {
	return f == FormatRoundRobin || f == FormatSwiss
}

type SeedingMethod string

const (
	SeedingRandom      SeedingMethod = "random"
	SeedingPerformance SeedingMethod = "performance"
	SeedingRegional    SeedingMethod = "regional"
	SeedingManual      SeedingMethod = "manual"
)

func (m SeedingMethod) IsValid() bool {
	switch m {
	case SeedingRandom, SeedingPerformance, SeedingRegional, SeedingManual:
		return true
	}
	return false
}

const (
	DefaultPointsPerWin  = 3
	DefaultPointsPerDraw = 1
	DefaultPointsPerLoss = 0
)

// PointSystem is the league points awarded per result.
type PointSystem struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
}

func DefaultPointSystem() PointSystem {
	return PointSystem{Win: DefaultPointsPerWin, Draw: DefaultPointsPerDraw, Loss: DefaultPointsPerLoss}
}

// Tournament is the aggregate root for brackets, seedings and results.
type Tournament struct {
	ID                 int              `json:"id" db:"id"`
	Name               string           `json:"name" db:"name"`
	Format             TournamentFormat `json:"format" db:"format"`
	CategoryID         int              `json:"category_id" db:"category_id"`
	VenueID            *int             `json:"venue_id,omitempty" db:"venue_id"`
	MaxTeams           int              `json:"max_teams" db:"max_teams"`
	CurrentTeams       int              `json:"current_teams" db:"current_teams"`
	RoundsTotal        int              `json:"rounds_total" db:"rounds_total"`
	CurrentRound       int              `json:"current_round" db:"current_round"`
	SeedingMethod      SeedingMethod    `json:"seeding_method" db:"seeding_method"`
	Status             TournamentStatus `json:"status" db:"status"`
	QualificationCount int              `json:"qualification_count" db:"qualification_count"`
	PointsPerWin       int              `json:"points_per_win" db:"points_per_win"`
	PointsPerDraw      int              `json:"points_per_draw" db:"points_per_draw"`
	PointsPerLoss      int              `json:"points_per_loss" db:"points_per_loss"`
	ThirdPlaceMatch    bool             `json:"third_place_match" db:"third_place_match"`
	RoundRobinLegs     int              `json:"round_robin_legs" db:"round_robin_legs"`
	WinnerTeamID       *int             `json:"winner_team_id,omitempty" db:"winner_team_id"`
	SecondTeamID       *int             `json:"second_team_id,omitempty" db:"second_team_id"`
	ThirdTeamID        *int             `json:"third_team_id,omitempty" db:"third_team_id"`
	CreatedBy          *int             `json:"created_by,omitempty" db:"created_by"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt          *time.Time       `json:"-" db:"deleted_at"`
}

func (t *Tournament) PointSystem() PointSystem {
	return PointSystem{Win: t.PointsPerWin, Draw: t.PointsPerDraw, Loss: t.PointsPerLoss}
}

// Legs returns the number of times each pair meets in a round robin (1 or 2).
func (t *Tournament) Legs() int {
	if t.RoundRobinLegs == 2 {
		return 2
	}
	return 1
}
