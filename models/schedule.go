package models

import "time"

// ScheduleEntry is one round-robin fixture. All entries are generated up front.
type ScheduleEntry struct {
	ID            int        `json:"id" db:"id"`
	TournamentID  int        `json:"tournament_id" db:"tournament_id"`
	RoundNumber   int        `json:"round_number" db:"round_number"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty" db:"scheduled_date"`
	TimeSlot      *string    `json:"time_slot,omitempty" db:"time_slot"`
	Team1ID       int        `json:"team1_id" db:"team1_id"`
	Team2ID       int        `json:"team2_id" db:"team2_id"`
	VenueID       *int       `json:"venue_id,omitempty" db:"venue_id"`
	MatchID       *int       `json:"match_id,omitempty" db:"match_id"`
	IsPlayed      bool       `json:"is_played" db:"is_played"`
}
