package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// HeadToHeadEntry is the latest result against a single opponent.
type HeadToHeadEntry struct {
	Result        MatchResult `json:"result"`
	PointsFor     int         `json:"points_for"`
	PointsAgainst int         `json:"points_against"`
	MatchID       *int        `json:"match_id,omitempty"`
	// Forfeit marks a pairing decided by forfeit; the score keeps only
	// points actually played.
	Forfeit bool `json:"forfeit,omitempty"`
}

// HeadToHead maps opponent team id to the result against that opponent.
// It is stored as a JSON object in the head_to_head column.
type HeadToHead map[int]HeadToHeadEntry

var ErrInvalidHeadToHead = errors.New("invalid head-to-head record")

func (h HeadToHead) Clone() HeadToHead {
	if h == nil {
		return nil
	}
	out := make(HeadToHead, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func (h HeadToHead) Validate() error {
	for opponent, e := range h {
		if opponent <= 0 {
			return fmt.Errorf("%w: opponent id %d", ErrInvalidHeadToHead, opponent)
		}
		if !e.Result.IsValid() {
			return fmt.Errorf("%w: result %q against %d", ErrInvalidHeadToHead, e.Result, opponent)
		}
		if e.PointsFor < 0 || e.PointsAgainst < 0 {
			return fmt.Errorf("%w: negative score against %d", ErrInvalidHeadToHead, opponent)
		}
		if e.Forfeit {
			if e.Result == ResultDraw {
				return fmt.Errorf("%w: forfeit against %d cannot be a draw", ErrInvalidHeadToHead, opponent)
			}
			continue
		}
		if ResultFromScores(e.PointsFor, e.PointsAgainst) != e.Result {
			return fmt.Errorf("%w: result %q does not match score %d-%d", ErrInvalidHeadToHead, e.Result, e.PointsFor, e.PointsAgainst)
		}
	}
	return nil
}

func (h HeadToHead) MarshalJSON() ([]byte, error) {
	raw := make(map[string]HeadToHeadEntry, len(h))
	for k, v := range h {
		raw[strconv.Itoa(k)] = v
	}
	return json.Marshal(raw)
}

func (h *HeadToHead) UnmarshalJSON(data []byte) error {
	var raw map[string]HeadToHeadEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeadToHead, err)
	}
	out := make(HeadToHead, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("%w: opponent key %q", ErrInvalidHeadToHead, k)
		}
		out[id] = v
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*h = out
	return nil
}

// Value implements driver.Valuer.
func (h HeadToHead) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h.MarshalJSON()
}

// Scan implements sql.Scanner.
func (h *HeadToHead) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*h = HeadToHead{}
		return nil
	case []byte:
		return h.UnmarshalJSON(v)
	case string:
		return h.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("%w: unsupported column type %T", ErrInvalidHeadToHead, src)
}

// Standing is a team's row in a round-robin or swiss table.
type Standing struct {
	ID            int        `json:"id" db:"id"`
	TournamentID  int        `json:"tournament_id" db:"tournament_id"`
	TeamID        int        `json:"team_id" db:"team_id"`
	MatchesPlayed int        `json:"matches_played" db:"matches_played"`
	Wins          int        `json:"wins" db:"wins"`
	Draws         int        `json:"draws" db:"draws"`
	Losses        int        `json:"losses" db:"losses"`
	PointsFor     int        `json:"points_for" db:"points_for"`
	PointsAgainst int        `json:"points_against" db:"points_against"`
	LeaguePoints  int        `json:"league_points" db:"league_points"`
	Ranking       *int       `json:"ranking,omitempty" db:"ranking"`
	IsTied        bool       `json:"is_tied" db:"is_tied"`
	Qualified     bool       `json:"qualified" db:"qualified"`
	HeadToHead    HeadToHead `json:"head_to_head" db:"head_to_head"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

func (s *Standing) PointDifferential() int {
	return s.PointsFor - s.PointsAgainst
}
