// Package standings keeps league tables for round-robin and swiss tournaments.
package standings

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var ErrInvalidResult = errors.New("invalid match result")

// RecordMatch applies one match to a single team's row. It does not detect
// duplicate application; callers guard with the fixture's is_played flag.
func RecordMatch(s *models.Standing, opponentID, pointsFor, pointsAgainst int, result models.MatchResult, points models.PointSystem, matchID *int) error {
	if !result.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}
	if pointsFor < 0 || pointsAgainst < 0 {
		return fmt.Errorf("%w: negative score %d-%d", ErrInvalidResult, pointsFor, pointsAgainst)
	}
	if models.ResultFromScores(pointsFor, pointsAgainst) != result {
		return fmt.Errorf("%w: %q does not match %d-%d", ErrInvalidResult, result, pointsFor, pointsAgainst)
	}
	if opponentID == s.TeamID || opponentID <= 0 {
		return fmt.Errorf("%w: opponent %d", ErrInvalidResult, opponentID)
	}

	s.MatchesPlayed++
	s.PointsFor += pointsFor
	s.PointsAgainst += pointsAgainst
	addResult(s, result, points)

	if s.HeadToHead == nil {
		s.HeadToHead = models.HeadToHead{}
	}
	// two-leg schedules meet twice; keep the aggregate
	h := s.HeadToHead[opponentID]
	h.PointsFor += pointsFor
	h.PointsAgainst += pointsAgainst
	h.Result = models.ResultFromScores(h.PointsFor, h.PointsAgainst)
	h.Forfeit = false
	h.MatchID = matchID
	s.HeadToHead[opponentID] = h
	s.UpdatedAt = time.Now()
	return nil
}

// RecordPair applies a played fixture to both teams.
func RecordPair(home, away *models.Standing, homeScore, awayScore int, points models.PointSystem, matchID *int) error {
	result := models.ResultFromScores(homeScore, awayScore)
	if err := RecordMatch(home, away.TeamID, homeScore, awayScore, result, points, matchID); err != nil {
		return err
	}
	return RecordMatch(away, home.TeamID, awayScore, homeScore, result.Inverse(), points, matchID)
}

// RecordBye scores a round sat out as a win with no points for or against.
func RecordBye(s *models.Standing, points models.PointSystem) {
	s.MatchesPlayed++
	addResult(s, models.ResultWin, points)
	s.UpdatedAt = time.Now()
}

// RecordForfeit scores a forfeited fixture: a win for the winner and a loss
// for the forfeiting team, with no points for or against.
func RecordForfeit(winner, forfeiter *models.Standing, points models.PointSystem, matchID *int) {
	winner.MatchesPlayed++
	forfeiter.MatchesPlayed++
	addResult(winner, models.ResultWin, points)
	addResult(forfeiter, models.ResultLoss, points)
	now := time.Now()
	for _, pair := range [][2]*models.Standing{{winner, forfeiter}, {forfeiter, winner}} {
		s, opp := pair[0], pair[1]
		if s.HeadToHead == nil {
			s.HeadToHead = models.HeadToHead{}
		}
		h := s.HeadToHead[opp.TeamID]
		// the forfeit decides the pairing; scores from earlier legs stay as played
		h.Result = models.ResultLoss
		if s == winner {
			h.Result = models.ResultWin
		}
		h.Forfeit = true
		h.MatchID = matchID
		s.HeadToHead[opp.TeamID] = h
		s.UpdatedAt = now
	}
}

func addResult(s *models.Standing, result models.MatchResult, points models.PointSystem) {
	switch result {
	case models.ResultWin:
		s.Wins++
		s.LeaguePoints += points.Win
	case models.ResultDraw:
		s.Draws++
		s.LeaguePoints += points.Draw
	case models.ResultLoss:
		s.Losses++
		s.LeaguePoints += points.Loss
	}
}

// compareTable orders by league points, point differential and points for.
// It returns 0 for teams the table cannot separate.
func compareTable(a, b *models.Standing) int {
	switch {
	case a.LeaguePoints != b.LeaguePoints:
		return cmpDesc(a.LeaguePoints, b.LeaguePoints)
	case a.PointDifferential() != b.PointDifferential():
		return cmpDesc(a.PointDifferential(), b.PointDifferential())
	case a.PointsFor != b.PointsFor:
		return cmpDesc(a.PointsFor, b.PointsFor)
	}
	return 0
}

func cmpDesc(a, b int) int {
	if a > b {
		return -1
	}
	return 1
}

// Rank sorts rows into final order and sets ranking, is_tied and qualified.
// Teams level on the table are separated by a head-to-head mini-league when
// every pair among them has met; teams still level share a ranking. The top
// qualify teams (by ranking, so ties at the cutoff all qualify) are flagged.
func Rank(rows []*models.Standing, points models.PointSystem, qualify int) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := compareTable(rows[i], rows[j]); c != 0 {
			return c < 0
		}
		return rows[i].TeamID < rows[j].TeamID
	})

	groups := make([][]*models.Standing, 0, len(rows))
	for i := 0; i < len(rows); {
		j := i + 1
		for j < len(rows) && compareTable(rows[i], rows[j]) == 0 {
			j++
		}
		group := rows[i:j]
		if len(group) > 1 {
			groups = append(groups, splitHeadToHead(group, points)...)
		} else {
			groups = append(groups, group)
		}
		i = j
	}

	ordered := make([]*models.Standing, 0, len(rows))
	for _, g := range groups {
		// a shared ranking is one plus the number of teams strictly ahead
		rank := len(ordered) + 1
		for _, s := range g {
			r := rank
			s.Ranking = &r
			s.IsTied = len(g) > 1
			s.Qualified = qualify > 0 && rank <= qualify
			ordered = append(ordered, s)
		}
	}
	copy(rows, ordered)
}

type miniRow struct {
	s      *models.Standing
	points int
	diff   int
}

// splitHeadToHead orders a table tie by results among the tied teams only.
// Without a complete set of meetings the group stays tied.
func splitHeadToHead(group []*models.Standing, points models.PointSystem) [][]*models.Standing {
	mini := make([]miniRow, len(group))
	for i, s := range group {
		mini[i].s = s
		for j, o := range group {
			if i == j {
				continue
			}
			h, ok := s.HeadToHead[o.TeamID]
			if !ok {
				return [][]*models.Standing{group}
			}
			switch h.Result {
			case models.ResultWin:
				mini[i].points += points.Win
			case models.ResultDraw:
				mini[i].points += points.Draw
			case models.ResultLoss:
				mini[i].points += points.Loss
			}
			mini[i].diff += h.PointsFor - h.PointsAgainst
		}
	}
	sort.SliceStable(mini, func(i, j int) bool {
		if mini[i].points != mini[j].points {
			return mini[i].points > mini[j].points
		}
		return mini[i].diff > mini[j].diff
	})

	out := make([][]*models.Standing, 0, len(mini))
	for i := 0; i < len(mini); {
		j := i + 1
		for j < len(mini) && mini[j].points == mini[i].points && mini[j].diff == mini[i].diff {
			j++
		}
		sub := make([]*models.Standing, 0, j-i)
		for _, m := range mini[i:j] {
			sub = append(sub, m.s)
		}
		out = append(out, sub)
		i = j
	}
	return out
}
