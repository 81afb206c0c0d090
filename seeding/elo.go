package seeding

import (
	"math"

	"github.com/Dosada05/robotics-tournament-core/models"
)

// EloK is the K-factor used for post-match rating changes.
const EloK = 32.0

// EloChange returns the rating change for a side with rating own facing
// opponent, given its result. Draws score 0.5.
func EloChange(own, opponent float64, result models.MatchResult) float64 {
	expected := 1.0 / (1.0 + math.Pow(10, (opponent-own)/400))
	var actual float64
	switch result {
	case models.ResultWin:
		actual = 1.0
	case models.ResultDraw:
		actual = 0.5
	}
	return math.Round(EloK * (actual - expected))
}

// ApplyResult updates a seeding's running stats after a match.
func ApplyResult(s *models.Seeding, opponentElo float64, pointsFor, pointsAgainst int, result models.MatchResult) {
	s.EloRating += EloChange(s.EloRating, opponentElo, result)
	s.MatchesPlayed++
	switch result {
	case models.ResultWin:
		s.MatchesWon++
	case models.ResultLoss:
		s.MatchesLost++
	}
	s.PointsFor += pointsFor
	s.PointsAgainst += pointsAgainst
}
