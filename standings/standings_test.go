package standings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/models"
)

func row(teamID int) *models.Standing {
	return &models.Standing{TeamID: teamID, HeadToHead: models.HeadToHead{}}
}

func rankOf(s *models.Standing) int {
	if s.Ranking == nil {
		return 0
	}
	return *s.Ranking
}

func TestRecordPairPointLaw(t *testing.T) {
	pts := models.DefaultPointSystem()
	a, b, c := row(1), row(2), row(3)
	results := []struct {
		home, away *models.Standing
		hs, as     int
	}{
		{a, b, 5, 2}, {b, c, 3, 3}, {c, a, 0, 4}, {a, b, 1, 1}, {b, c, 2, 7}, {c, a, 6, 1},
	}
	for _, r := range results {
		require.NoError(t, RecordPair(r.home, r.away, r.hs, r.as, pts, nil))
	}
	for _, s := range []*models.Standing{a, b, c} {
		assert.Equal(t, s.MatchesPlayed, s.Wins+s.Draws+s.Losses, "team %d", s.TeamID)
		assert.Equal(t, 3*s.Wins+s.Draws, s.LeaguePoints, "team %d", s.TeamID)
		assert.NoError(t, s.HeadToHead.Validate())
	}
	assert.Equal(t, 4, a.MatchesPlayed)
	// a and b met twice: 5-2 and 1-1 aggregate to 6-3
	assert.Equal(t, models.HeadToHeadEntry{Result: models.ResultWin, PointsFor: 6, PointsAgainst: 3}, a.HeadToHead[2])
}

func TestRecordMatchCustomPointSystem(t *testing.T) {
	s := row(1)
	pts := models.PointSystem{Win: 2, Draw: 1, Loss: 0}
	require.NoError(t, RecordMatch(s, 2, 3, 1, models.ResultWin, pts, nil))
	require.NoError(t, RecordMatch(s, 3, 1, 1, models.ResultDraw, pts, nil))
	assert.Equal(t, 3, s.LeaguePoints)
}

func TestRecordMatchRejectsInconsistentInput(t *testing.T) {
	pts := models.DefaultPointSystem()
	s := row(1)
	assert.ErrorIs(t, RecordMatch(s, 2, 1, 3, models.ResultWin, pts, nil), ErrInvalidResult)
	assert.ErrorIs(t, RecordMatch(s, 2, -1, 0, models.ResultLoss, pts, nil), ErrInvalidResult)
	assert.ErrorIs(t, RecordMatch(s, 1, 1, 0, models.ResultWin, pts, nil), ErrInvalidResult)
	assert.ErrorIs(t, RecordMatch(s, 2, 1, 0, models.MatchResult("walkover"), pts, nil), ErrInvalidResult)
	assert.Zero(t, s.MatchesPlayed)
}

func TestThreeTeamRoundRobinTable(t *testing.T) {
	pts := models.DefaultPointSystem()
	x, y, z := row(1), row(2), row(3)
	require.NoError(t, RecordPair(x, y, 3, 1, pts, nil))
	require.NoError(t, RecordPair(y, z, 2, 2, pts, nil))
	require.NoError(t, RecordPair(z, x, 1, 0, pts, nil))

	assert.Equal(t, []int{1, 0, 1, 3}, []int{x.Wins, x.Draws, x.Losses, x.LeaguePoints})
	assert.Equal(t, []int{0, 1, 1, 1}, []int{y.Wins, y.Draws, y.Losses, y.LeaguePoints})
	// z beat x and drew with y
	assert.Equal(t, []int{1, 1, 0, 4}, []int{z.Wins, z.Draws, z.Losses, z.LeaguePoints})

	rows := []*models.Standing{x, y, z}
	Rank(rows, pts, 2)
	assert.Equal(t, []int{3, 1, 2}, []int{rows[0].TeamID, rows[1].TeamID, rows[2].TeamID})
	assert.Equal(t, 1, rankOf(z))
	assert.Equal(t, 2, rankOf(x))
	assert.Equal(t, 3, rankOf(y))
	assert.True(t, z.Qualified)
	assert.True(t, x.Qualified)
	assert.False(t, y.Qualified)
	for _, s := range rows {
		assert.False(t, s.IsTied)
	}
}

func TestRankTieBreakOrder(t *testing.T) {
	a := &models.Standing{TeamID: 1, LeaguePoints: 6, PointsFor: 10, PointsAgainst: 8}
	b := &models.Standing{TeamID: 2, LeaguePoints: 6, PointsFor: 9, PointsAgainst: 5}
	c := &models.Standing{TeamID: 3, LeaguePoints: 6, PointsFor: 12, PointsAgainst: 8}
	d := &models.Standing{TeamID: 4, LeaguePoints: 7}
	rows := []*models.Standing{a, b, c, d}
	Rank(rows, models.DefaultPointSystem(), 0)

	// d on points; b and c level on differential, c ahead on points for
	assert.Equal(t, []int{4, 3, 2, 1}, []int{rows[0].TeamID, rows[1].TeamID, rows[2].TeamID, rows[3].TeamID})
	assert.Equal(t, []int{1, 2, 3, 4}, []int{rankOf(d), rankOf(c), rankOf(b), rankOf(a)})
	for _, s := range rows {
		assert.False(t, s.Qualified)
	}
}

func TestRankHeadToHeadBreaksTableTie(t *testing.T) {
	a := &models.Standing{TeamID: 1, LeaguePoints: 3, PointsFor: 5, PointsAgainst: 5,
		HeadToHead: models.HeadToHead{2: {Result: models.ResultLoss, PointsFor: 0, PointsAgainst: 1}}}
	b := &models.Standing{TeamID: 2, LeaguePoints: 3, PointsFor: 5, PointsAgainst: 5,
		HeadToHead: models.HeadToHead{1: {Result: models.ResultWin, PointsFor: 1, PointsAgainst: 0}}}
	rows := []*models.Standing{a, b}
	Rank(rows, models.DefaultPointSystem(), 1)

	assert.Equal(t, 2, rows[0].TeamID)
	assert.Equal(t, 1, rankOf(b))
	assert.Equal(t, 2, rankOf(a))
	assert.False(t, a.IsTied)
	assert.False(t, b.IsTied)
	assert.True(t, b.Qualified)
	assert.False(t, a.Qualified)
}

func TestRankCircularHeadToHeadStaysTied(t *testing.T) {
	pts := models.DefaultPointSystem()
	a, b, c := row(1), row(2), row(3)
	require.NoError(t, RecordPair(a, b, 2, 1, pts, nil))
	require.NoError(t, RecordPair(b, c, 2, 1, pts, nil))
	require.NoError(t, RecordPair(c, a, 2, 1, pts, nil))

	rows := []*models.Standing{c, b, a}
	Rank(rows, pts, 1)
	for _, s := range rows {
		assert.Equal(t, 1, rankOf(s))
		assert.True(t, s.IsTied)
		assert.True(t, s.Qualified, "ties at the cutoff all qualify")
	}
	// display order among tied teams is by team id
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].TeamID, rows[1].TeamID, rows[2].TeamID})
}

func TestRankWithoutHeadToHeadStaysTied(t *testing.T) {
	a := &models.Standing{TeamID: 1, LeaguePoints: 6}
	b := &models.Standing{TeamID: 2, LeaguePoints: 3}
	c := &models.Standing{TeamID: 3, LeaguePoints: 3}
	rows := []*models.Standing{c, b, a}
	Rank(rows, models.DefaultPointSystem(), 2)

	assert.Equal(t, 1, rankOf(a))
	assert.Equal(t, 2, rankOf(b))
	assert.Equal(t, 2, rankOf(c))
	assert.False(t, a.IsTied)
	assert.True(t, b.IsTied)
	assert.True(t, c.IsTied)
	assert.True(t, b.Qualified)
	assert.True(t, c.Qualified)
}

func TestRecordByeAndForfeit(t *testing.T) {
	pts := models.DefaultPointSystem()
	a, b := row(1), row(2)
	RecordBye(a, pts)
	assert.Equal(t, 1, a.Wins)
	assert.Equal(t, 3, a.LeaguePoints)
	assert.Zero(t, a.PointsFor)
	assert.Empty(t, a.HeadToHead)

	RecordForfeit(a, b, pts, nil)
	assert.Equal(t, 2, a.Wins)
	assert.Equal(t, 1, b.Losses)
	assert.Equal(t, models.ResultWin, a.HeadToHead[2].Result)
	assert.Equal(t, models.ResultLoss, b.HeadToHead[1].Result)
	assert.NoError(t, a.HeadToHead.Validate())
	assert.NoError(t, b.HeadToHead.Validate())
}

func TestForfeitKeepsPlayedHeadToHeadScore(t *testing.T) {
	pts := models.DefaultPointSystem()
	a, b := row(1), row(2)
	require.NoError(t, RecordPair(a, b, 5, 0, pts, nil))
	RecordForfeit(b, a, pts, nil)

	assert.Equal(t, models.HeadToHeadEntry{Result: models.ResultWin, PointsFor: 0, PointsAgainst: 5, Forfeit: true}, b.HeadToHead[1])
	assert.Equal(t, models.HeadToHeadEntry{Result: models.ResultLoss, PointsFor: 5, PointsAgainst: 0, Forfeit: true}, a.HeadToHead[2])
	assert.Zero(t, b.PointsFor)
	assert.NoError(t, a.HeadToHead.Validate())
	assert.NoError(t, b.HeadToHead.Validate())

	bad := models.HeadToHead{1: {Result: models.ResultDraw, Forfeit: true}}
	assert.ErrorIs(t, bad.Validate(), models.ErrInvalidHeadToHead)
}
