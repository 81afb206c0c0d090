package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/brackets"
	"github.com/Dosada05/robotics-tournament-core/models"
)

const (
	teamX = 201
	teamY = 202
	teamZ = 203
)

func standingOf(t *testing.T, rows []*models.Standing, teamID int) *models.Standing {
	t.Helper()
	for _, r := range rows {
		if r.TeamID == teamID {
			return r
		}
	}
	t.Fatalf("no standing for team %d", teamID)
	return nil
}

func TestRoundRobinThreeTeams(t *testing.T) {
	env := newTestEnv(t)
	tour := env.start(t, TournamentInput{Format: models.FormatRoundRobin}, teamX, teamY, teamZ)
	assert.Equal(t, 3, tour.RoundsTotal)

	schedule, err := env.standings.ListSchedule(env.ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, schedule, 3)
	for _, e := range schedule {
		assert.False(t, e.IsPlayed)
		require.NotNil(t, e.MatchID)
	}

	env.play(t, tour.ID, teamX, teamY, 3, 1)
	env.play(t, tour.ID, teamY, teamZ, 2, 2)
	env.play(t, tour.ID, teamZ, teamX, 1, 0)

	rows, err := env.standings.ListStandings(env.ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	x, y, z := standingOf(t, rows, teamX), standingOf(t, rows, teamY), standingOf(t, rows, teamZ)
	assert.Equal(t, [4]int{2, 1, 0, 1}, [4]int{x.MatchesPlayed, x.Wins, x.Draws, x.Losses})
	assert.Equal(t, 3, x.LeaguePoints)
	assert.Equal(t, [4]int{2, 0, 1, 1}, [4]int{y.MatchesPlayed, y.Wins, y.Draws, y.Losses})
	assert.Equal(t, 1, y.LeaguePoints)
	assert.Equal(t, [4]int{2, 1, 1, 0}, [4]int{z.MatchesPlayed, z.Wins, z.Draws, z.Losses})
	assert.Equal(t, 4, z.LeaguePoints)
	for _, r := range rows {
		assert.Equal(t, 3*r.Wins+r.Draws, r.LeaguePoints)
		assert.False(t, r.IsTied)
	}
	assert.Equal(t, []int{teamZ, teamX, teamY}, []int{rows[0].TeamID, rows[1].TeamID, rows[2].TeamID})
	assert.Equal(t, models.ResultDraw, y.HeadToHead[teamZ].Result)
	assert.Equal(t, models.ResultWin, x.HeadToHead[teamY].Result)

	schedule, err = env.standings.ListSchedule(env.ctx, tour.ID)
	require.NoError(t, err)
	for _, e := range schedule {
		assert.True(t, e.IsPlayed)
	}

	tour = env.tournament(t, tour.ID)
	assert.Equal(t, models.StatusCompleted, tour.Status)
	results, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: teamZ, 2: teamX, 3: teamY}, placementsOf(results))
	require.NotNil(t, results[0].Score)
	assert.Equal(t, 4.0, *results[0].Score)
	assert.Contains(t, env.notifier.types(), brackets.EventStandingsUpdated)
}

func TestRoundRobinTieNeedsTieOrder(t *testing.T) {
	env := newTestEnv(t)
	tour := env.start(t, TournamentInput{Format: models.FormatRoundRobin}, teamX, teamY, teamZ)

	env.play(t, tour.ID, teamX, teamY, 1, 1)
	env.play(t, tour.ID, teamY, teamZ, 1, 1)
	env.play(t, tour.ID, teamZ, teamX, 1, 1)

	rows, err := env.standings.ListStandings(env.ctx, tour.ID)
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.IsTied)
		assert.Equal(t, 1, *r.Ranking)
	}

	assert.Equal(t, models.StatusCompleted, env.tournament(t, tour.ID).Status)
	results, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = env.results.GenerateResults(env.ctx, tour.ID, nil)
	require.ErrorIs(t, err, ErrUnresolvedTie)

	results, err = env.results.GenerateResults(env.ctx, tour.ID, []int{teamY, teamZ, teamX})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: teamY, 2: teamZ, 3: teamX}, placementsOf(results))
	assert.Equal(t, teamY, *env.tournament(t, tour.ID).WinnerTeamID)

	again, err := env.results.GenerateResults(env.ctx, tour.ID, []int{teamX, teamY, teamZ})
	require.NoError(t, err)
	assert.Equal(t, placementsOf(results), placementsOf(again))
}

func TestRoundRobinForfeit(t *testing.T) {
	env := newTestEnv(t)
	tour := env.start(t, TournamentInput{Format: models.FormatRoundRobin}, teamX, teamY)

	m := env.findMatch(t, tour.ID, teamX, teamY)
	_, err := env.matches.ForfeitMatch(env.ctx, m.ID, teamY, "no show")
	require.NoError(t, err)

	rows, err := env.standings.ListStandings(env.ctx, tour.ID)
	require.NoError(t, err)
	x, y := standingOf(t, rows, teamX), standingOf(t, rows, teamY)
	assert.Equal(t, 1, x.Wins)
	assert.Equal(t, 3, x.LeaguePoints)
	assert.Equal(t, 1, y.Losses)
	assert.Equal(t, 0, y.PointsFor)
	assert.Equal(t, models.ResultLoss, y.HeadToHead[teamX].Result)
	assert.Equal(t, models.StatusCompleted, env.tournament(t, tour.ID).Status)
}

func TestStandingsRejectedForKnockout(t *testing.T) {
	env := newTestEnv(t)
	tour := env.start(t, TournamentInput{Format: models.FormatElimination}, teamA, teamB)
	_, err := env.standings.ListStandings(env.ctx, tour.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestDoubleEliminationWithoutReset(t *testing.T) {
	env := newTestEnv(t)
	tour := env.start(t, TournamentInput{Format: models.FormatDoubleElimination}, teamA, teamB, teamC, teamD)
	assert.Equal(t, 4, tour.RoundsTotal)

	env.play(t, tour.ID, teamA, teamD, 5, 1)
	env.play(t, tour.ID, teamB, teamC, 5, 2)
	env.play(t, tour.ID, teamA, teamB, 3, 2)
	env.play(t, tour.ID, teamC, teamD, 4, 0)

	losersFinal := env.matchInRound(t, tour.ID, brackets.LosersFinalRoundName)
	assert.True(t, losersFinal.HasTeam(teamB))
	assert.True(t, losersFinal.HasTeam(teamC))
	env.playMatch(t, losersFinal, teamC, 6, 5)

	gf := env.matchInRound(t, tour.ID, brackets.GrandFinalRoundName)
	assert.Equal(t, teamA, *gf.Team1ID)
	assert.Equal(t, teamC, *gf.Team2ID)
	_, err := env.matches.StartMatch(env.ctx, gf.ID)
	require.NoError(t, err)
	_, err = env.matches.CompleteMatch(env.ctx, gf.ID, scores(9, 4))
	require.NoError(t, err)

	reset := env.matchInRound(t, tour.ID, brackets.GrandFinalResetRoundName)
	assert.Equal(t, models.MatchStatusBye, reset.Status)
	assert.Equal(t, teamA, *reset.WinnerTeamID)

	tour = env.tournament(t, tour.ID)
	assert.Equal(t, models.StatusCompleted, tour.Status)
	results, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: teamA, 2: teamC, 3: teamB}, placementsOf(results))
}

func TestDoubleEliminationWithReset(t *testing.T) {
	env := newTestEnv(t)
	tour := env.start(t, TournamentInput{Format: models.FormatDoubleElimination}, teamA, teamB, teamC, teamD)

	env.play(t, tour.ID, teamA, teamD, 5, 1)
	env.play(t, tour.ID, teamB, teamC, 5, 2)
	env.play(t, tour.ID, teamA, teamB, 3, 2)
	env.play(t, tour.ID, teamC, teamD, 4, 0)
	env.playMatch(t, env.matchInRound(t, tour.ID, brackets.LosersFinalRoundName), teamC, 6, 5)

	gf := env.matchInRound(t, tour.ID, brackets.GrandFinalRoundName)
	_, err := env.matches.StartMatch(env.ctx, gf.ID)
	require.NoError(t, err)
	_, err = env.matches.CompleteMatch(env.ctx, gf.ID, scores(2, 7))
	require.NoError(t, err)

	reset := env.matchInRound(t, tour.ID, brackets.GrandFinalResetRoundName)
	assert.Equal(t, models.MatchStatusReady, reset.Status)
	assert.Equal(t, teamC, *reset.Team1ID)
	assert.Equal(t, teamA, *reset.Team2ID)
	assert.Equal(t, models.StatusActive, env.tournament(t, tour.ID).Status)

	_, err = env.matches.StartMatch(env.ctx, reset.ID)
	require.NoError(t, err)
	_, err = env.matches.CompleteMatch(env.ctx, reset.ID, scores(3, 8))
	require.NoError(t, err)

	results, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: teamA, 2: teamC, 3: teamB}, placementsOf(results))
}

func TestSwissRounds(t *testing.T) {
	env := newTestEnv(t)
	tour := env.start(t, TournamentInput{Format: models.FormatSwiss}, teamA, teamB, teamC, teamD)
	assert.Equal(t, 2, tour.RoundsTotal)

	// round 1 pairs seed i with seed i+N/2
	env.findMatch(t, tour.ID, teamA, teamC)
	env.findMatch(t, tour.ID, teamB, teamD)

	_, err := env.brackets.GenerateNextSwissRound(env.ctx, tour.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	env.play(t, tour.ID, teamA, teamC, 3, 0)
	env.play(t, tour.ID, teamB, teamD, 2, 1)
	assert.Equal(t, models.StatusActive, env.tournament(t, tour.ID).Status)

	view, err := env.brackets.GenerateNextSwissRound(env.ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, view.Brackets, 2)
	assert.Equal(t, 2, view.Tournament.CurrentRound)

	// winners meet winners without rematches
	env.play(t, tour.ID, teamA, teamB, 4, 1)
	env.play(t, tour.ID, teamD, teamC, 2, 0)

	tour = env.tournament(t, tour.ID)
	assert.Equal(t, models.StatusCompleted, tour.Status)
	results, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)
	// B and D both have 3 points; D has the better differential
	assert.Equal(t, map[int]int{1: teamA, 2: teamD, 3: teamB, 4: teamC}, placementsOf(results))
	assert.Equal(t, models.MedalNone, results[3].MedalType)

	_, err = env.brackets.GenerateNextSwissRound(env.ctx, tour.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSwissByeScoresAsWin(t *testing.T) {
	env := newTestEnv(t)
	tour := env.start(t, TournamentInput{Format: models.FormatSwiss}, teamA, teamB, teamC)

	rows, err := env.standings.ListStandings(env.ctx, tour.ID)
	require.NoError(t, err)
	c := standingOf(t, rows, teamC)
	assert.Equal(t, 1, c.Wins)
	assert.Equal(t, 3, c.LeaguePoints)
	assert.Equal(t, 0, c.PointsFor)

	env.play(t, tour.ID, teamA, teamB, 2, 1)
	_, err = env.brackets.GenerateNextSwissRound(env.ctx, tour.ID)
	require.NoError(t, err)

	// C already sat out, so the bye moves to the lowest ranked team without one
	ms, err := env.matches.ListMatches(env.ctx, tour.ID)
	require.NoError(t, err)
	byes := make([]int, 0, 2)
	for _, m := range ms {
		if m.Status == models.MatchStatusBye {
			byes = append(byes, *m.WinnerTeamID)
		}
	}
	assert.Equal(t, []int{teamC, teamB}, byes)
}

func TestGenerateBracketPreconditions(t *testing.T) {
	env := newTestEnv(t)
	tour := env.setup(t, TournamentInput{Format: models.FormatElimination}, teamA, teamB)

	_, err := env.brackets.GenerateBracket(env.ctx, tour.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = env.seedings.SeedTournament(env.ctx, tour.ID, SeedOptions{})
	require.NoError(t, err)
	_, err = env.brackets.GenerateBracket(env.ctx, tour.ID)
	require.NoError(t, err)
	_, err = env.brackets.GenerateBracket(env.ctx, tour.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	assert.Contains(t, env.notifier.types(), brackets.EventBracketUpdated)
}
