package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/models"
)

// makeSeeds returns n seedings; team ids are 1..n and seeding ids 101..100+n.
func makeSeeds(n int) []*models.Seeding {
	seeds := make([]*models.Seeding, n)
	for i := range seeds {
		seeds[i] = &models.Seeding{ID: 101 + i, TeamID: i + 1, SeedNumber: i + 1, EloRating: models.DefaultEloRating}
	}
	return seeds
}

func generate(t *testing.T, format models.TournamentFormat, tournament *models.Tournament, n int) *Plan {
	t.Helper()
	gen, err := NewGenerator(format)
	require.NoError(t, err)
	if tournament == nil {
		tournament = &models.Tournament{Format: format}
	}
	plan, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Tournament: tournament, Seeds: makeSeeds(n)})
	require.NoError(t, err)
	return plan
}

func byUID(plan *Plan) map[string]*BracketMatch {
	out := make(map[string]*BracketMatch, len(plan.Matches))
	for _, m := range plan.Matches {
		out[m.UID] = m
	}
	return out
}

func teamOf(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func TestStandardBracketSeeds(t *testing.T) {
	tests := []struct {
		size int
		want []int
	}{
		{size: 2, want: []int{1, 2}},
		{size: 4, want: []int{1, 4, 2, 3}},
		{size: 8, want: []int{1, 8, 4, 5, 2, 7, 3, 6}},
		{size: 16, want: []int{1, 16, 8, 9, 4, 13, 5, 12, 2, 15, 7, 10, 3, 14, 6, 11}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StandardBracketSeeds(tt.size), "size %d", tt.size)
	}
}

func TestRoundsFor(t *testing.T) {
	assert.Equal(t, 0, RoundsFor(1))
	assert.Equal(t, 1, RoundsFor(2))
	assert.Equal(t, 2, RoundsFor(3))
	assert.Equal(t, 2, RoundsFor(4))
	assert.Equal(t, 3, RoundsFor(5))
	assert.Equal(t, 4, RoundsFor(16))
}

func TestNewGeneratorRejectsUnknownFormat(t *testing.T) {
	_, err := NewGenerator(models.TournamentFormat("ladder"))
	assert.Error(t, err)
}

func TestGeneratorsRejectSingleTeam(t *testing.T) {
	for _, f := range []models.TournamentFormat{models.FormatElimination, models.FormatDoubleElimination, models.FormatRoundRobin, models.FormatSwiss} {
		gen, err := NewGenerator(f)
		require.NoError(t, err)
		_, err = gen.GenerateBracket(context.Background(), GenerateBracketParams{Tournament: &models.Tournament{Format: f}, Seeds: makeSeeds(1)})
		assert.ErrorIs(t, err, ErrNotEnoughParticipants, "format %s", f)
	}
}

func TestSingleEliminationFourTeams(t *testing.T) {
	plan := generate(t, models.FormatElimination, nil, 4)
	require.Equal(t, 2, plan.RoundsTotal)
	require.Len(t, plan.Matches, 3)
	m := byUID(plan)

	assert.Equal(t, 1, teamOf(m["W1M1"].Team1ID))
	assert.Equal(t, 4, teamOf(m["W1M1"].Team2ID))
	assert.Equal(t, 2, teamOf(m["W1M2"].Team1ID))
	assert.Equal(t, 3, teamOf(m["W1M2"].Team2ID))
	assert.Equal(t, models.MatchStatusReady, m["W1M1"].Status)
	assert.Equal(t, models.MatchStatusReady, m["W1M2"].Status)

	final := m["W2M1"]
	assert.Equal(t, models.MatchStatusPending, final.Status)
	assert.Equal(t, 2, final.ExpectedEntrants)
	assert.Equal(t, "W2M1", *m["W1M1"].NextMatchUID)
	assert.Equal(t, models.Slot1, m["W1M1"].NextSlot)
	assert.Equal(t, models.Slot2, m["W1M2"].NextSlot)
	assert.Nil(t, final.NextMatchUID)

	require.Len(t, plan.Rounds, 2)
	assert.Equal(t, "Semifinals", plan.Rounds[0].Name)
	assert.Equal(t, "Final", plan.Rounds[1].Name)
}

func TestSingleEliminationByesGoToTopSeeds(t *testing.T) {
	plan := generate(t, models.FormatElimination, nil, 5)
	require.Equal(t, 3, plan.RoundsTotal)
	m := byUID(plan)

	// order 1,8,4,5,2,7,3,6: seeds 1, 2 and 3 have no first-round opponent
	for _, uid := range []string{"W1M1", "W1M3", "W1M4"} {
		assert.Equal(t, models.MatchStatusBye, m[uid].Status, uid)
		require.NotNil(t, m[uid].WinnerTeamID, uid)
	}
	assert.Equal(t, 1, teamOf(m["W1M1"].WinnerTeamID))
	assert.Equal(t, models.MatchStatusReady, m["W1M2"].Status)

	// byes are propagated immediately; seeds 2 and 3 already meet in round 2
	assert.Equal(t, 1, teamOf(m["W2M1"].Team1ID))
	assert.Nil(t, m["W2M1"].Team2ID)
	assert.Equal(t, models.MatchStatusPending, m["W2M1"].Status)
	assert.Equal(t, 2, teamOf(m["W2M2"].Team1ID))
	assert.Equal(t, 3, teamOf(m["W2M2"].Team2ID))
	assert.Equal(t, models.MatchStatusReady, m["W2M2"].Status)
	assert.Equal(t, 102, teamOf(m["W2M2"].Team1SeedID))
}

func TestSingleEliminationByesNeverMeet(t *testing.T) {
	for n := 2; n <= 16; n++ {
		plan := generate(t, models.FormatElimination, nil, n)
		for _, bm := range plan.MatchesIn("W1") {
			assert.NotZero(t, bm.filled(), "n=%d %s has two byes", n, bm.UID)
		}
		assert.Len(t, plan.Matches, (1<<uint(plan.RoundsTotal))-1, "n=%d", n)
	}
}

func TestSingleEliminationThirdPlaceMatch(t *testing.T) {
	plan := generate(t, models.FormatElimination, &models.Tournament{Format: models.FormatElimination, ThirdPlaceMatch: true}, 4)
	require.Len(t, plan.Matches, 4)
	m := byUID(plan)

	tp := m["C1M1"]
	require.NotNil(t, tp)
	assert.Equal(t, 2, tp.ExpectedEntrants)
	assert.Equal(t, "C1M1", *m["W1M1"].ConsolationMatchUID)
	assert.Equal(t, models.Slot1, m["W1M1"].ConsolationSlot)
	assert.Equal(t, models.Slot2, m["W1M2"].ConsolationSlot)

	var third *BracketRound
	for _, r := range plan.Rounds {
		if r.Key == "C1" {
			third = r
		}
	}
	require.NotNil(t, third)
	assert.Equal(t, models.BracketConsolation, third.Type)
	assert.Equal(t, plan.RoundsTotal, third.RoundNumber)
}

func TestDoubleEliminationFourTeams(t *testing.T) {
	plan := generate(t, models.FormatDoubleElimination, nil, 4)
	assert.Equal(t, 4, plan.RoundsTotal)
	require.Len(t, plan.Matches, 7)
	m := byUID(plan)

	assert.Equal(t, "L1M1", *m["W1M1"].ConsolationMatchUID)
	assert.Equal(t, "L1M1", *m["W1M2"].ConsolationMatchUID)
	assert.Equal(t, "L2M1", *m["L1M1"].NextMatchUID)
	assert.Equal(t, models.Slot1, m["L1M1"].NextSlot)
	assert.Equal(t, "L2M1", *m["W2M1"].ConsolationMatchUID)
	assert.Equal(t, models.Slot2, m["W2M1"].ConsolationSlot)

	assert.Equal(t, "GFM1", *m["W2M1"].NextMatchUID)
	assert.Equal(t, "GFM1", *m["L2M1"].NextMatchUID)
	assert.Equal(t, models.Slot2, m["L2M1"].NextSlot)

	gf := m["GFM1"]
	assert.Equal(t, "GRM1", *gf.NextMatchUID)
	assert.Equal(t, "GRM1", *gf.ConsolationMatchUID)
	assert.Equal(t, 2, m["GRM1"].ExpectedEntrants)
	for _, uid := range []string{"L1M1", "L2M1", "GFM1", "GRM1"} {
		assert.Equal(t, models.MatchStatusPending, m[uid].Status, uid)
	}
}

func TestDoubleEliminationEightTeams(t *testing.T) {
	plan := generate(t, models.FormatDoubleElimination, nil, 8)
	require.Len(t, plan.Matches, 15)
	assert.Equal(t, 5, plan.RoundsTotal)
	m := byUID(plan)

	assert.Len(t, plan.MatchesIn("L1"), 2)
	assert.Len(t, plan.MatchesIn("L2"), 2)
	assert.Len(t, plan.MatchesIn("L3"), 1)
	assert.Len(t, plan.MatchesIn("L4"), 1)

	// winners round 2 losers drop in reversed
	assert.Equal(t, "L2M2", *m["W2M1"].ConsolationMatchUID)
	assert.Equal(t, "L2M1", *m["W2M2"].ConsolationMatchUID)
	assert.Equal(t, "L4M1", *m["W3M1"].ConsolationMatchUID)
	assert.Equal(t, "GFM1", *m["L4M1"].NextMatchUID)

	var losersFinal string
	for _, r := range plan.Rounds {
		if r.Key == "L4" {
			losersFinal = r.Name
		}
	}
	assert.Equal(t, "Losers Final", losersFinal)

	// every non-final match feeds somewhere
	for _, bm := range plan.Matches {
		if bm.UID == "GRM1" {
			continue
		}
		assert.NotNil(t, bm.NextMatchUID, bm.UID)
	}
}

func TestDoubleEliminationTwoTeams(t *testing.T) {
	plan := generate(t, models.FormatDoubleElimination, nil, 2)
	require.Len(t, plan.Matches, 3)
	m := byUID(plan)
	assert.Equal(t, "GFM1", *m["W1M1"].NextMatchUID)
	assert.Equal(t, "GFM1", *m["W1M1"].ConsolationMatchUID)
	assert.Equal(t, models.Slot2, m["W1M1"].ConsolationSlot)
	assert.Equal(t, 2, m["GFM1"].ExpectedEntrants)
}

func TestDoubleEliminationThreeTeamsLosersBye(t *testing.T) {
	plan := generate(t, models.FormatDoubleElimination, nil, 3)
	m := byUID(plan)

	assert.Equal(t, models.MatchStatusBye, m["W1M1"].Status)
	// the bye in winners round 1 produces no loser
	assert.Equal(t, 1, m["L1M1"].ExpectedEntrants)
	assert.Equal(t, models.MatchStatusPending, m["L1M1"].Status)
	assert.Equal(t, 2, m["L2M1"].ExpectedEntrants)
}

func TestRoundRobinEveryPairMeetsOnce(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 6, 7} {
		plan := generate(t, models.FormatRoundRobin, nil, n)
		meetings := make(map[[2]int]int)
		for _, f := range plan.Fixtures {
			a, b := f.Team1ID, f.Team2ID
			if a > b {
				a, b = b, a
			}
			meetings[[2]int{a, b}]++
		}
		assert.Len(t, meetings, n*(n-1)/2, "n=%d", n)
		for pair, count := range meetings {
			assert.Equal(t, 1, count, "n=%d pair %v", n, pair)
		}
		for _, bm := range plan.Matches {
			assert.Equal(t, models.MatchStatusReady, bm.Status)
		}
		wantRounds := n - 1
		if n%2 == 1 {
			wantRounds = n
		}
		assert.Equal(t, wantRounds, plan.RoundsTotal, "n=%d", n)
	}
}

func TestRoundRobinNoTeamPlaysTwiceInARound(t *testing.T) {
	plan := generate(t, models.FormatRoundRobin, nil, 6)
	seen := make(map[int]map[int]bool)
	for _, f := range plan.Fixtures {
		if seen[f.RoundNumber] == nil {
			seen[f.RoundNumber] = make(map[int]bool)
		}
		assert.False(t, seen[f.RoundNumber][f.Team1ID])
		assert.False(t, seen[f.RoundNumber][f.Team2ID])
		seen[f.RoundNumber][f.Team1ID] = true
		seen[f.RoundNumber][f.Team2ID] = true
	}
}

func TestRoundRobinTwoLegsSwapHome(t *testing.T) {
	plan := generate(t, models.FormatRoundRobin, &models.Tournament{Format: models.FormatRoundRobin, RoundRobinLegs: 2}, 4)
	assert.Equal(t, 6, plan.RoundsTotal)
	require.Len(t, plan.Fixtures, 12)

	home := make(map[[2]int]int)
	for _, f := range plan.Fixtures {
		home[[2]int{f.Team1ID, f.Team2ID}]++
	}
	for pair, count := range home {
		assert.Equal(t, 1, count, "pair %v hosted twice", pair)
		assert.Equal(t, 1, home[[2]int{pair[1], pair[0]}], "pair %v has no return leg", pair)
	}
}

func TestSwissFirstRound(t *testing.T) {
	plan := generate(t, models.FormatSwiss, nil, 4)
	assert.Equal(t, 2, plan.RoundsTotal)
	require.Len(t, plan.Fixtures, 2)
	assert.Equal(t, [2]int{1, 3}, [2]int{plan.Fixtures[0].Team1ID, plan.Fixtures[0].Team2ID})
	assert.Equal(t, [2]int{2, 4}, [2]int{plan.Fixtures[1].Team1ID, plan.Fixtures[1].Team2ID})
}

func TestSwissFirstRoundOddFieldGivesLowestSeedBye(t *testing.T) {
	plan := generate(t, models.FormatSwiss, nil, 5)
	require.Len(t, plan.Fixtures, 2)
	require.Len(t, plan.Matches, 3)
	bye := plan.Matches[2]
	assert.Equal(t, models.MatchStatusBye, bye.Status)
	assert.Equal(t, 5, teamOf(bye.WinnerTeamID))
}

func TestSwissRoundAvoidsRematches(t *testing.T) {
	ranked := []SwissTeam{{TeamID: 1}, {TeamID: 2}, {TeamID: 3}, {TeamID: 4}}
	played := func(a, b int) bool {
		return (a == 1 && b == 2) || (a == 2 && b == 1) || (a == 3 && b == 4) || (a == 4 && b == 3)
	}
	plan, err := SwissRound(2, ranked, played, func(int) bool { return false })
	require.NoError(t, err)
	require.Len(t, plan.Fixtures, 2)
	assert.Equal(t, [2]int{1, 3}, [2]int{plan.Fixtures[0].Team1ID, plan.Fixtures[0].Team2ID})
	assert.Equal(t, [2]int{2, 4}, [2]int{plan.Fixtures[1].Team1ID, plan.Fixtures[1].Team2ID})
	assert.Equal(t, "S2M1", plan.Matches[0].UID)
}

func TestSwissRoundFallsBackToRematch(t *testing.T) {
	ranked := []SwissTeam{{TeamID: 1}, {TeamID: 2}}
	plan, err := SwissRound(2, ranked, func(int, int) bool { return true }, func(int) bool { return false })
	require.NoError(t, err)
	require.Len(t, plan.Fixtures, 1)
}

func TestSwissRoundByeSkipsTeamsThatHadOne(t *testing.T) {
	ranked := []SwissTeam{{TeamID: 1}, {TeamID: 2}, {TeamID: 3}}
	plan, err := SwissRound(2, ranked, func(int, int) bool { return false }, func(id int) bool { return id == 3 })
	require.NoError(t, err)
	require.Len(t, plan.Fixtures, 1)
	assert.Equal(t, [2]int{1, 3}, [2]int{plan.Fixtures[0].Team1ID, plan.Fixtures[0].Team2ID})
	bye := plan.Matches[1]
	assert.Equal(t, models.MatchStatusBye, bye.Status)
	assert.Equal(t, 2, teamOf(bye.WinnerTeamID))
}
