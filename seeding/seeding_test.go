package seeding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/models"
)

func entrant(id, teamID int, region string, played, won, lost, pf, pa int, elo float64) *models.Entrant {
	return &models.Entrant{
		ID: id, TeamID: teamID, Region: region,
		MatchesPlayed: played, MatchesWon: won, MatchesLost: lost,
		PointsFor: pf, PointsAgainst: pa, EloRating: elo,
	}
}

func teamIDs(es []*models.Entrant) []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.TeamID
	}
	return out
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(&models.Entrant{}))
	// 2 wins, 1 draw, 1 loss: (6+1)/12
	assert.Equal(t, 58.33, Score(entrant(1, 1, "", 4, 2, 1, 0, 0, 0)))
	assert.Equal(t, 100.0, Score(entrant(1, 1, "", 3, 3, 0, 0, 0, 0)))
}

func TestPerformanceTieBreakChain(t *testing.T) {
	entrants := []*models.Entrant{
		entrant(1, 10, "", 2, 1, 1, 10, 10, 1500), // score 50, diff 0
		entrant(2, 20, "", 2, 2, 0, 10, 5, 1500),  // score 100
		entrant(3, 30, "", 2, 1, 1, 12, 10, 1500), // score 50, diff +2, pf 12
		entrant(4, 40, "", 2, 1, 1, 8, 6, 1500),   // score 50, diff +2, pf 8
		entrant(5, 50, "", 2, 1, 1, 10, 10, 1600), // like 1 with higher elo
		entrant(6, 60, "", 2, 1, 1, 10, 10, 1500), // identical to 1, registered later
	}
	ordered, err := Order(entrants, Options{Method: models.SeedingPerformance})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 30, 40, 50, 10, 60}, teamIDs(ordered))
}

func TestPerformanceSeedingIsDeterministic(t *testing.T) {
	entrants := []*models.Entrant{
		entrant(1, 1, "", 5, 2, 3, 20, 25, 1450),
		entrant(2, 2, "", 5, 4, 1, 30, 12, 1620),
		entrant(3, 3, "", 0, 0, 0, 0, 0, 0),
		entrant(4, 4, "", 5, 4, 1, 30, 12, 1610),
	}
	first, err := Assign(7, entrants, Options{Method: models.SeedingPerformance})
	require.NoError(t, err)
	second, err := Assign(7, entrants, Options{Method: models.SeedingPerformance})
	require.NoError(t, err)

	require.Len(t, first, 4)
	for i := range first {
		assert.Equal(t, first[i].TeamID, second[i].TeamID)
		assert.Equal(t, i+1, first[i].SeedNumber)
		assert.Equal(t, 7, first[i].TournamentID)
	}
	assert.Equal(t, 2, first[0].TeamID)
	assert.Equal(t, models.DefaultEloRating, first[3].EloRating, "unrated team gets the default rating")
}

func TestRandomSeedingIsReproducible(t *testing.T) {
	entrants := make([]*models.Entrant, 8)
	for i := range entrants {
		entrants[i] = entrant(i+1, i+1, "", 0, 0, 0, 0, 0, 0)
	}
	seed := int64(42)
	a, err := Order(entrants, Options{Method: models.SeedingRandom, RandomSeed: &seed})
	require.NoError(t, err)
	b, err := Order(entrants, Options{Method: models.SeedingRandom, RandomSeed: &seed})
	require.NoError(t, err)
	assert.Equal(t, teamIDs(a), teamIDs(b))
	assert.ElementsMatch(t, teamIDs(entrants), teamIDs(a))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, teamIDs(entrants), "input is not reordered")
}

func TestRegionalSeedingSpreadsRegions(t *testing.T) {
	entrants := []*models.Entrant{
		entrant(1, 1, "north", 4, 4, 0, 0, 0, 0),
		entrant(2, 2, "north", 4, 3, 1, 0, 0, 0),
		entrant(3, 3, "north", 4, 2, 2, 0, 0, 0),
		entrant(4, 4, "south", 4, 1, 3, 0, 0, 0),
		entrant(5, 5, "south", 4, 0, 4, 0, 0, 0),
		entrant(6, 6, "east", 4, 2, 2, 5, 0, 0),
	}
	ordered, err := Order(entrants, Options{Method: models.SeedingRegional})
	require.NoError(t, err)
	// one per region per pass; regions ordered by their best entrant
	assert.Equal(t, []int{1, 6, 4, 2, 5, 3}, teamIDs(ordered))
}

func TestManualSeeding(t *testing.T) {
	s1, s2, s3 := 2, 3, 1
	entrants := []*models.Entrant{
		{ID: 1, TeamID: 1, ManualSeed: &s1},
		{ID: 2, TeamID: 2, ManualSeed: &s2},
		{ID: 3, TeamID: 3, ManualSeed: &s3},
	}
	ordered, err := Order(entrants, Options{Method: models.SeedingManual})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, teamIDs(ordered))

	dup := 1
	entrants[1].ManualSeed = &dup
	_, err = Order(entrants, Options{Method: models.SeedingManual})
	assert.ErrorIs(t, err, ErrInvalidManualSeeds)

	entrants[1].ManualSeed = nil
	_, err = Order(entrants, Options{Method: models.SeedingManual})
	assert.ErrorIs(t, err, ErrInvalidManualSeeds)
}

func TestOrderValidation(t *testing.T) {
	_, err := Order([]*models.Entrant{entrant(1, 1, "", 0, 0, 0, 0, 0, 0)}, Options{Method: models.SeedingPerformance})
	assert.ErrorIs(t, err, ErrNotEnoughEntrants)

	two := []*models.Entrant{entrant(1, 1, "", 0, 0, 0, 0, 0, 0), entrant(2, 2, "", 0, 0, 0, 0, 0, 0)}
	_, err = Order(two, Options{Method: models.SeedingMethod("alphabetical")})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestEloChange(t *testing.T) {
	assert.Equal(t, 16.0, EloChange(1500, 1500, models.ResultWin))
	assert.Equal(t, -16.0, EloChange(1500, 1500, models.ResultLoss))
	assert.Equal(t, 0.0, EloChange(1500, 1500, models.ResultDraw))
	assert.Less(t, EloChange(1800, 1400, models.ResultWin), 16.0)

	s := &models.Seeding{EloRating: 1500}
	ApplyResult(s, 1500, 10, 5, models.ResultWin)
	assert.Equal(t, 1516.0, s.EloRating)
	assert.Equal(t, 1, s.MatchesPlayed)
	assert.Equal(t, 1, s.MatchesWon)
	assert.Equal(t, 10, s.PointsFor)
	assert.Equal(t, 5, s.PointsAgainst)
}
