package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/models"
)

func seedOrder(t *testing.T, env *testEnv, tournamentID int) []int {
	t.Helper()
	seeds, err := env.seedings.ListSeedings(env.ctx, tournamentID)
	require.NoError(t, err)
	out := make([]int, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, s.TeamID)
	}
	return out
}

func TestManualSeeding(t *testing.T) {
	env := newTestEnv(t)
	tour := env.setup(t, TournamentInput{Format: models.FormatElimination, SeedingMethod: models.SeedingManual}, teamA, teamB, teamC)

	one, two, three := 1, 2, 3
	require.NoError(t, env.tournaments.SetManualSeed(env.ctx, tour.ID, teamC, &one))
	require.NoError(t, env.tournaments.SetManualSeed(env.ctx, tour.ID, teamA, &two))

	_, err := env.seedings.SeedTournament(env.ctx, tour.ID, SeedOptions{})
	require.ErrorIs(t, err, ErrValidation, "team B has no manual seed")
	assert.Empty(t, seedOrder(t, env, tour.ID))

	require.NoError(t, env.tournaments.SetManualSeed(env.ctx, tour.ID, teamB, &three))
	_, err = env.seedings.SeedTournament(env.ctx, tour.ID, SeedOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{teamC, teamA, teamB}, seedOrder(t, env, tour.ID))

	_, err = env.seedings.SeedTournament(env.ctx, tour.ID, SeedOptions{})
	require.ErrorIs(t, err, ErrInvalidState)
	err = env.tournaments.SetManualSeed(env.ctx, tour.ID, teamB, &one)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestManualSeedOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	tour := env.setup(t, TournamentInput{Format: models.FormatElimination, MaxTeams: 4}, teamA, teamB)

	five := 5
	err := env.tournaments.SetManualSeed(env.ctx, tour.ID, teamA, &five)
	require.ErrorIs(t, err, ErrValidation)
	err = env.tournaments.SetManualSeed(env.ctx, tour.ID, teamD, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPerformanceSeedingFollowsRecord(t *testing.T) {
	env := newTestEnv(t)
	// registration order is not seed order
	env.addTeams(teamA, teamB, teamC)
	tour, err := env.tournaments.CreateTournament(env.ctx, TournamentInput{Name: "League", Format: models.FormatRoundRobin, CategoryID: testCategoryID, MaxTeams: 4}, nil)
	require.NoError(t, err)
	_, err = env.tournaments.OpenRegistration(env.ctx, tour.ID)
	require.NoError(t, err)
	for _, id := range []int{teamC, teamA, teamB} {
		_, err := env.tournaments.RegisterTeam(env.ctx, tour.ID, id)
		require.NoError(t, err)
	}
	_, err = env.tournaments.CloseRegistration(env.ctx, tour.ID)
	require.NoError(t, err)

	_, err = env.seedings.SeedTournament(env.ctx, tour.ID, SeedOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{teamA, teamB, teamC}, seedOrder(t, env, tour.ID))
}

func TestRandomSeedingIsReproducible(t *testing.T) {
	var orders [][]int
	for i := 0; i < 2; i++ {
		env := newTestEnv(t)
		tour := env.setup(t, TournamentInput{Format: models.FormatSwiss}, teamA, teamB, teamC, teamD)
		seed := int64(7)
		_, err := env.seedings.SeedTournament(env.ctx, tour.ID, SeedOptions{Method: models.SeedingRandom, RandomSeed: &seed})
		require.NoError(t, err)
		order := seedOrder(t, env, tour.ID)
		assert.ElementsMatch(t, []int{teamA, teamB, teamC, teamD}, order)
		orders = append(orders, order)
	}
	assert.Equal(t, orders[0], orders[1])
}

func TestSeedingRequiresSeedingStatus(t *testing.T) {
	env := newTestEnv(t)
	tour, err := env.tournaments.CreateTournament(env.ctx, TournamentInput{Name: "Cup", Format: models.FormatElimination, CategoryID: testCategoryID, MaxTeams: 4}, nil)
	require.NoError(t, err)

	_, err = env.seedings.SeedTournament(env.ctx, tour.ID, SeedOptions{})
	require.ErrorIs(t, err, ErrInvalidState)

	tour = env.setup(t, TournamentInput{Format: models.FormatElimination}, teamA, teamB)
	_, err = env.seedings.SeedTournament(env.ctx, tour.ID, SeedOptions{Method: "coin"})
	require.ErrorIs(t, err, ErrInvalidSeedingMethod)
}
