package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories/memory"
)

const testCategoryID = 1

type event struct {
	tournamentID int
	eventType    string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *recordingNotifier) Publish(tournamentID int, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event{tournamentID: tournamentID, eventType: eventType})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.eventType)
	}
	return out
}

type testEnv struct {
	ctx         context.Context
	store       *memory.Store
	repos       Repositories
	notifier    *recordingNotifier
	tournaments TournamentService
	seedings    SeedingService
	brackets    BracketService
	matches     MatchService
	results     ResultService
	standings   StandingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	store.AddCategory(models.Category{ID: testCategoryID, Name: "Junior Line Follower", Code: "jlf"})

	repos := Repositories{
		Tx:          store.Transactor(),
		Tournaments: store.Tournaments(),
		Entrants:    store.Entrants(),
		Seedings:    store.Seedings(),
		Brackets:    store.Brackets(),
		Matches:     store.Matches(),
		Schedule:    store.Schedule(),
		Standings:   store.Standings(),
		Results:     store.Results(),
		Teams:       store.Teams(),
		Categories:  store.Categories(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{}
	return &testEnv{
		ctx:         context.Background(),
		store:       store,
		repos:       repos,
		notifier:    notifier,
		tournaments: NewTournamentService(repos, DefaultTournamentDefaults(), logger),
		seedings:    NewSeedingService(repos, logger),
		brackets:    NewBracketService(repos, notifier, logger),
		matches:     NewMatchService(repos, notifier, logger),
		results:     NewResultService(repos, nil, notifier, logger),
		standings:   NewStandingService(repos, logger),
	}
}

// addTeams registers eligible teams whose prior records give a strict
// performance order: the first id is the strongest.
func (e *testEnv) addTeams(ids ...int) {
	for i, id := range ids {
		won := 10 - i
		e.store.AddTeam(models.TeamProfile{
			ID:            id,
			Name:          "team",
			Region:        "north",
			MatchesPlayed: 10,
			MatchesWon:    won,
			MatchesLost:   10 - won,
		}, testCategoryID)
	}
}

// setup creates a tournament, registers teams in order and closes registration.
func (e *testEnv) setup(t *testing.T, input TournamentInput, teamIDs ...int) *models.Tournament {
	t.Helper()
	if input.Name == "" {
		input.Name = "Regional Cup"
	}
	input.CategoryID = testCategoryID
	if input.MaxTeams == 0 {
		input.MaxTeams = 16
	}
	e.addTeams(teamIDs...)

	tour, err := e.tournaments.CreateTournament(e.ctx, input, nil)
	require.NoError(t, err)
	_, err = e.tournaments.OpenRegistration(e.ctx, tour.ID)
	require.NoError(t, err)
	for _, id := range teamIDs {
		_, err := e.tournaments.RegisterTeam(e.ctx, tour.ID, id)
		require.NoError(t, err)
	}
	tour, err = e.tournaments.CloseRegistration(e.ctx, tour.ID)
	require.NoError(t, err)
	return tour
}

// start seeds by performance and generates the bracket.
func (e *testEnv) start(t *testing.T, input TournamentInput, teamIDs ...int) *models.Tournament {
	t.Helper()
	tour := e.setup(t, input, teamIDs...)
	_, err := e.seedings.SeedTournament(e.ctx, tour.ID, SeedOptions{Method: models.SeedingPerformance})
	require.NoError(t, err)
	_, err = e.brackets.GenerateBracket(e.ctx, tour.ID)
	require.NoError(t, err)
	return e.tournament(t, tour.ID)
}

func (e *testEnv) tournament(t *testing.T, id int) *models.Tournament {
	t.Helper()
	tour, err := e.tournaments.GetTournament(e.ctx, id)
	require.NoError(t, err)
	return tour
}

// findMatch returns the unique open or decided match between a and b.
func (e *testEnv) findMatch(t *testing.T, tournamentID, a, b int) *models.Match {
	t.Helper()
	ms, err := e.matches.ListMatches(e.ctx, tournamentID)
	require.NoError(t, err)
	var found *models.Match
	for _, m := range ms {
		if m.HasTeam(a) && m.HasTeam(b) {
			require.Nil(t, found, "teams %d and %d meet more than once", a, b)
			found = m
		}
	}
	require.NotNil(t, found, "no match between %d and %d", a, b)
	return found
}

func (e *testEnv) matchInRound(t *testing.T, tournamentID int, roundName string) *models.Match {
	t.Helper()
	view, err := e.brackets.GetBracketView(e.ctx, tournamentID)
	require.NoError(t, err)
	for _, b := range view.Brackets {
		if b.RoundName == roundName {
			require.Len(t, b.Matches, 1)
			m := b.Matches[0]
			return &m
		}
	}
	t.Fatalf("no round named %q", roundName)
	return nil
}

// play starts the match between a and b and completes it with a scoring scoreA.
func (e *testEnv) play(t *testing.T, tournamentID, a, b, scoreA, scoreB int) *models.Match {
	t.Helper()
	return e.playMatch(t, e.findMatch(t, tournamentID, a, b), a, scoreA, scoreB)
}

// playMatch starts m and completes it with team a scoring scoreA.
func (e *testEnv) playMatch(t *testing.T, m *models.Match, a, scoreA, scoreB int) *models.Match {
	t.Helper()
	_, err := e.matches.StartMatch(e.ctx, m.ID)
	require.NoError(t, err)
	s1, s2 := scoreA, scoreB
	if *m.Team1ID != a {
		s1, s2 = scoreB, scoreA
	}
	done, err := e.matches.CompleteMatch(e.ctx, m.ID, MatchScores{Team1Score: &s1, Team2Score: &s2})
	require.NoError(t, err)
	return done
}

func scores(a, b int) MatchScores {
	return MatchScores{Team1Score: &a, Team2Score: &b}
}

func placementsOf(results []*models.TournamentResult) map[int]int {
	out := make(map[int]int, len(results))
	for _, r := range results {
		out[r.Placement] = r.TeamID
	}
	return out
}
