// Package memory is an in-process record store implementing the repository
// interfaces. It backs the service tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
)

type tables struct {
	tournaments map[int]models.Tournament
	entrants    map[int]models.Entrant
	seedings    map[int]models.Seeding
	brackets    map[int]models.Bracket
	matches     map[int]models.Match
	schedule    map[int]models.ScheduleEntry
	standings   map[int]models.Standing
	results     map[int]models.TournamentResult
	teams       map[int]models.TeamProfile
	categories  map[int]models.Category
	eligible    map[[2]int]bool
	nextID      int
}

func newTables() *tables {
	return &tables{
		tournaments: make(map[int]models.Tournament),
		entrants:    make(map[int]models.Entrant),
		seedings:    make(map[int]models.Seeding),
		brackets:    make(map[int]models.Bracket),
		matches:     make(map[int]models.Match),
		schedule:    make(map[int]models.ScheduleEntry),
		standings:   make(map[int]models.Standing),
		results:     make(map[int]models.TournamentResult),
		teams:       make(map[int]models.TeamProfile),
		categories:  make(map[int]models.Category),
		eligible:    make(map[[2]int]bool),
	}
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (t *tables) clone() *tables {
	out := &tables{
		tournaments: copyMap(t.tournaments),
		entrants:    copyMap(t.entrants),
		seedings:    copyMap(t.seedings),
		brackets:    copyMap(t.brackets),
		matches:     copyMap(t.matches),
		schedule:    copyMap(t.schedule),
		standings:   make(map[int]models.Standing, len(t.standings)),
		results:     copyMap(t.results),
		teams:       copyMap(t.teams),
		categories:  copyMap(t.categories),
		eligible:    copyMap(t.eligible),
		nextID:      t.nextID,
	}
	for k, v := range t.standings {
		v.HeadToHead = v.HeadToHead.Clone()
		out.standings[k] = v
	}
	return out
}

// Store holds every table in memory. Transactions are serialized and a
// failed transaction restores the state it started from.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *tables
}

func NewStore() *Store {
	return &Store{data: newTables()}
}

func (s *Store) id() int {
	s.data.nextID++
	return s.data.nextID
}

func (s *Store) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()
	return fn(nil)
}

func (s *Store) restore(snapshot *tables) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

// AddCategory registers a category in the read-only registry.
func (s *Store) AddCategory(c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.categories[c.ID] = c
}

// AddTeam registers a team profile and the categories it may enter.
func (s *Store) AddTeam(p models.TeamProfile, categoryIDs ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.EloRating == 0 {
		p.EloRating = models.DefaultEloRating
	}
	s.data.teams[p.ID] = p
	for _, c := range categoryIDs {
		s.data.eligible[[2]int{p.ID, c}] = true
	}
}

func (s *Store) Transactor() repositories.Transactor            { return s }
func (s *Store) Tournaments() repositories.TournamentRepository { return &tournamentRepo{s} }
func (s *Store) Entrants() repositories.EntrantRepository       { return &entrantRepo{s} }
func (s *Store) Seedings() repositories.SeedingRepository       { return &seedingRepo{s} }
func (s *Store) Brackets() repositories.BracketRepository       { return &bracketRepo{s} }
func (s *Store) Matches() repositories.MatchRepository          { return &matchRepo{s} }
func (s *Store) Schedule() repositories.ScheduleRepository      { return &scheduleRepo{s} }
func (s *Store) Standings() repositories.StandingRepository     { return &standingRepo{s} }
func (s *Store) Results() repositories.ResultRepository         { return &resultRepo{s} }
func (s *Store) Teams() repositories.TeamRegistry               { return &registry{s} }
func (s *Store) Categories() repositories.CategoryRegistry      { return &registry{s} }

type registry struct{ s *Store }

func (r *registry) GetTeamProfile(ctx context.Context, exec repositories.SQLExecutor, teamID int) (*models.TeamProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.teams[teamID]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &p, nil
}

func (r *registry) IsEligible(ctx context.Context, exec repositories.SQLExecutor, teamID, categoryID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.data.eligible[[2]int{teamID, categoryID}], nil
}

func (r *registry) GetCategory(ctx context.Context, exec repositories.SQLExecutor, categoryID int) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.categories[categoryID]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", categoryID, repositories.ErrCategoryNotFound)
	}
	return &c, nil
}
