package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
)

type tournamentRepo struct{ s *Store }

func (r *tournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.categories[t.CategoryID]; !ok {
		return repositories.ErrTournamentInvalidCategory
	}
	now := time.Now()
	t.ID = r.s.id()
	t.CurrentTeams, t.RoundsTotal, t.CurrentRound = 0, 0, 0
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.data.tournaments[t.ID] = *t
	return nil
}

func (r *tournamentRepo) get(id int) (models.Tournament, bool) {
	t, ok := r.s.data.tournaments[id]
	if !ok || t.DeletedAt != nil {
		return models.Tournament{}, false
	}
	return t, true
}

func (r *tournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.get(id)
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r *tournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *tournamentRepo) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Tournament, 0)
	for _, t := range r.s.data.tournaments {
		if t.DeletedAt != nil {
			continue
		}
		if filter.CategoryID != nil && t.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Format != nil && t.Format != *filter.Format {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*models.Tournament{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *tournamentRepo) Update(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.get(t.ID)
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if _, ok := r.s.data.categories[t.CategoryID]; !ok {
		return repositories.ErrTournamentInvalidCategory
	}
	if cur.CurrentTeams > t.MaxTeams {
		return repositories.ErrTournamentFull
	}
	cur.Name, cur.Format, cur.CategoryID, cur.VenueID, cur.MaxTeams = t.Name, t.Format, t.CategoryID, t.VenueID, t.MaxTeams
	cur.SeedingMethod, cur.QualificationCount = t.SeedingMethod, t.QualificationCount
	cur.PointsPerWin, cur.PointsPerDraw, cur.PointsPerLoss = t.PointsPerWin, t.PointsPerDraw, t.PointsPerLoss
	cur.ThirdPlaceMatch, cur.RoundRobinLegs = t.ThirdPlaceMatch, t.RoundRobinLegs
	cur.UpdatedAt = time.Now()
	r.s.data.tournaments[t.ID] = cur
	return nil
}

func (r *tournamentRepo) mutate(id int, notFound error, fn func(t *models.Tournament) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.get(id)
	if !ok {
		return notFound
	}
	if err := fn(&t); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()
	r.s.data.tournaments[id] = t
	return nil
}

func (r *tournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, from, to models.TournamentStatus) error {
	return r.mutate(id, repositories.ErrTournamentStatusChanged, func(t *models.Tournament) error {
		if t.Status != from {
			return repositories.ErrTournamentStatusChanged
		}
		t.Status = to
		return nil
	})
}

func (r *tournamentRepo) UpdateProgress(ctx context.Context, exec repositories.SQLExecutor, id int, roundsTotal, currentRound int) error {
	return r.mutate(id, repositories.ErrTournamentNotFound, func(t *models.Tournament) error {
		if currentRound > roundsTotal {
			return repositories.ErrTournamentRoundOverflow
		}
		t.RoundsTotal, t.CurrentRound = roundsTotal, currentRound
		return nil
	})
}

func (r *tournamentRepo) UpdatePodium(ctx context.Context, exec repositories.SQLExecutor, id int, winner, second, third *int) error {
	return r.mutate(id, repositories.ErrTournamentNotFound, func(t *models.Tournament) error {
		for _, team := range []*int{winner, second, third} {
			if team == nil {
				continue
			}
			if _, ok := r.s.data.teams[*team]; !ok {
				return repositories.ErrTournamentInvalidTeam
			}
		}
		t.WinnerTeamID, t.SecondTeamID, t.ThirdTeamID = winner, second, third
		return nil
	})
}

func (r *tournamentRepo) IncrementTeamCount(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return r.mutate(id, repositories.ErrTournamentFull, func(t *models.Tournament) error {
		if t.CurrentTeams >= t.MaxTeams {
			return repositories.ErrTournamentFull
		}
		t.CurrentTeams++
		return nil
	})
}

func (r *tournamentRepo) DecrementTeamCount(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return r.mutate(id, repositories.ErrTournamentNotFound, func(t *models.Tournament) error {
		if t.CurrentTeams <= 0 {
			return repositories.ErrTournamentNotFound
		}
		t.CurrentTeams--
		return nil
	})
}

func (r *tournamentRepo) SoftDelete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return r.mutate(id, repositories.ErrTournamentNotFound, func(t *models.Tournament) error {
		now := time.Now()
		t.DeletedAt = &now
		return nil
	})
}

type entrantRepo struct{ s *Store }

func (r *entrantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, e *models.Entrant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.tournaments[e.TournamentID]; !ok {
		return repositories.ErrEntrantInvalidTourn
	}
	if _, ok := r.s.data.teams[e.TeamID]; !ok {
		return repositories.ErrEntrantInvalidTeam
	}
	for _, cur := range r.s.data.entrants {
		if cur.TournamentID == e.TournamentID && cur.TeamID == e.TeamID {
			return repositories.ErrEntrantExists
		}
	}
	e.ID = r.s.id()
	e.RegisteredAt = time.Now()
	r.s.data.entrants[e.ID] = *e
	return nil
}

func (r *entrantRepo) find(tournamentID, teamID int) (models.Entrant, bool) {
	for _, e := range r.s.data.entrants {
		if e.TournamentID == tournamentID && e.TeamID == teamID {
			return e, true
		}
	}
	return models.Entrant{}, false
}

func (r *entrantRepo) GetByTournamentAndTeam(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int) (*models.Entrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.find(tournamentID, teamID)
	if !ok {
		return nil, repositories.ErrEntrantNotFound
	}
	return &e, nil
}

func (r *entrantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Entrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Entrant, 0)
	for _, e := range r.s.data.entrants {
		if e.TournamentID == tournamentID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *entrantRepo) UpdateManualSeed(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int, seed *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.find(tournamentID, teamID)
	if !ok {
		return repositories.ErrEntrantNotFound
	}
	e.ManualSeed = seed
	r.s.data.entrants[e.ID] = e
	return nil
}

func (r *entrantRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.find(tournamentID, teamID)
	if !ok {
		return repositories.ErrEntrantNotFound
	}
	delete(r.s.data.entrants, e.ID)
	return nil
}

type seedingRepo struct{ s *Store }

func (r *seedingRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, seeds []*models.Seeding) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sd := range seeds {
		if _, ok := r.s.data.tournaments[sd.TournamentID]; !ok {
			return repositories.ErrSeedingInvalidTourn
		}
		for _, cur := range r.s.data.seedings {
			if cur.TournamentID != sd.TournamentID {
				continue
			}
			if cur.SeedNumber == sd.SeedNumber {
				return repositories.ErrSeedNumberConflict
			}
			if cur.TeamID == sd.TeamID {
				return repositories.ErrTeamAlreadySeeded
			}
		}
		sd.ID = r.s.id()
		r.s.data.seedings[sd.ID] = *sd
	}
	return nil
}

func (r *seedingRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Seeding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Seeding, 0)
	for _, sd := range r.s.data.seedings {
		if sd.TournamentID == tournamentID {
			sd := sd
			out = append(out, &sd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeedNumber < out[j].SeedNumber })
	return out, nil
}

func (r *seedingRepo) GetByTournamentAndTeam(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int) (*models.Seeding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sd := range r.s.data.seedings {
		if sd.TournamentID == tournamentID && sd.TeamID == teamID {
			return &sd, nil
		}
	}
	return nil, repositories.ErrSeedingNotFound
}

func (r *seedingRepo) UpdateStats(ctx context.Context, exec repositories.SQLExecutor, sd *models.Seeding) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.seedings[sd.ID]
	if !ok {
		return repositories.ErrSeedingNotFound
	}
	cur.EloRating = sd.EloRating
	cur.MatchesPlayed, cur.MatchesWon, cur.MatchesLost = sd.MatchesPlayed, sd.MatchesWon, sd.MatchesLost
	cur.PointsFor, cur.PointsAgainst = sd.PointsFor, sd.PointsAgainst
	cur.UpdatedAt = time.Now()
	sd.UpdatedAt = cur.UpdatedAt
	r.s.data.seedings[sd.ID] = cur
	return nil
}

type bracketRepo struct{ s *Store }

func (r *bracketRepo) Create(ctx context.Context, exec repositories.SQLExecutor, b *models.Bracket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = r.s.id()
	b.CreatedAt = time.Now()
	if b.Status == "" {
		b.Status = models.BracketStatusPending
	}
	stored := *b
	stored.Matches = nil
	r.s.data.brackets[b.ID] = stored
	return nil
}

func (r *bracketRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Bracket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.brackets[id]
	if !ok {
		return nil, repositories.ErrBracketNotFound
	}
	return &b, nil
}

func (r *bracketRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Bracket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Bracket, 0)
	for _, b := range r.s.data.brackets {
		if b.TournamentID == tournamentID {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RoundNumber != b.RoundNumber {
			return a.RoundNumber < b.RoundNumber
		}
		if a.BracketType != b.BracketType {
			return a.BracketType > b.BracketType
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *bracketRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.BracketStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.brackets[id]
	if !ok {
		return repositories.ErrBracketNotFound
	}
	b.Status = status
	r.s.data.brackets[id] = b
	return nil
}

type matchRepo struct{ s *Store }

func (r *matchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.brackets[m.BracketID]; !ok {
		return repositories.ErrMatchInvalidReference
	}
	for _, cur := range r.s.data.matches {
		if cur.BracketID == m.BracketID && cur.MatchNumber == m.MatchNumber {
			return repositories.ErrMatchNumberConflict
		}
	}
	m.ID = r.s.id()
	m.CreatedAt = time.Now()
	r.s.data.matches[m.ID] = *m
	return nil
}

func (r *matchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.data.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

// GetByIDForUpdate needs no row lock here; transactions are already serialized.
func (r *matchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *matchRepo) list(keep func(m models.Match) bool) []*models.Match {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.s.data.matches {
		if keep(m) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BracketID != out[j].BracketID {
			return out[i].BracketID < out[j].BracketID
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out
}

func (r *matchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Match, error) {
	return r.list(func(m models.Match) bool { return m.TournamentID == tournamentID }), nil
}

func (r *matchRepo) ListByBracket(ctx context.Context, exec repositories.SQLExecutor, bracketID int) ([]*models.Match, error) {
	return r.list(func(m models.Match) bool { return m.BracketID == bracketID }), nil
}

func (r *matchRepo) mutate(id int, notFound error, fn func(m *models.Match) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.data.matches[id]
	if !ok {
		return notFound
	}
	if err := fn(&m); err != nil {
		return err
	}
	r.s.data.matches[id] = m
	return nil
}

func open(m *models.Match) bool {
	return m.Status == models.MatchStatusPending || m.Status == models.MatchStatusReady
}

func (r *matchRepo) UpdateLinks(ctx context.Context, exec repositories.SQLExecutor, in *models.Match) error {
	return r.mutate(in.ID, repositories.ErrMatchNotFound, func(m *models.Match) error {
		m.NextMatchID, m.NextMatchSlot = in.NextMatchID, in.NextMatchSlot
		m.ConsolationMatchID, m.ConsolationMatchSlot = in.ConsolationMatchID, in.ConsolationMatchSlot
		return nil
	})
}

func (r *matchRepo) UpdateSlots(ctx context.Context, exec repositories.SQLExecutor, in *models.Match) error {
	return r.mutate(in.ID, repositories.ErrMatchAlreadyCompleted, func(m *models.Match) error {
		if !open(m) {
			return repositories.ErrMatchAlreadyCompleted
		}
		m.Team1ID, m.Team2ID, m.Team1SeedID, m.Team2SeedID = in.Team1ID, in.Team2ID, in.Team1SeedID, in.Team2SeedID
		m.Status = in.Status
		return nil
	})
}

func (r *matchRepo) Schedule(ctx context.Context, exec repositories.SQLExecutor, id int, venueID *int, tableNumber *string, scheduledAt *time.Time) error {
	return r.mutate(id, repositories.ErrMatchAlreadyCompleted, func(m *models.Match) error {
		if !open(m) {
			return repositories.ErrMatchAlreadyCompleted
		}
		m.VenueID, m.TableNumber, m.ScheduledAt = venueID, tableNumber, scheduledAt
		return nil
	})
}

func (r *matchRepo) Start(ctx context.Context, exec repositories.SQLExecutor, id int, startedAt time.Time) error {
	return r.mutate(id, repositories.ErrMatchNotReady, func(m *models.Match) error {
		if m.Status != models.MatchStatusReady || m.StartedAt != nil || !m.IsReady() {
			return repositories.ErrMatchNotReady
		}
		m.Status = models.MatchStatusInProgress
		m.StartedAt = &startedAt
		return nil
	})
}

func (r *matchRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, in *models.Match) error {
	return r.mutate(in.ID, repositories.ErrMatchAlreadyCompleted, func(m *models.Match) error {
		if m.Status.IsTerminal() {
			return repositories.ErrMatchAlreadyCompleted
		}
		m.Team1Score, m.Team2Score = in.Team1Score, in.Team2Score
		m.WinnerTeamID, m.LoserTeamID = in.WinnerTeamID, in.LoserTeamID
		m.Status, m.CompletedAt, m.ForfeitReason = in.Status, in.CompletedAt, in.ForfeitReason
		return nil
	})
}

type scheduleRepo struct{ s *Store }

func (r *scheduleRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, entries []*models.ScheduleEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range entries {
		e.ID = r.s.id()
		r.s.data.schedule[e.ID] = *e
	}
	return nil
}

func (r *scheduleRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.ScheduleEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.ScheduleEntry, 0)
	for _, e := range r.s.data.schedule {
		if e.TournamentID == tournamentID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *scheduleRepo) GetByMatchID(ctx context.Context, exec repositories.SQLExecutor, matchID int) (*models.ScheduleEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.data.schedule {
		if e.MatchID != nil && *e.MatchID == matchID {
			return &e, nil
		}
	}
	return nil, repositories.ErrScheduleEntryNotFound
}

func (r *scheduleRepo) MarkPlayed(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.data.schedule[id]
	if !ok || e.IsPlayed {
		return repositories.ErrFixtureAlreadyPlayed
	}
	e.IsPlayed = true
	r.s.data.schedule[id] = e
	return nil
}

type standingRepo struct{ s *Store }

func (r *standingRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, standings []*models.Standing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range standings {
		for _, cur := range r.s.data.standings {
			if cur.TournamentID == st.TournamentID && cur.TeamID == st.TeamID {
				return repositories.ErrStandingTeamConflict
			}
		}
		if st.UpdatedAt.IsZero() {
			st.UpdatedAt = time.Now()
		}
		st.ID = r.s.id()
		stored := *st
		stored.HeadToHead = st.HeadToHead.Clone()
		r.s.data.standings[st.ID] = stored
	}
	return nil
}

func cloneStanding(st models.Standing) *models.Standing {
	st.HeadToHead = st.HeadToHead.Clone()
	if st.HeadToHead == nil {
		st.HeadToHead = models.HeadToHead{}
	}
	return &st
}

func (r *standingRepo) GetByTournamentAndTeam(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int) (*models.Standing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.data.standings {
		if st.TournamentID == tournamentID && st.TeamID == teamID {
			return cloneStanding(st), nil
		}
	}
	return nil, repositories.ErrStandingNotFound
}

func (r *standingRepo) Update(ctx context.Context, exec repositories.SQLExecutor, st *models.Standing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.standings[st.ID]; !ok {
		return repositories.ErrStandingNotFound
	}
	if st.Wins+st.Draws+st.Losses != st.MatchesPlayed {
		return repositories.ErrStandingInconsistent
	}
	if err := st.HeadToHead.Validate(); err != nil {
		return err
	}
	st.UpdatedAt = time.Now()
	stored := *st
	stored.HeadToHead = st.HeadToHead.Clone()
	r.s.data.standings[st.ID] = stored
	return nil
}

func (r *standingRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, sortByRank bool) ([]*models.Standing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Standing, 0)
	for _, st := range r.s.data.standings {
		if st.TournamentID == tournamentID {
			out = append(out, cloneStanding(st))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if sortByRank {
			switch {
			case a.Ranking != nil && b.Ranking == nil:
				return true
			case a.Ranking == nil && b.Ranking != nil:
				return false
			case a.Ranking != nil && *a.Ranking != *b.Ranking:
				return *a.Ranking < *b.Ranking
			case a.LeaguePoints != b.LeaguePoints:
				return a.LeaguePoints > b.LeaguePoints
			case a.PointDifferential() != b.PointDifferential():
				return a.PointDifferential() > b.PointDifferential()
			case a.PointsFor != b.PointsFor:
				return a.PointsFor > b.PointsFor
			}
		}
		return a.TeamID < b.TeamID
	})
	return out, nil
}

type resultRepo struct{ s *Store }

func (r *resultRepo) Create(ctx context.Context, exec repositories.SQLExecutor, res *models.TournamentResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.data.results {
		if cur.TournamentID == res.TournamentID && cur.CategoryID == res.CategoryID && cur.Placement == res.Placement {
			return repositories.ErrPlacementTaken
		}
	}
	res.ID = r.s.id()
	res.IsPublished = false
	res.CreatedAt = time.Now()
	r.s.data.results[res.ID] = *res
	return nil
}

func (r *resultRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.data.results[id]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	return &res, nil
}

func (r *resultRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.TournamentResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.TournamentResult, 0)
	for _, res := range r.s.data.results {
		if res.TournamentID == tournamentID {
			res := res
			out = append(out, &res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Placement != out[j].Placement {
			return out[i].Placement < out[j].Placement
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *resultRepo) mutate(id int, fn func(res *models.TournamentResult) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.data.results[id]
	if !ok {
		return repositories.ErrResultNotFound
	}
	if err := fn(&res); err != nil {
		return err
	}
	r.s.data.results[id] = res
	return nil
}

func (r *resultRepo) SetCertificateNumber(ctx context.Context, exec repositories.SQLExecutor, id int, number string) error {
	return r.mutate(id, func(res *models.TournamentResult) error {
		if res.CertificateNumber != nil {
			return repositories.ErrCertificateAlreadyIssued
		}
		for _, other := range r.s.data.results {
			if other.ID != id && other.CertificateNumber != nil && *other.CertificateNumber == number {
				return repositories.ErrCertificateCollision
			}
		}
		res.CertificateNumber = &number
		return nil
	})
}

func (r *resultRepo) Publish(ctx context.Context, exec repositories.SQLExecutor, id int, verifiedBy *int, at time.Time) error {
	return r.mutate(id, func(res *models.TournamentResult) error {
		if res.IsPublished {
			return repositories.ErrResultAlreadyPublished
		}
		res.IsPublished, res.PublishedAt, res.VerifiedBy = true, &at, verifiedBy
		return nil
	})
}

func (r *resultRepo) Unpublish(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return r.mutate(id, func(res *models.TournamentResult) error {
		if !res.IsPublished {
			return repositories.ErrResultNotPublished
		}
		res.IsPublished, res.PublishedAt = false, nil
		return nil
	})
}
