package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/robotics-tournament-core/brackets"
	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
	"github.com/Dosada05/robotics-tournament-core/standings"
	"golang.org/x/sync/errgroup"
)

// BracketView is everything a client needs to draw a tournament.
type BracketView struct {
	Tournament *models.Tournament      `json:"tournament"`
	Brackets   []models.Bracket        `json:"brackets"`
	Seedings   []*models.Seeding       `json:"seedings"`
	Standings  []*models.Standing      `json:"standings,omitempty"`
	Schedule   []*models.ScheduleEntry `json:"schedule,omitempty"`
}

type BracketService interface {
	// GenerateBracket builds the structure for a seeded tournament and starts it.
	GenerateBracket(ctx context.Context, tournamentID int) (*BracketView, error)
	GetBracketView(ctx context.Context, tournamentID int) (*BracketView, error)
	// GenerateNextSwissRound pairs the next swiss round once the current one is decided.
	GenerateNextSwissRound(ctx context.Context, tournamentID int) (*BracketView, error)
}

type bracketService struct {
	repos    Repositories
	notifier Notifier
	logger   *slog.Logger
}

func NewBracketService(repos Repositories, notifier Notifier, logger *slog.Logger) BracketService {
	return &bracketService{
		repos:    repos,
		notifier: notifierOrNoop(notifier),
		logger:   loggerOrDefault(logger),
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	var rounds int
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return translateRepoError(err)
		}
		if err := requireStatus(t, models.StatusSeeding); err != nil {
			return err
		}
		existing, err := s.repos.Brackets.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list brackets: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: tournament %d already has a bracket", ErrInvalidState, tournamentID)
		}
		seeds, err := s.repos.Seedings.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list seedings: %w", err)
		}
		if len(seeds) == 0 {
			return fmt.Errorf("%w: tournament %d has not been seeded", ErrInvalidState, tournamentID)
		}

		gen, err := brackets.NewGenerator(t.Format)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		plan, err := gen.GenerateBracket(ctx, brackets.GenerateBracketParams{Tournament: t, Seeds: seeds})
		if err != nil {
			if errors.Is(err, brackets.ErrNotEnoughParticipants) {
				return fmt.Errorf("%w: %w", ErrValidation, err)
			}
			return fmt.Errorf("failed to generate %s bracket: %w", gen.GetName(), err)
		}

		created, err := persistPlan(ctx, exec, s.repos, t.ID, plan)
		if err != nil {
			return err
		}
		if t.Format.UsesStandings() {
			rows := make([]*models.Standing, 0, len(seeds))
			for _, seed := range seeds {
				rows = append(rows, &models.Standing{TournamentID: t.ID, TeamID: seed.TeamID, HeadToHead: models.HeadToHead{}})
			}
			if err := s.repos.Standings.BatchCreate(ctx, exec, rows); err != nil {
				return translateRepoError(err)
			}
			if err := recordPlanFixtures(ctx, exec, s.repos, t, plan, created); err != nil {
				return err
			}
		}

		if err := s.repos.Tournaments.UpdateProgress(ctx, exec, t.ID, plan.RoundsTotal, 1); err != nil {
			return translateRepoError(err)
		}
		t.RoundsTotal, t.CurrentRound = plan.RoundsTotal, 1
		if _, err := refreshProgress(ctx, exec, s.repos, t); err != nil {
			return err
		}
		rounds = plan.RoundsTotal
		return advanceStatus(ctx, exec, s.repos.Tournaments, t, models.StatusActive)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket generated", slog.Int("tournament_id", tournamentID), slog.Int("rounds_total", rounds))
	view, err := s.GetBracketView(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(tournamentID, brackets.EventBracketUpdated, view)
	return view, nil
}

func (s *bracketService) GenerateNextSwissRound(ctx context.Context, tournamentID int) (*BracketView, error) {
	var roundNo int
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return translateRepoError(err)
		}
		if t.Format != models.FormatSwiss {
			return fmt.Errorf("%w: tournament %d is not a swiss tournament", ErrInvalidState, tournamentID)
		}
		if err := requireStatus(t, models.StatusActive); err != nil {
			return err
		}
		p, err := refreshProgress(ctx, exec, s.repos, t)
		if err != nil {
			return err
		}
		if !p.allTerminal() {
			return fmt.Errorf("%w: round %d is still being played", ErrInvalidState, p.maxRound())
		}
		if p.maxRound() >= t.RoundsTotal {
			return fmt.Errorf("%w: all %d swiss rounds have been generated", ErrInvalidState, t.RoundsTotal)
		}
		roundNo = p.maxRound() + 1

		rows, err := s.repos.Standings.ListByTournament(ctx, exec, t.ID, true)
		if err != nil {
			return fmt.Errorf("failed to list standings: %w", err)
		}
		seeds, err := s.repos.Seedings.ListByTournament(ctx, exec, t.ID)
		if err != nil {
			return fmt.Errorf("failed to list seedings: %w", err)
		}
		seedOf := make(map[int]int, len(seeds))
		for _, seed := range seeds {
			seedOf[seed.TeamID] = seed.ID
		}
		byTeam := make(map[int]*models.Standing, len(rows))
		ranked := make([]brackets.SwissTeam, 0, len(rows))
		for _, row := range rows {
			byTeam[row.TeamID] = row
			team := brackets.SwissTeam{TeamID: row.TeamID}
			if id, ok := seedOf[row.TeamID]; ok {
				team.SeedID = intPtr(id)
			}
			ranked = append(ranked, team)
		}
		hadBye := make(map[int]bool)
		for _, m := range p.matches {
			if m.Status == models.MatchStatusBye && m.Team1ID != nil && m.Team2ID == nil {
				hadBye[*m.Team1ID] = true
			}
		}

		plan, err := brackets.SwissRound(roundNo, ranked,
			func(a, b int) bool {
				row, ok := byTeam[a]
				if !ok {
					return false
				}
				_, met := row.HeadToHead[b]
				return met
			},
			func(teamID int) bool { return hadBye[teamID] })
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}

		created, err := persistPlan(ctx, exec, s.repos, t.ID, plan)
		if err != nil {
			return err
		}
		if err := recordPlanFixtures(ctx, exec, s.repos, t, plan, created); err != nil {
			return err
		}
		_, err = refreshProgress(ctx, exec, s.repos, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "swiss round generated", slog.Int("tournament_id", tournamentID), slog.Int("round", roundNo))
	view, err := s.GetBracketView(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(tournamentID, brackets.EventBracketUpdated, view)
	return view, nil
}

// GetBracketView loads the tournament's structure in parallel.
func (s *bracketService) GetBracketView(ctx context.Context, tournamentID int) (*BracketView, error) {
	t, err := s.repos.Tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	view := &BracketView{Tournament: t}

	var (
		bs []*models.Bracket
		ms []*models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bs, err = s.repos.Brackets.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to fetch brackets of tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ms, err = s.repos.Matches.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to fetch matches of tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		view.Seedings, err = s.repos.Seedings.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to fetch seedings of tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	if t.Format.UsesStandings() {
		g.Go(func() error {
			var err error
			view.Standings, err = s.repos.Standings.ListByTournament(gCtx, nil, tournamentID, true)
			if err != nil {
				return fmt.Errorf("failed to fetch standings of tournament %d: %w", tournamentID, err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			view.Schedule, err = s.repos.Schedule.ListByTournament(gCtx, nil, tournamentID)
			if err != nil {
				return fmt.Errorf("failed to fetch schedule of tournament %d: %w", tournamentID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "failed to load bracket view", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return nil, err
	}

	grouped := make(map[int][]models.Match, len(bs))
	for _, m := range ms {
		grouped[m.BracketID] = append(grouped[m.BracketID], *m)
	}
	view.Brackets = make([]models.Bracket, 0, len(bs))
	for _, b := range bs {
		b.Matches = grouped[b.ID]
		if b.Matches == nil {
			b.Matches = []models.Match{}
		}
		view.Brackets = append(view.Brackets, *b)
	}
	return view, nil
}

// persistPlan stores brackets and matches, then wires match links once real
// ids are known. It returns the stored matches keyed by plan UID.
func persistPlan(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, tournamentID int, plan *brackets.Plan) (map[string]*models.Match, error) {
	bracketIDs := make(map[string]int, len(plan.Rounds))
	for _, r := range plan.Rounds {
		b := &models.Bracket{
			TournamentID:   tournamentID,
			RoundNumber:    r.RoundNumber,
			RoundName:      r.Name,
			BracketType:    r.Type,
			MatchesInRound: len(plan.MatchesIn(r.Key)),
			Status:         models.BracketStatusPending,
		}
		if err := repos.Brackets.Create(ctx, exec, b); err != nil {
			return nil, fmt.Errorf("failed to create bracket %q: %w", r.Name, translateRepoError(err))
		}
		bracketIDs[r.Key] = b.ID
	}

	now := time.Now()
	created := make(map[string]*models.Match, len(plan.Matches))
	for _, bm := range plan.Matches {
		m := &models.Match{
			TournamentID:     tournamentID,
			BracketID:        bracketIDs[bm.RoundKey],
			MatchNumber:      bm.OrderInRound,
			Team1ID:          bm.Team1ID,
			Team2ID:          bm.Team2ID,
			Team1SeedID:      bm.Team1SeedID,
			Team2SeedID:      bm.Team2SeedID,
			WinnerTeamID:     bm.WinnerTeamID,
			ExpectedEntrants: bm.ExpectedEntrants,
			Status:           bm.Status,
		}
		if bm.Status == models.MatchStatusBye {
			m.CompletedAt = &now
		}
		if err := repos.Matches.Create(ctx, exec, m); err != nil {
			return nil, fmt.Errorf("failed to create match %s: %w", bm.UID, translateRepoError(err))
		}
		created[bm.UID] = m
	}

	for _, bm := range plan.Matches {
		if bm.NextMatchUID == nil && bm.ConsolationMatchUID == nil {
			continue
		}
		m := created[bm.UID]
		if bm.NextMatchUID != nil {
			m.NextMatchID = intPtr(created[*bm.NextMatchUID].ID)
			m.NextMatchSlot = intPtr(bm.NextSlot)
		}
		if bm.ConsolationMatchUID != nil {
			m.ConsolationMatchID = intPtr(created[*bm.ConsolationMatchUID].ID)
			m.ConsolationMatchSlot = intPtr(bm.ConsolationSlot)
		}
		if err := repos.Matches.UpdateLinks(ctx, exec, m); err != nil {
			return nil, fmt.Errorf("failed to link match %s: %w", bm.UID, translateRepoError(err))
		}
	}
	return created, nil
}

// recordPlanFixtures creates schedule entries for league fixtures and scores
// swiss byes in the table.
func recordPlanFixtures(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, t *models.Tournament, plan *brackets.Plan, created map[string]*models.Match) error {
	entries := make([]*models.ScheduleEntry, 0, len(plan.Fixtures))
	for _, f := range plan.Fixtures {
		e := &models.ScheduleEntry{
			TournamentID: t.ID,
			RoundNumber:  f.RoundNumber,
			Team1ID:      f.Team1ID,
			Team2ID:      f.Team2ID,
			VenueID:      t.VenueID,
		}
		if m, ok := created[f.MatchUID]; ok {
			e.MatchID = intPtr(m.ID)
		}
		entries = append(entries, e)
	}
	if len(entries) > 0 {
		if err := repos.Schedule.BatchCreate(ctx, exec, entries); err != nil {
			return translateRepoError(err)
		}
	}

	for _, bm := range plan.Matches {
		if bm.Status != models.MatchStatusBye || bm.WinnerTeamID == nil {
			continue
		}
		row, err := repos.Standings.GetByTournamentAndTeam(ctx, exec, t.ID, *bm.WinnerTeamID)
		if err != nil {
			return translateRepoError(err)
		}
		standings.RecordBye(row, t.PointSystem())
		if err := repos.Standings.Update(ctx, exec, row); err != nil {
			return translateRepoError(err)
		}
	}
	return rankTable(ctx, exec, repos, t)
}

// rankTable recomputes ranking, tie and qualification flags for every row.
func rankTable(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, t *models.Tournament) error {
	rows, err := repos.Standings.ListByTournament(ctx, exec, t.ID, false)
	if err != nil {
		return fmt.Errorf("failed to list standings of tournament %d: %w", t.ID, err)
	}
	standings.Rank(rows, t.PointSystem(), t.QualificationCount)
	for _, row := range rows {
		if err := repos.Standings.Update(ctx, exec, row); err != nil {
			return translateRepoError(err)
		}
	}
	return nil
}
