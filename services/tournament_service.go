package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
)

// TournamentDefaults fill in settings a new tournament does not specify.
type TournamentDefaults struct {
	QualificationCount int
	Points             models.PointSystem
}

func DefaultTournamentDefaults() TournamentDefaults {
	return TournamentDefaults{QualificationCount: 3, Points: models.DefaultPointSystem()}
}

type TournamentInput struct {
	Name               string                  `json:"name"`
	Format             models.TournamentFormat `json:"format"`
	CategoryID         int                     `json:"category_id"`
	VenueID            *int                    `json:"venue_id,omitempty"`
	MaxTeams           int                     `json:"max_teams"`
	SeedingMethod      models.SeedingMethod    `json:"seeding_method,omitempty"`
	QualificationCount *int                    `json:"qualification_count,omitempty"`
	PointsPerWin       *int                    `json:"points_per_win,omitempty"`
	PointsPerDraw      *int                    `json:"points_per_draw,omitempty"`
	PointsPerLoss      *int                    `json:"points_per_loss,omitempty"`
	ThirdPlaceMatch    bool                    `json:"third_place_match"`
	RoundRobinLegs     int                     `json:"round_robin_legs,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input TournamentInput, actorID *int) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error

	OpenRegistration(ctx context.Context, id int) (*models.Tournament, error)
	CloseRegistration(ctx context.Context, id int) (*models.Tournament, error)
	RegisterTeam(ctx context.Context, tournamentID, teamID int) (*models.Entrant, error)
	WithdrawTeam(ctx context.Context, tournamentID, teamID int) error
	SetManualSeed(ctx context.Context, tournamentID, teamID int, seed *int) error
	ListEntrants(ctx context.Context, tournamentID int) ([]*models.Entrant, error)
}

type tournamentService struct {
	repos    Repositories
	defaults TournamentDefaults
	logger   *slog.Logger
}

func NewTournamentService(repos Repositories, defaults TournamentDefaults, logger *slog.Logger) TournamentService {
	return &tournamentService{
		repos:    repos,
		defaults: defaults,
		logger:   loggerOrDefault(logger),
	}
}

// apply validates input and writes it onto t, filling defaults.
func (s *tournamentService) apply(t *models.Tournament, input TournamentInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ErrTournamentNameRequired
	}
	if !input.Format.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, input.Format)
	}
	if input.MaxTeams < 2 {
		return ErrInvalidCapacity
	}
	method := input.SeedingMethod
	if method == "" {
		method = models.SeedingPerformance
	}
	if !method.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeedingMethod, method)
	}
	legs := input.RoundRobinLegs
	if legs == 0 {
		legs = 1
	}
	if legs != 1 && legs != 2 {
		return ErrInvalidLegs
	}

	points := s.defaults.Points
	if input.PointsPerWin != nil {
		points.Win = *input.PointsPerWin
	}
	if input.PointsPerDraw != nil {
		points.Draw = *input.PointsPerDraw
	}
	if input.PointsPerLoss != nil {
		points.Loss = *input.PointsPerLoss
	}
	if points.Win < 0 || points.Draw < 0 || points.Loss < 0 {
		return ErrInvalidPoints
	}
	qualify := s.defaults.QualificationCount
	if input.QualificationCount != nil {
		qualify = *input.QualificationCount
	}
	if qualify < 0 {
		return fmt.Errorf("%w: qualification_count cannot be negative", ErrValidation)
	}

	t.Name = name
	t.Format = input.Format
	t.CategoryID = input.CategoryID
	t.VenueID = input.VenueID
	t.MaxTeams = input.MaxTeams
	t.SeedingMethod = method
	t.QualificationCount = qualify
	t.PointsPerWin, t.PointsPerDraw, t.PointsPerLoss = points.Win, points.Draw, points.Loss
	t.ThirdPlaceMatch = input.ThirdPlaceMatch && input.Format == models.FormatElimination
	t.RoundRobinLegs = legs
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, input TournamentInput, actorID *int) (*models.Tournament, error) {
	t := &models.Tournament{Status: models.StatusSetup, CreatedBy: actorID}
	if err := s.apply(t, input); err != nil {
		return nil, err
	}
	if _, err := s.repos.Categories.GetCategory(ctx, nil, t.CategoryID); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, fmt.Errorf("%w: category %d does not exist", ErrValidation, t.CategoryID)
		}
		return nil, fmt.Errorf("failed to check category %d: %w", t.CategoryID, err)
	}
	if err := s.repos.Tournaments.Create(ctx, nil, t); err != nil {
		return nil, translateRepoError(err)
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", t.ID), slog.String("format", string(t.Format)))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.repos.Tournaments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	ts, err := s.repos.Tournaments.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return ts, nil
}

// UpdateTournament is allowed until registration closes.
func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error) {
	var updated *models.Tournament
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return translateRepoError(err)
		}
		if err := requireStatus(t, models.StatusSetup, models.StatusRegistration); err != nil {
			return err
		}
		if err := s.apply(t, input); err != nil {
			return err
		}
		if input.MaxTeams < t.CurrentTeams {
			return fmt.Errorf("%w: %d teams are already registered", ErrCapacity, t.CurrentTeams)
		}
		if _, err := s.repos.Categories.GetCategory(ctx, exec, t.CategoryID); err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return fmt.Errorf("%w: category %d does not exist", ErrValidation, t.CategoryID)
			}
			return err
		}
		if err := s.repos.Tournaments.Update(ctx, exec, t); err != nil {
			return translateRepoError(err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	return s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return translateRepoError(err)
		}
		if t.Status == models.StatusActive {
			return fmt.Errorf("%w: an active tournament cannot be deleted", ErrInvalidState)
		}
		return translateRepoError(s.repos.Tournaments.SoftDelete(ctx, exec, id))
	})
}

func (s *tournamentService) transition(ctx context.Context, id int, to models.TournamentStatus, check func(t *models.Tournament) error) (*models.Tournament, error) {
	var out *models.Tournament
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return translateRepoError(err)
		}
		// status first; content checks only apply to an allowed step
		if !t.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: tournament %d cannot move from %s to %s", ErrInvalidState, t.ID, t.Status, to)
		}
		if check != nil {
			if err := check(t); err != nil {
				return err
			}
		}
		if err := advanceStatus(ctx, exec, s.repos.Tournaments, t, to); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tournament status changed", slog.Int("tournament_id", id), slog.String("status", string(to)))
	return out, nil
}

func (s *tournamentService) OpenRegistration(ctx context.Context, id int) (*models.Tournament, error) {
	return s.transition(ctx, id, models.StatusRegistration, nil)
}

// CloseRegistration moves the tournament to seeding; a tournament cannot run with fewer than two teams.
func (s *tournamentService) CloseRegistration(ctx context.Context, id int) (*models.Tournament, error) {
	return s.transition(ctx, id, models.StatusSeeding, func(t *models.Tournament) error {
		if t.CurrentTeams < 2 {
			return fmt.Errorf("%w: %d registered teams, at least 2 are required", ErrValidation, t.CurrentTeams)
		}
		return nil
	})
}

// RegisterTeam snapshots the team's record and takes one place of the
// tournament's capacity with a conditional increment.
func (s *tournamentService) RegisterTeam(ctx context.Context, tournamentID, teamID int) (*models.Entrant, error) {
	var entrant *models.Entrant
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return translateRepoError(err)
		}
		if err := requireStatus(t, models.StatusRegistration); err != nil {
			return err
		}
		profile, err := s.repos.Teams.GetTeamProfile(ctx, exec, teamID)
		if err != nil {
			return translateRepoError(err)
		}
		ok, err := s.repos.Teams.IsEligible(ctx, exec, teamID, t.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to check eligibility of team %d: %w", teamID, err)
		}
		if !ok {
			return fmt.Errorf("%w: team %d, category %d", ErrTeamNotEligible, teamID, t.CategoryID)
		}

		if err := s.repos.Tournaments.IncrementTeamCount(ctx, exec, tournamentID); err != nil {
			return translateRepoError(err)
		}
		e := &models.Entrant{
			TournamentID:  tournamentID,
			TeamID:        teamID,
			Region:        profile.Region,
			EloRating:     profile.EloRating,
			MatchesPlayed: profile.MatchesPlayed,
			MatchesWon:    profile.MatchesWon,
			MatchesLost:   profile.MatchesLost,
			PointsFor:     profile.PointsFor,
			PointsAgainst: profile.PointsAgainst,
		}
		if e.EloRating == 0 {
			e.EloRating = models.DefaultEloRating
		}
		if err := s.repos.Entrants.Create(ctx, exec, e); err != nil {
			return translateRepoError(err)
		}
		entrant = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "team registered", slog.Int("tournament_id", tournamentID), slog.Int("team_id", teamID))
	return entrant, nil
}

func (s *tournamentService) WithdrawTeam(ctx context.Context, tournamentID, teamID int) error {
	return s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return translateRepoError(err)
		}
		if err := requireStatus(t, models.StatusRegistration); err != nil {
			return err
		}
		if err := s.repos.Entrants.Delete(ctx, exec, tournamentID, teamID); err != nil {
			return translateRepoError(err)
		}
		return translateRepoError(s.repos.Tournaments.DecrementTeamCount(ctx, exec, tournamentID))
	})
}

// SetManualSeed stores an organizer-chosen seed; it is only read by manual seeding.
func (s *tournamentService) SetManualSeed(ctx context.Context, tournamentID, teamID int, seed *int) error {
	return s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return translateRepoError(err)
		}
		if err := requireStatus(t, models.StatusRegistration, models.StatusSeeding); err != nil {
			return err
		}
		seeds, err := s.repos.Seedings.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list seedings: %w", err)
		}
		if len(seeds) > 0 {
			return fmt.Errorf("%w: tournament %d is already seeded", ErrInvalidState, tournamentID)
		}
		if seed != nil && (*seed < 1 || *seed > t.MaxTeams) {
			return fmt.Errorf("%w: seed %d out of range 1..%d", ErrValidation, *seed, t.MaxTeams)
		}
		return translateRepoError(s.repos.Entrants.UpdateManualSeed(ctx, exec, tournamentID, teamID, seed))
	})
}

func (s *tournamentService) ListEntrants(ctx context.Context, tournamentID int) ([]*models.Entrant, error) {
	if _, err := s.repos.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, translateRepoError(err)
	}
	es, err := s.repos.Entrants.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entrants of tournament %d: %w", tournamentID, err)
	}
	return es, nil
}

// completeTournament closes an active tournament and writes its results in
// the caller's transaction.
func completeTournament(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, t *models.Tournament, p *progress) ([]*models.TournamentResult, error) {
	if err := advanceStatus(ctx, exec, repos.Tournaments, t, models.StatusCompleted); err != nil {
		return nil, err
	}
	results, err := generateResults(ctx, exec, repos, t, p, nil)
	if errors.Is(err, ErrUnresolvedTie) {
		// placements wait for the organizer's tie order
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// isFinished reports whether every match is decided and, for swiss, every round was played.
func isFinished(t *models.Tournament, p *progress) bool {
	if !p.allTerminal() {
		return false
	}
	if t.Format == models.FormatSwiss {
		return p.maxRound() >= t.RoundsTotal
	}
	return true
}
