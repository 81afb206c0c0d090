package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/robotics-tournament-core/models"
)

type StandingService interface {
	// ListStandings returns the league table in ranking order.
	ListStandings(ctx context.Context, tournamentID int) ([]*models.Standing, error)
	ListSchedule(ctx context.Context, tournamentID int) ([]*models.ScheduleEntry, error)
}

type standingService struct {
	repos  Repositories
	logger *slog.Logger
}

func NewStandingService(repos Repositories, logger *slog.Logger) StandingService {
	return &standingService{repos: repos, logger: loggerOrDefault(logger)}
}

func (s *standingService) leagueTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	t, err := s.repos.Tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if !t.Format.UsesStandings() {
		return nil, fmt.Errorf("%w: %s tournaments keep no table", ErrInvalidState, t.Format)
	}
	return t, nil
}

func (s *standingService) ListStandings(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	if _, err := s.leagueTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	rows, err := s.repos.Standings.ListByTournament(ctx, nil, tournamentID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of tournament %d: %w", tournamentID, err)
	}
	return rows, nil
}

func (s *standingService) ListSchedule(ctx context.Context, tournamentID int) ([]*models.ScheduleEntry, error) {
	if _, err := s.leagueTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	entries, err := s.repos.Schedule.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule of tournament %d: %w", tournamentID, err)
	}
	return entries, nil
}
