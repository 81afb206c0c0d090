package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
	"github.com/Dosada05/robotics-tournament-core/seeding"
)

// SeedOptions override the tournament's seeding method. RandomSeed makes
// random seeding reproducible.
type SeedOptions struct {
	Method     models.SeedingMethod `json:"method,omitempty"`
	RandomSeed *int64               `json:"random_seed,omitempty"`
}

type SeedingService interface {
	SeedTournament(ctx context.Context, tournamentID int, opts SeedOptions) ([]*models.Seeding, error)
	ListSeedings(ctx context.Context, tournamentID int) ([]*models.Seeding, error)
}

type seedingService struct {
	repos  Repositories
	logger *slog.Logger
}

func NewSeedingService(repos Repositories, logger *slog.Logger) SeedingService {
	return &seedingService{repos: repos, logger: loggerOrDefault(logger)}
}

// SeedTournament orders the entrants and stores every seed in one transaction.
func (s *seedingService) SeedTournament(ctx context.Context, tournamentID int, opts SeedOptions) ([]*models.Seeding, error) {
	var seeds []*models.Seeding
	method := opts.Method
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return translateRepoError(err)
		}
		if err := requireStatus(t, models.StatusSeeding); err != nil {
			return err
		}
		existing, err := s.repos.Seedings.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list seedings: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: tournament %d is already seeded", ErrInvalidState, tournamentID)
		}

		entrants, err := s.repos.Entrants.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list entrants: %w", err)
		}
		if len(entrants) > t.MaxTeams {
			return fmt.Errorf("%w: %d entrants for %d places", ErrCapacity, len(entrants), t.MaxTeams)
		}

		if method == "" {
			method = t.SeedingMethod
		}
		if !method.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidSeedingMethod, method)
		}
		seeds, err = seeding.Assign(tournamentID, entrants, seeding.Options{Method: method, RandomSeed: opts.RandomSeed})
		if err != nil {
			return mapSeedingError(err)
		}
		if err := s.repos.Seedings.BatchCreate(ctx, exec, seeds); err != nil {
			return translateRepoError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tournament seeded",
		slog.Int("tournament_id", tournamentID),
		slog.String("method", string(method)),
		slog.Int("teams", len(seeds)))
	return seeds, nil
}

func (s *seedingService) ListSeedings(ctx context.Context, tournamentID int) ([]*models.Seeding, error) {
	if _, err := s.repos.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, translateRepoError(err)
	}
	seeds, err := s.repos.Seedings.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seedings of tournament %d: %w", tournamentID, err)
	}
	return seeds, nil
}

func mapSeedingError(err error) error {
	switch {
	case errors.Is(err, seeding.ErrNotEnoughEntrants),
		errors.Is(err, seeding.ErrInvalidManualSeeds):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, seeding.ErrUnknownMethod):
		return fmt.Errorf("%w: %w", ErrInvalidSeedingMethod, err)
	}
	return err
}
