package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
	"github.com/Dosada05/robotics-tournament-core/standings"
)

// Error kinds surfaced to callers. Handlers map them to HTTP statuses.
var (
	ErrNotFound          = errors.New("requested resource not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidState      = errors.New("operation not allowed in the current state")
	ErrIntegrityConflict = errors.New("integrity conflict")
	ErrCapacity          = errors.New("capacity exceeded")

	// ErrAlreadyCompleted is an ErrInvalidState: the match or fixture already has its result.
	ErrAlreadyCompleted = fmt.Errorf("%w: already completed", ErrInvalidState)
	// ErrDrawNotAllowed is an ErrValidation raised by knockout formats.
	ErrDrawNotAllowed = fmt.Errorf("%w: equal scores cannot decide a knockout match", ErrValidation)
)

var (
	ErrTournamentNameRequired = fmt.Errorf("%w: tournament name is required", ErrValidation)
	ErrInvalidFormat          = fmt.Errorf("%w: unknown tournament format", ErrValidation)
	ErrInvalidSeedingMethod   = fmt.Errorf("%w: unknown seeding method", ErrValidation)
	ErrInvalidCapacity        = fmt.Errorf("%w: max_teams must be at least 2", ErrValidation)
	ErrInvalidLegs            = fmt.Errorf("%w: round_robin_legs must be 1 or 2", ErrValidation)
	ErrInvalidPoints          = fmt.Errorf("%w: points per result cannot be negative", ErrValidation)
	ErrTeamNotEligible        = fmt.Errorf("%w: team is not eligible for this category", ErrValidation)
	ErrScoresRequired         = fmt.Errorf("%w: both scores are required and cannot be negative", ErrValidation)
	ErrForfeitReasonRequired  = fmt.Errorf("%w: forfeit reason is required", ErrValidation)
	ErrTeamNotInMatch         = fmt.Errorf("%w: team does not play in this match", ErrValidation)
	ErrUnresolvedTie          = fmt.Errorf("%w: tied teams need an explicit tie order before placements can be assigned", ErrValidation)
)

// translateRepoError maps repository sentinels onto the service error kinds,
// keeping the original error in the chain.
func translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrEntrantNotFound),
		errors.Is(err, repositories.ErrSeedingNotFound),
		errors.Is(err, repositories.ErrBracketNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrScheduleEntryNotFound),
		errors.Is(err, repositories.ErrStandingNotFound),
		errors.Is(err, repositories.ErrResultNotFound),
		errors.Is(err, repositories.ErrTeamNotFound),
		errors.Is(err, repositories.ErrCategoryNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)

	case errors.Is(err, repositories.ErrTournamentFull):
		return fmt.Errorf("%w: %w", ErrCapacity, err)

	case errors.Is(err, repositories.ErrMatchAlreadyCompleted),
		errors.Is(err, repositories.ErrFixtureAlreadyPlayed):
		return fmt.Errorf("%w: %w", ErrAlreadyCompleted, err)

	case errors.Is(err, repositories.ErrTournamentStatusChanged),
		errors.Is(err, repositories.ErrMatchNotReady),
		errors.Is(err, repositories.ErrResultAlreadyPublished),
		errors.Is(err, repositories.ErrResultNotPublished),
		errors.Is(err, repositories.ErrCertificateAlreadyIssued):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)

	case errors.Is(err, repositories.ErrEntrantExists),
		errors.Is(err, repositories.ErrSeedNumberConflict),
		errors.Is(err, repositories.ErrTeamAlreadySeeded),
		errors.Is(err, repositories.ErrMatchNumberConflict),
		errors.Is(err, repositories.ErrStandingTeamConflict),
		errors.Is(err, repositories.ErrStandingInconsistent),
		errors.Is(err, repositories.ErrPlacementTaken),
		errors.Is(err, repositories.ErrCertificateCollision),
		errors.Is(err, repositories.ErrTournamentRoundOverflow),
		errors.Is(err, models.ErrInvalidHeadToHead):
		return fmt.Errorf("%w: %w", ErrIntegrityConflict, err)

	case errors.Is(err, repositories.ErrTournamentInvalidCategory),
		errors.Is(err, repositories.ErrEntrantInvalidTeam),
		errors.Is(err, repositories.ErrEntrantInvalidTourn),
		errors.Is(err, repositories.ErrTournamentInvalidTeam),
		errors.Is(err, repositories.ErrMatchInvalidReference),
		errors.Is(err, repositories.ErrSeedingInvalidTourn),
		errors.Is(err, repositories.ErrStandingInvalidRecord),
		errors.Is(err, standings.ErrInvalidResult):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}
