package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var (
	ErrEntrantNotFound     = errors.New("team is not registered for this tournament")
	ErrEntrantExists       = errors.New("team is already registered for this tournament")
	ErrEntrantInvalidTeam  = errors.New("invalid team reference")
	ErrEntrantInvalidTourn = errors.New("invalid tournament reference")
)

// EntrantRepository stores tournament registrations (tournament_teams).
type EntrantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, e *models.Entrant) error
	GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Entrant, error)
	// ListByTournament returns entrants in registration order.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Entrant, error)
	UpdateManualSeed(ctx context.Context, exec SQLExecutor, tournamentID, teamID int, seed *int) error
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) error
}

type postgresEntrantRepository struct {
	db *sql.DB
}

func NewPostgresEntrantRepository(db *sql.DB) EntrantRepository {
	return &postgresEntrantRepository{db: db}
}

func (r *postgresEntrantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const entrantColumns = `
	id, tournament_id, team_id, region, elo_rating, matches_played, matches_won, matches_lost,
	points_for, points_against, manual_seed, registered_at`

func scanEntrant(row rowScanner) (*models.Entrant, error) {
	e := &models.Entrant{}
	err := row.Scan(
		&e.ID, &e.TournamentID, &e.TeamID, &e.Region, &e.EloRating, &e.MatchesPlayed, &e.MatchesWon, &e.MatchesLost,
		&e.PointsFor, &e.PointsAgainst, &e.ManualSeed, &e.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntrantNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresEntrantRepository) Create(ctx context.Context, exec SQLExecutor, e *models.Entrant) error {
	query := `
		INSERT INTO tournament_teams (
			tournament_id, team_id, region, elo_rating, matches_played, matches_won, matches_lost,
			points_for, points_against, manual_seed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, registered_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		e.TournamentID, e.TeamID, e.Region, e.EloRating, e.MatchesPlayed, e.MatchesWon, e.MatchesLost,
		e.PointsFor, e.PointsAgainst, e.ManualSeed,
	).Scan(&e.ID, &e.RegisteredAt)
	return r.handleEntrantError(err)
}

func (r *postgresEntrantRepository) GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Entrant, error) {
	query := `SELECT ` + entrantColumns + ` FROM tournament_teams WHERE tournament_id = $1 AND team_id = $2`
	return scanEntrant(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, teamID))
}

func (r *postgresEntrantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Entrant, error) {
	query := `SELECT ` + entrantColumns + ` FROM tournament_teams WHERE tournament_id = $1 ORDER BY id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entrants := make([]*models.Entrant, 0)
	for rows.Next() {
		e, scanErr := scanEntrant(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entrants = append(entrants, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entrants, nil
}

func (r *postgresEntrantRepository) UpdateManualSeed(ctx context.Context, exec SQLExecutor, tournamentID, teamID int, seed *int) error {
	query := `UPDATE tournament_teams SET manual_seed = $1 WHERE tournament_id = $2 AND team_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, seed, tournamentID, teamID)
	if err != nil {
		return r.handleEntrantError(err)
	}
	return checkAffectedRows(result, ErrEntrantNotFound)
}

func (r *postgresEntrantRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) error {
	query := `DELETE FROM tournament_teams WHERE tournament_id = $1 AND team_id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, teamID)
	if err != nil {
		return r.handleEntrantError(err)
	}
	return checkAffectedRows(result, ErrEntrantNotFound)
}

func (r *postgresEntrantRepository) handleEntrantError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == "tournament_teams_tournament_id_team_id_key" {
				return ErrEntrantExists
			}
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "tournament_teams_team_id_fkey":
				return ErrEntrantInvalidTeam
			case "tournament_teams_tournament_id_fkey":
				return ErrEntrantInvalidTourn
			}
		}
	}
	return err
}
