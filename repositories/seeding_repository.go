package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var (
	ErrSeedingNotFound     = errors.New("seeding not found")
	ErrSeedNumberConflict  = errors.New("seed number already used in this tournament")
	ErrTeamAlreadySeeded   = errors.New("team is already seeded in this tournament")
	ErrSeedingInvalidTourn = errors.New("invalid tournament reference for seeding")
)

type SeedingRepository interface {
	// BatchCreate inserts all rows and fills their ids; call it inside a transaction.
	BatchCreate(ctx context.Context, exec SQLExecutor, seeds []*models.Seeding) error
	// ListByTournament returns seedings ordered by seed number.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Seeding, error)
	GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Seeding, error)
	UpdateStats(ctx context.Context, exec SQLExecutor, s *models.Seeding) error
}

type postgresSeedingRepository struct {
	db *sql.DB
}

func NewPostgresSeedingRepository(db *sql.DB) SeedingRepository {
	return &postgresSeedingRepository{db: db}
}

func (r *postgresSeedingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const seedingColumns = `
	id, tournament_id, team_id, seed_number, seeding_score, elo_rating, matches_played,
	matches_won, matches_lost, points_for, points_against, created_at, updated_at`

func scanSeeding(row rowScanner) (*models.Seeding, error) {
	s := &models.Seeding{}
	err := row.Scan(
		&s.ID, &s.TournamentID, &s.TeamID, &s.SeedNumber, &s.SeedingScore, &s.EloRating, &s.MatchesPlayed,
		&s.MatchesWon, &s.MatchesLost, &s.PointsFor, &s.PointsAgainst, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeedingNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSeedingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, seeds []*models.Seeding) error {
	if len(seeds) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_seedings (
			tournament_id, team_id, seed_number, seeding_score, elo_rating, matches_played,
			matches_won, matches_lost, points_for, points_against
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	for _, s := range seeds {
		err := executor.QueryRowContext(ctx, query,
			s.TournamentID, s.TeamID, s.SeedNumber, s.SeedingScore, s.EloRating, s.MatchesPlayed,
			s.MatchesWon, s.MatchesLost, s.PointsFor, s.PointsAgainst,
		).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create seeding for team %d: %w", s.TeamID, r.handleSeedingError(err))
		}
	}
	return nil
}

func (r *postgresSeedingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Seeding, error) {
	query := `SELECT ` + seedingColumns + ` FROM tournament_seedings WHERE tournament_id = $1 ORDER BY seed_number ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seeds := make([]*models.Seeding, 0)
	for rows.Next() {
		s, scanErr := scanSeeding(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		seeds = append(seeds, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return seeds, nil
}

func (r *postgresSeedingRepository) GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Seeding, error) {
	query := `SELECT ` + seedingColumns + ` FROM tournament_seedings WHERE tournament_id = $1 AND team_id = $2`
	return scanSeeding(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, teamID))
}

// UpdateStats writes elo and match stats only; seed number and score are fixed once created.
func (r *postgresSeedingRepository) UpdateStats(ctx context.Context, exec SQLExecutor, s *models.Seeding) error {
	query := `
		UPDATE tournament_seedings SET
			elo_rating = $1, matches_played = $2, matches_won = $3, matches_lost = $4,
			points_for = $5, points_against = $6, updated_at = NOW()
		WHERE id = $7`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		s.EloRating, s.MatchesPlayed, s.MatchesWon, s.MatchesLost, s.PointsFor, s.PointsAgainst, s.ID,
	)
	if err != nil {
		return r.handleSeedingError(err)
	}
	return checkAffectedRows(result, ErrSeedingNotFound)
}

func (r *postgresSeedingRepository) handleSeedingError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			switch pqErr.Constraint {
			case "tournament_seedings_tournament_id_seed_number_key":
				return ErrSeedNumberConflict
			case "tournament_seedings_tournament_id_team_id_key":
				return ErrTeamAlreadySeeded
			}
		case pqForeignKeyViolation:
			return ErrSeedingInvalidTourn
		}
	}
	return err
}
