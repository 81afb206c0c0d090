package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var (
	ErrResultNotFound           = errors.New("tournament result not found")
	ErrPlacementTaken           = errors.New("placement already recorded for this tournament and category")
	ErrCertificateAlreadyIssued = errors.New("certificate number already issued")
	ErrCertificateCollision     = errors.New("certificate number already belongs to another result")
	ErrResultAlreadyPublished   = errors.New("result is already published")
	ErrResultNotPublished       = errors.New("result is not published")
)

type ResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, res *models.TournamentResult) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentResult, error)
	// ListByTournament returns results ordered by placement.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentResult, error)
	// SetCertificateNumber writes the number only when none is stored yet.
	SetCertificateNumber(ctx context.Context, exec SQLExecutor, id int, number string) error
	Publish(ctx context.Context, exec SQLExecutor, id int, verifiedBy *int, at time.Time) error
	Unpublish(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const resultColumns = `
	id, tournament_id, category_id, placement, team_id, score, medal_type, is_published,
	published_at, verified_by, certificate_number, created_at`

func scanResult(row rowScanner) (*models.TournamentResult, error) {
	res := &models.TournamentResult{}
	err := row.Scan(
		&res.ID, &res.TournamentID, &res.CategoryID, &res.Placement, &res.TeamID, &res.Score, &res.MedalType, &res.IsPublished,
		&res.PublishedAt, &res.VerifiedBy, &res.CertificateNumber, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *postgresResultRepository) Create(ctx context.Context, exec SQLExecutor, res *models.TournamentResult) error {
	query := `
		INSERT INTO tournament_results (tournament_id, category_id, placement, team_id, score, medal_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_published, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		res.TournamentID, res.CategoryID, res.Placement, res.TeamID, res.Score, res.MedalType,
	).Scan(&res.ID, &res.IsPublished, &res.CreatedAt)
	return r.handleResultError(err)
}

func (r *postgresResultRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentResult, error) {
	query := `SELECT ` + resultColumns + ` FROM tournament_results WHERE id = $1`
	return scanResult(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresResultRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentResult, error) {
	query := `SELECT ` + resultColumns + ` FROM tournament_results WHERE tournament_id = $1 ORDER BY placement ASC, id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*models.TournamentResult, 0)
	for rows.Next() {
		res, scanErr := scanResult(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *postgresResultRepository) SetCertificateNumber(ctx context.Context, exec SQLExecutor, id int, number string) error {
	query := `UPDATE tournament_results SET certificate_number = $1 WHERE id = $2 AND certificate_number IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, number, id)
	if err != nil {
		return r.handleResultError(err)
	}
	return checkAffectedRows(result, ErrCertificateAlreadyIssued)
}

// Publish sets flag, timestamp and verifier in one statement.
func (r *postgresResultRepository) Publish(ctx context.Context, exec SQLExecutor, id int, verifiedBy *int, at time.Time) error {
	query := `
		UPDATE tournament_results SET is_published = TRUE, published_at = $1, verified_by = $2
		WHERE id = $3 AND is_published = FALSE`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, at, verifiedBy, id)
	if err != nil {
		return r.handleResultError(err)
	}
	return checkAffectedRows(result, ErrResultAlreadyPublished)
}

// Unpublish clears flag and timestamp together.
func (r *postgresResultRepository) Unpublish(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE tournament_results SET is_published = FALSE, published_at = NULL WHERE id = $1 AND is_published = TRUE`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return r.handleResultError(err)
	}
	return checkAffectedRows(result, ErrResultNotPublished)
}

func (r *postgresResultRepository) handleResultError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok && pqErr.Code == pqUniqueViolation {
		switch pqErr.Constraint {
		case "tournament_results_tournament_id_category_id_placement_key":
			return ErrPlacementTaken
		case "tournament_results_certificate_number_key":
			return ErrCertificateCollision
		}
	}
	return err
}
