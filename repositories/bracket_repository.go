package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var ErrBracketNotFound = errors.New("bracket not found")

type BracketRepository interface {
	Create(ctx context.Context, exec SQLExecutor, b *models.Bracket) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Bracket, error)
	// ListByTournament returns brackets ordered by round, then type, then id.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Bracket, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.BracketStatus) error
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const bracketColumns = `id, tournament_id, round_number, round_name, bracket_type, matches_in_round, status, created_at`

func scanBracket(row rowScanner) (*models.Bracket, error) {
	b := &models.Bracket{}
	err := row.Scan(&b.ID, &b.TournamentID, &b.RoundNumber, &b.RoundName, &b.BracketType, &b.MatchesInRound, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *postgresBracketRepository) Create(ctx context.Context, exec SQLExecutor, b *models.Bracket) error {
	query := `
		INSERT INTO tournament_brackets (tournament_id, round_number, round_name, bracket_type, matches_in_round, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.getExecutor(exec).QueryRowContext(ctx, query,
		b.TournamentID, b.RoundNumber, b.RoundName, b.BracketType, b.MatchesInRound, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Bracket, error) {
	query := `SELECT ` + bracketColumns + ` FROM tournament_brackets WHERE id = $1`
	return scanBracket(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresBracketRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Bracket, error) {
	query := `SELECT ` + bracketColumns + ` FROM tournament_brackets WHERE tournament_id = $1 ORDER BY round_number ASC, bracket_type DESC, id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*models.Bracket, 0)
	for rows.Next() {
		b, scanErr := scanBracket(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		list = append(list, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *postgresBracketRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.BracketStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE tournament_brackets SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}
