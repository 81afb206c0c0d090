package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchAlreadyCompleted = errors.New("match already reached a terminal status")
	ErrMatchNotReady         = errors.New("match is not ready to start")
	ErrMatchNumberConflict   = errors.New("match number already used in this bracket")
	ErrMatchInvalidReference = errors.New("invalid match reference")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, m *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	ListByBracket(ctx context.Context, exec SQLExecutor, bracketID int) ([]*models.Match, error)
	UpdateLinks(ctx context.Context, exec SQLExecutor, m *models.Match) error
	// UpdateSlots writes team slots and status of a match that has not been played.
	UpdateSlots(ctx context.Context, exec SQLExecutor, m *models.Match) error
	Schedule(ctx context.Context, exec SQLExecutor, id int, venueID *int, tableNumber *string, scheduledAt *time.Time) error
	// Start moves a ready match with both teams and no start time to in_progress.
	Start(ctx context.Context, exec SQLExecutor, id int, startedAt time.Time) error
	// Complete writes the terminal state once; a second call yields ErrMatchAlreadyCompleted.
	Complete(ctx context.Context, exec SQLExecutor, m *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, bracket_id, match_number, team1_id, team2_id, team1_seed_id, team2_seed_id,
	team1_score, team2_score, winner_team_id, loser_team_id, next_match_id, next_match_slot,
	consolation_match_id, consolation_match_slot, expected_entrants, venue_id, table_number,
	scheduled_at, started_at, completed_at, status, forfeit_reason, created_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.BracketID, &m.MatchNumber, &m.Team1ID, &m.Team2ID, &m.Team1SeedID, &m.Team2SeedID,
		&m.Team1Score, &m.Team2Score, &m.WinnerTeamID, &m.LoserTeamID, &m.NextMatchID, &m.NextMatchSlot,
		&m.ConsolationMatchID, &m.ConsolationMatchSlot, &m.ExpectedEntrants, &m.VenueID, &m.TableNumber,
		&m.ScheduledAt, &m.StartedAt, &m.CompletedAt, &m.Status, &m.ForfeitReason, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) listMatches(ctx context.Context, exec SQLExecutor, query string, arg int) ([]*models.Match, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		INSERT INTO tournament_matches (
			tournament_id, bracket_id, match_number, team1_id, team2_id, team1_seed_id, team2_seed_id,
			winner_team_id, expected_entrants, venue_id, table_number, scheduled_at, completed_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.TournamentID, m.BracketID, m.MatchNumber, m.Team1ID, m.Team2ID, m.Team1SeedID, m.Team2SeedID,
		m.WinnerTeamID, m.ExpectedEntrants, m.VenueID, m.TableNumber, m.ScheduledAt, m.CompletedAt, m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE id = $1`
	return scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE id = $1 FOR UPDATE`
	return scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE tournament_id = $1 ORDER BY bracket_id ASC, match_number ASC`
	return r.listMatches(ctx, exec, query, tournamentID)
}

func (r *postgresMatchRepository) ListByBracket(ctx context.Context, exec SQLExecutor, bracketID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE bracket_id = $1 ORDER BY match_number ASC`
	return r.listMatches(ctx, exec, query, bracketID)
}

func (r *postgresMatchRepository) UpdateLinks(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		UPDATE tournament_matches SET
			next_match_id = $1, next_match_slot = $2, consolation_match_id = $3, consolation_match_slot = $4
		WHERE id = $5`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.NextMatchID, m.NextMatchSlot, m.ConsolationMatchID, m.ConsolationMatchSlot, m.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateSlots(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		UPDATE tournament_matches SET
			team1_id = $1, team2_id = $2, team1_seed_id = $3, team2_seed_id = $4, status = $5
		WHERE id = $6 AND status IN ('pending', 'ready')`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.Team1ID, m.Team2ID, m.Team1SeedID, m.Team2SeedID, m.Status, m.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchAlreadyCompleted)
}

func (r *postgresMatchRepository) Schedule(ctx context.Context, exec SQLExecutor, id int, venueID *int, tableNumber *string, scheduledAt *time.Time) error {
	query := `
		UPDATE tournament_matches SET venue_id = $1, table_number = $2, scheduled_at = $3
		WHERE id = $4 AND status IN ('pending', 'ready')`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, venueID, tableNumber, scheduledAt, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchAlreadyCompleted)
}

func (r *postgresMatchRepository) Start(ctx context.Context, exec SQLExecutor, id int, startedAt time.Time) error {
	query := `
		UPDATE tournament_matches SET status = 'in_progress', started_at = $1
		WHERE id = $2 AND status = 'ready' AND started_at IS NULL
		  AND team1_id IS NOT NULL AND team2_id IS NOT NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, startedAt, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotReady)
}

func (r *postgresMatchRepository) Complete(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		UPDATE tournament_matches SET
			team1_score = $1, team2_score = $2, winner_team_id = $3, loser_team_id = $4,
			status = $5, completed_at = $6, forfeit_reason = $7
		WHERE id = $8 AND status IN ('pending', 'ready', 'in_progress')`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.Team1Score, m.Team2Score, m.WinnerTeamID, m.LoserTeamID,
		m.Status, m.CompletedAt, m.ForfeitReason, m.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchAlreadyCompleted)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == "tournament_matches_bracket_id_match_number_key" {
				return ErrMatchNumberConflict
			}
		case pqForeignKeyViolation:
			return ErrMatchInvalidReference
		}
	}
	return err
}
