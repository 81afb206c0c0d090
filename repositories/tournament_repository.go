package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var (
	ErrTournamentNotFound        = errors.New("tournament not found")
	ErrTournamentFull            = errors.New("tournament has reached max_teams")
	ErrTournamentStatusChanged   = errors.New("tournament status changed concurrently")
	ErrTournamentInvalidCategory = errors.New("invalid category reference")
	ErrTournamentInvalidTeam     = errors.New("invalid podium team reference")
	ErrTournamentRoundOverflow   = errors.New("current_round cannot exceed rounds_total")
)

type ListTournamentsFilter struct {
	CategoryID *int
	Format     *models.TournamentFormat
	Status     *models.TournamentStatus
	Limit      int
	Offset     int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]*models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	// UpdateStatus moves from -> to; ErrTournamentStatusChanged when the row is no longer in from.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TournamentStatus) error
	UpdateProgress(ctx context.Context, exec SQLExecutor, id int, roundsTotal, currentRound int) error
	UpdatePodium(ctx context.Context, exec SQLExecutor, id int, winner, second, third *int) error
	IncrementTeamCount(ctx context.Context, exec SQLExecutor, id int) error
	DecrementTeamCount(ctx context.Context, exec SQLExecutor, id int) error
	SoftDelete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, format, category_id, venue_id, max_teams, current_teams, rounds_total, current_round,
	seeding_method, status, qualification_count, points_per_win, points_per_draw, points_per_loss,
	third_place_match, round_robin_legs, winner_team_id, second_team_id, third_team_id,
	created_by, created_at, updated_at, deleted_at`

func scanTournament(row rowScanner) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Format, &t.CategoryID, &t.VenueID, &t.MaxTeams, &t.CurrentTeams, &t.RoundsTotal, &t.CurrentRound,
		&t.SeedingMethod, &t.Status, &t.QualificationCount, &t.PointsPerWin, &t.PointsPerDraw, &t.PointsPerLoss,
		&t.ThirdPlaceMatch, &t.RoundRobinLegs, &t.WinnerTeamID, &t.SecondTeamID, &t.ThirdTeamID,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (
			name, format, category_id, venue_id, max_teams, seeding_method, status,
			qualification_count, points_per_win, points_per_draw, points_per_loss,
			third_place_match, round_robin_legs, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, current_teams, rounds_total, current_round, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		t.Name, t.Format, t.CategoryID, t.VenueID, t.MaxTeams, t.SeedingMethod, t.Status,
		t.QualificationCount, t.PointsPerWin, t.PointsPerDraw, t.PointsPerLoss,
		t.ThirdPlaceMatch, t.RoundRobinLegs, t.CreatedBy,
	).Scan(&t.ID, &t.CurrentTeams, &t.RoundsTotal, &t.CurrentRound, &t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 AND ` + notDeleted
	return scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 AND ` + notDeleted + ` FOR UPDATE`
	return scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE ` + notDeleted

	args := []interface{}{}
	argID := 1

	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND category_id = $%d", argID)
		args = append(args, *filter.CategoryID)
		argID++
	}
	if filter.Format != nil {
		query += fmt.Sprintf(" AND format = $%d", argID)
		args = append(args, *filter.Format)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

// Update writes the configurable fields. Status, counters and podium have their own methods.
func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			name = $1, format = $2, category_id = $3, venue_id = $4, max_teams = $5,
			seeding_method = $6, qualification_count = $7, points_per_win = $8,
			points_per_draw = $9, points_per_loss = $10, third_place_match = $11,
			round_robin_legs = $12, updated_at = NOW()
		WHERE id = $13 AND ` + notDeleted

	result, err := executor.ExecContext(ctx, query,
		t.Name, t.Format, t.CategoryID, t.VenueID, t.MaxTeams,
		t.SeedingMethod, t.QualificationCount, t.PointsPerWin,
		t.PointsPerDraw, t.PointsPerLoss, t.ThirdPlaceMatch,
		t.RoundRobinLegs, t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3 AND ` + notDeleted
	result, err := executor.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentStatusChanged)
}

func (r *postgresTournamentRepository) UpdateProgress(ctx context.Context, exec SQLExecutor, id int, roundsTotal, currentRound int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET rounds_total = $1, current_round = $2, updated_at = NOW() WHERE id = $3 AND ` + notDeleted
	result, err := executor.ExecContext(ctx, query, roundsTotal, currentRound, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdatePodium(ctx context.Context, exec SQLExecutor, id int, winner, second, third *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET winner_team_id = $1, second_team_id = $2, third_team_id = $3, updated_at = NOW()
		WHERE id = $4 AND ` + notDeleted
	result, err := executor.ExecContext(ctx, query, winner, second, third, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// IncrementTeamCount is a conditional increment; a full tournament yields ErrTournamentFull.
func (r *postgresTournamentRepository) IncrementTeamCount(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET current_teams = current_teams + 1, updated_at = NOW()
		WHERE id = $1 AND current_teams < max_teams AND ` + notDeleted
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentFull)
}

func (r *postgresTournamentRepository) DecrementTeamCount(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET current_teams = current_teams - 1, updated_at = NOW()
		WHERE id = $1 AND current_teams > 0 AND ` + notDeleted
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SoftDelete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET deleted_at = $1 WHERE id = $2 AND ` + notDeleted
	result, err := executor.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	if pqErr, ok := pqError(err); ok {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "tournaments_category_id_fkey":
				return ErrTournamentInvalidCategory
			case "tournaments_winner_team_id_fkey", "tournaments_second_team_id_fkey", "tournaments_third_team_id_fkey":
				return ErrTournamentInvalidTeam
			}
		case pqCheckViolation:
			switch pqErr.Constraint {
			case "tournaments_capacity_check":
				return ErrTournamentFull
			case "tournaments_current_round_check":
				return ErrTournamentRoundOverflow
			}
		}
	}
	return err
}
