package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var (
	ErrScheduleEntryNotFound = errors.New("schedule entry not found")
	ErrFixtureAlreadyPlayed  = errors.New("fixture already recorded as played")
)

type ScheduleRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, entries []*models.ScheduleEntry) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.ScheduleEntry, error)
	GetByMatchID(ctx context.Context, exec SQLExecutor, matchID int) (*models.ScheduleEntry, error)
	// MarkPlayed is the check-and-set guarding standings; a second call yields ErrFixtureAlreadyPlayed.
	MarkPlayed(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) ScheduleRepository {
	return &postgresScheduleRepository{db: db}
}

func (r *postgresScheduleRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const scheduleColumns = `id, tournament_id, round_number, scheduled_date, time_slot, team1_id, team2_id, venue_id, match_id, is_played`

func scanScheduleEntry(row rowScanner) (*models.ScheduleEntry, error) {
	e := &models.ScheduleEntry{}
	err := row.Scan(&e.ID, &e.TournamentID, &e.RoundNumber, &e.ScheduledDate, &e.TimeSlot, &e.Team1ID, &e.Team2ID, &e.VenueID, &e.MatchID, &e.IsPlayed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresScheduleRepository) BatchCreate(ctx context.Context, exec SQLExecutor, entries []*models.ScheduleEntry) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO round_robin_schedule (tournament_id, round_number, scheduled_date, time_slot, team1_id, team2_id, venue_id, match_id, is_played)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	for _, e := range entries {
		err := executor.QueryRowContext(ctx, query,
			e.TournamentID, e.RoundNumber, e.ScheduledDate, e.TimeSlot, e.Team1ID, e.Team2ID, e.VenueID, e.MatchID, e.IsPlayed,
		).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("failed to create schedule entry for round %d (%d vs %d): %w", e.RoundNumber, e.Team1ID, e.Team2ID, err)
		}
	}
	return nil
}

func (r *postgresScheduleRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.ScheduleEntry, error) {
	query := `SELECT ` + scheduleColumns + ` FROM round_robin_schedule WHERE tournament_id = $1 ORDER BY round_number ASC, id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.ScheduleEntry, 0)
	for rows.Next() {
		e, scanErr := scanScheduleEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresScheduleRepository) GetByMatchID(ctx context.Context, exec SQLExecutor, matchID int) (*models.ScheduleEntry, error) {
	query := `SELECT ` + scheduleColumns + ` FROM round_robin_schedule WHERE match_id = $1`
	return scanScheduleEntry(r.getExecutor(exec).QueryRowContext(ctx, query, matchID))
}

func (r *postgresScheduleRepository) MarkPlayed(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE round_robin_schedule SET is_played = TRUE WHERE id = $1 AND is_played = FALSE`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFixtureAlreadyPlayed)
}
