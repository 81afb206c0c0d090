package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var (
	ErrStandingNotFound      = errors.New("standing not found")
	ErrStandingTeamConflict  = errors.New("team already has a standing in this tournament")
	ErrStandingInconsistent  = errors.New("standing violates wins + draws + losses = matches played")
	ErrStandingInvalidRecord = errors.New("standing references an invalid tournament or team")
)

type StandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error
	GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Standing, error)
	Update(ctx context.Context, exec SQLExecutor, standing *models.Standing) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, sortByRank bool) ([]*models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const standingColumns = `
	id, tournament_id, team_id, matches_played, wins, draws, losses, points_for, points_against,
	league_points, ranking, is_tied, qualified, head_to_head, updated_at`

func scanStanding(row rowScanner) (*models.Standing, error) {
	var s models.Standing
	err := row.Scan(
		&s.ID, &s.TournamentID, &s.TeamID, &s.MatchesPlayed, &s.Wins, &s.Draws, &s.Losses, &s.PointsFor, &s.PointsAgainst,
		&s.LeaguePoints, &s.Ranking, &s.IsTied, &s.Qualified, &s.HeadToHead, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO round_robin_standings
			(tournament_id, team_id, matches_played, wins, draws, losses, points_for, points_against,
			 league_points, ranking, is_tied, qualified, head_to_head, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	for _, s := range standings {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		err := executor.QueryRowContext(ctx, query,
			s.TournamentID, s.TeamID, s.MatchesPlayed, s.Wins, s.Draws, s.Losses, s.PointsFor, s.PointsAgainst,
			s.LeaguePoints, s.Ranking, s.IsTied, s.Qualified, s.HeadToHead, s.UpdatedAt,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to create standing for team %d: %w", s.TeamID, r.handleStandingError(err))
		}
	}
	return nil
}

func (r *postgresStandingRepository) GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Standing, error) {
	query := `SELECT ` + standingColumns + ` FROM round_robin_standings WHERE tournament_id = $1 AND team_id = $2`
	return scanStanding(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, teamID))
}

func (r *postgresStandingRepository) Update(ctx context.Context, exec SQLExecutor, s *models.Standing) error {
	s.UpdatedAt = time.Now()
	query := `
		UPDATE round_robin_standings SET
			matches_played = $1, wins = $2, draws = $3, losses = $4, points_for = $5, points_against = $6,
			league_points = $7, ranking = $8, is_tied = $9, qualified = $10, head_to_head = $11, updated_at = $12
		WHERE id = $13`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		s.MatchesPlayed, s.Wins, s.Draws, s.Losses, s.PointsFor, s.PointsAgainst,
		s.LeaguePoints, s.Ranking, s.IsTied, s.Qualified, s.HeadToHead, s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return r.handleStandingError(err)
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, sortByRank bool) ([]*models.Standing, error) {
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`SELECT ` + standingColumns + ` FROM round_robin_standings WHERE tournament_id = $1`)
	if sortByRank {
		queryBuilder.WriteString(" ORDER BY ranking ASC NULLS LAST, league_points DESC, (points_for - points_against) DESC, points_for DESC, team_id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY team_id ASC")
	}

	rows, err := r.getExecutor(exec).QueryContext(ctx, queryBuilder.String(), tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, errScan := scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}

func (r *postgresStandingRepository) handleStandingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrInvalidHeadToHead) {
		return err
	}
	if pqErr, ok := pqError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrStandingTeamConflict
		case pqCheckViolation:
			return ErrStandingInconsistent
		case pqForeignKeyViolation:
			return ErrStandingInvalidRecord
		}
	}
	return err
}
