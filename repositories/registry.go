package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// TeamRegistry is the read-only view of teams owned by the team service.
type TeamRegistry interface {
	GetTeamProfile(ctx context.Context, exec SQLExecutor, teamID int) (*models.TeamProfile, error)
	// IsEligible reports whether the team may enter tournaments of the category.
	IsEligible(ctx context.Context, exec SQLExecutor, teamID, categoryID int) (bool, error)
}

type CategoryRegistry interface {
	GetCategory(ctx context.Context, exec SQLExecutor, categoryID int) (*models.Category, error)
}

type postgresRegistry struct {
	db *sql.DB
}

func NewPostgresTeamRegistry(db *sql.DB) TeamRegistry {
	return &postgresRegistry{db: db}
}

func NewPostgresCategoryRegistry(db *sql.DB) CategoryRegistry {
	return &postgresRegistry{db: db}
}

func (r *postgresRegistry) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistry) GetTeamProfile(ctx context.Context, exec SQLExecutor, teamID int) (*models.TeamProfile, error) {
	query := `
		SELECT id, name, school_name, region, elo_rating, matches_played, matches_won, matches_lost, points_for, points_against
		FROM teams WHERE id = $1 AND ` + notDeleted
	p := &models.TeamProfile{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, teamID).Scan(
		&p.ID, &p.Name, &p.SchoolName, &p.Region, &p.EloRating, &p.MatchesPlayed, &p.MatchesWon, &p.MatchesLost, &p.PointsFor, &p.PointsAgainst,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRegistry) IsEligible(ctx context.Context, exec SQLExecutor, teamID, categoryID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_categories tc
			JOIN teams t ON t.id = tc.team_id
			WHERE tc.team_id = $1 AND tc.category_id = $2 AND t.is_active AND t.` + notDeleted + `
		)`
	var ok bool
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, teamID, categoryID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *postgresRegistry) GetCategory(ctx context.Context, exec SQLExecutor, categoryID int) (*models.Category, error) {
	c := &models.Category{}
	err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT id, name, code FROM categories WHERE id = $1`, categoryID).Scan(&c.ID, &c.Name, &c.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}
